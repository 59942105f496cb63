package sqlite

import (
	"context"
	"time"

	"github.com/example/attendance-tracker/internal/persistence"
)

// HolidayRepository implements persistence.HolidayRepository using SQLite.
type HolidayRepository struct {
	pool *ConnectionPool
}

// NewHolidayRepository creates a new SQLite custom holiday repository.
func NewHolidayRepository(pool *ConnectionPool) *HolidayRepository {
	return &HolidayRepository{pool: pool}
}

// CreateCustomHoliday inserts a new holiday and returns it with its ID.
func (r *HolidayRepository) CreateCustomHoliday(ctx context.Context, holiday persistence.CustomHoliday) (persistence.CustomHoliday, error) {
	result, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO custom_holidays (date, name) VALUES (?, ?)`,
		holiday.Date.Format(dateLayout), holiday.Name,
	)
	if err != nil {
		return persistence.CustomHoliday{}, mapError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return persistence.CustomHoliday{}, err
	}
	holiday.ID = id
	return holiday, nil
}

// GetCustomHoliday retrieves a holiday by ID.
func (r *HolidayRepository) GetCustomHoliday(ctx context.Context, id int64) (persistence.CustomHoliday, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, date, name FROM custom_holidays WHERE id = ?`, id)
	return scanCustomHoliday(row)
}

// GetCustomHolidayByDate retrieves a holiday by its unique date.
func (r *HolidayRepository) GetCustomHolidayByDate(ctx context.Context, date time.Time) (persistence.CustomHoliday, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, date, name FROM custom_holidays WHERE date = ?`, date.Format(dateLayout))
	return scanCustomHoliday(row)
}

// ListCustomHolidays returns all holidays in ascending date order.
func (r *HolidayRepository) ListCustomHolidays(ctx context.Context) ([]persistence.CustomHoliday, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id, date, name FROM custom_holidays ORDER BY date`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var holidays []persistence.CustomHoliday
	for rows.Next() {
		holiday, err := scanCustomHoliday(rows)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, holiday)
	}
	return holidays, rows.Err()
}

// UpdateCustomHoliday updates an existing holiday.
func (r *HolidayRepository) UpdateCustomHoliday(ctx context.Context, holiday persistence.CustomHoliday) error {
	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE custom_holidays SET date = ?, name = ? WHERE id = ?`,
		holiday.Date.Format(dateLayout), holiday.Name, holiday.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// DeleteCustomHoliday removes a holiday by ID.
func (r *HolidayRepository) DeleteCustomHoliday(ctx context.Context, id int64) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM custom_holidays WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

func scanCustomHoliday(row rowScanner) (persistence.CustomHoliday, error) {
	var holiday persistence.CustomHoliday
	var dateStr string
	if err := row.Scan(&holiday.ID, &dateStr, &holiday.Name); err != nil {
		return persistence.CustomHoliday{}, mapError(err)
	}
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return persistence.CustomHoliday{}, err
	}
	holiday.Date = date
	return holiday, nil
}

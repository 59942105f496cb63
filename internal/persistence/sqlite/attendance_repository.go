package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/attendance-tracker/internal/persistence"
)

const dateLayout = "2006-01-02"

// AttendanceRepository implements persistence.AttendanceRepository using SQLite.
type AttendanceRepository struct {
	pool *ConnectionPool
}

// NewAttendanceRepository creates a new SQLite attendance repository.
func NewAttendanceRepository(pool *ConnectionPool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// CreateAttendance inserts a new attendance row. The UNIQUE (user_id,
// date) index surfaces duplicate writes as persistence.ErrDuplicate.
func (r *AttendanceRepository) CreateAttendance(ctx context.Context, att persistence.Attendance) (persistence.Attendance, error) {
	result, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO attendances (user_id, date, location_id, note) VALUES (?, ?, ?, ?)`,
		att.UserID, att.Date.Format(dateLayout), att.LocationID, att.Note,
	)
	if err != nil {
		return persistence.Attendance{}, mapError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Attendance{}, err
	}
	att.ID = id
	return att, nil
}

// GetAttendance retrieves an attendance row by its surrogate ID.
func (r *AttendanceRepository) GetAttendance(ctx context.Context, id int64) (persistence.Attendance, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, user_id, date, location_id, note FROM attendances WHERE id = ?`, id)
	return scanAttendance(row)
}

// GetAttendanceByUserAndDate retrieves the unique row for a (user, date) pair.
func (r *AttendanceRepository) GetAttendanceByUserAndDate(ctx context.Context, userID string, date time.Time) (persistence.Attendance, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, user_id, date, location_id, note FROM attendances WHERE user_id = ? AND date = ?`,
		userID, date.Format(dateLayout))
	return scanAttendance(row)
}

// UpdateAttendance updates the location and note of an existing row.
func (r *AttendanceRepository) UpdateAttendance(ctx context.Context, att persistence.Attendance) error {
	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE attendances SET location_id = ?, note = ? WHERE id = ?`,
		att.LocationID, att.Note, att.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// DeleteAttendance removes an attendance row by ID.
func (r *AttendanceRepository) DeleteAttendance(ctx context.Context, id int64) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM attendances WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// ListAttendances returns the bare attendance rows matching the filter,
// ordered by date then user.
func (r *AttendanceRepository) ListAttendances(ctx context.Context, filter persistence.AttendanceFilter) ([]persistence.Attendance, error) {
	query, args := buildAttendanceQuery(
		`SELECT id, user_id, date, location_id, note FROM attendances`,
		"", filter)
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var attendances []persistence.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		attendances = append(attendances, att)
	}
	return attendances, rows.Err()
}

// ListAttendanceDetails returns attendance rows joined with user, group,
// employee-type, and location attributes. Rosters, aggregation, and CSV
// export all consume this single query shape.
func (r *AttendanceRepository) ListAttendanceDetails(ctx context.Context, filter persistence.AttendanceFilter) ([]persistence.AttendanceDetail, error) {
	base := `SELECT a.id, a.user_id, u.name, a.date, a.note,
		a.location_id, l.name,
		COALESCE(g.name, ''), g.display_order,
		COALESCE(t.name, ''), t.display_order
	FROM attendances a
	JOIN users u ON u.id = a.user_id
	JOIN locations l ON l.id = a.location_id
	LEFT JOIN groups g ON g.id = u.group_id
	LEFT JOIN employee_types t ON t.id = u.employee_type_id`

	query, args := buildAttendanceQuery(base, "a.", filter)
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var details []persistence.AttendanceDetail
	for rows.Next() {
		var d persistence.AttendanceDetail
		var dateStr string
		var note sql.NullString
		var groupOrder, typeOrder sql.NullInt64
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.UserName, &dateStr, &note,
			&d.LocationID, &d.LocationName,
			&d.GroupName, &groupOrder,
			&d.EmployeeTypeName, &typeOrder,
		); err != nil {
			return nil, mapError(err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, err
		}
		d.Date = date
		if note.Valid {
			d.Note = &note.String
		}
		if groupOrder.Valid {
			d.GroupOrder = &groupOrder.Int64
		}
		if typeOrder.Valid {
			d.EmployeeTypeOrder = &typeOrder.Int64
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func buildAttendanceQuery(base, prefix string, filter persistence.AttendanceFilter) (string, []any) {
	var conditions []string
	var args []any
	if filter.UserID != "" {
		conditions = append(conditions, prefix+"user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.From != nil {
		conditions = append(conditions, prefix+"date >= ?")
		args = append(args, filter.From.Format(dateLayout))
	}
	if filter.To != nil {
		conditions = append(conditions, prefix+"date <= ?")
		args = append(args, filter.To.Format(dateLayout))
	}
	query := base
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY " + prefix + "date, " + prefix + "user_id"
	return query, args
}

func scanAttendance(row rowScanner) (persistence.Attendance, error) {
	var att persistence.Attendance
	var dateStr string
	var note sql.NullString
	if err := row.Scan(&att.ID, &att.UserID, &dateStr, &att.LocationID, &note); err != nil {
		return persistence.Attendance{}, mapError(err)
	}
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return persistence.Attendance{}, err
	}
	att.Date = date
	if note.Valid {
		att.Note = &note.String
	}
	return att, nil
}

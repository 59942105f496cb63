package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/attendance-tracker/internal/persistence"
)

// LocationRepository implements persistence.LocationRepository using SQLite.
type LocationRepository struct {
	pool *ConnectionPool
}

// NewLocationRepository creates a new SQLite location repository.
func NewLocationRepository(pool *ConnectionPool) *LocationRepository {
	return &LocationRepository{pool: pool}
}

// CreateLocation inserts a new work location and returns it with its ID.
func (r *LocationRepository) CreateLocation(ctx context.Context, loc persistence.Location) (persistence.Location, error) {
	result, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO locations (name, category, display_order) VALUES (?, ?, ?)`,
		loc.Name, loc.Category, loc.Order,
	)
	if err != nil {
		return persistence.Location{}, mapError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Location{}, err
	}
	loc.ID = id
	return loc, nil
}

// GetLocation retrieves a location by ID.
func (r *LocationRepository) GetLocation(ctx context.Context, id int64) (persistence.Location, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, name, category, display_order FROM locations WHERE id = ?`, id)
	return scanLocation(row)
}

// GetLocationByName retrieves a location by its unique name.
func (r *LocationRepository) GetLocationByName(ctx context.Context, name string) (persistence.Location, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, name, category, display_order FROM locations WHERE name = ?`, name)
	return scanLocation(row)
}

// ListLocations returns all locations ordered by display order with NULLs
// last, then by ID.
func (r *LocationRepository) ListLocations(ctx context.Context) ([]persistence.Location, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id, name, category, display_order FROM locations
		 ORDER BY display_order IS NULL, display_order, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var locations []persistence.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// UpdateLocation updates an existing location.
func (r *LocationRepository) UpdateLocation(ctx context.Context, loc persistence.Location) error {
	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE locations SET name = ?, category = ?, display_order = ? WHERE id = ?`,
		loc.Name, loc.Category, loc.Order, loc.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// DeleteLocation removes a location by ID.
func (r *LocationRepository) DeleteLocation(ctx context.Context, id int64) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// CountAttendancesAtLocation reports how many attendance rows reference
// the location.
func (r *LocationRepository) CountAttendancesAtLocation(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.pool.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendances WHERE location_id = ?`, id).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func scanLocation(row rowScanner) (persistence.Location, error) {
	var loc persistence.Location
	var category sql.NullString
	var order sql.NullInt64
	if err := row.Scan(&loc.ID, &loc.Name, &category, &order); err != nil {
		return persistence.Location{}, mapError(err)
	}
	if category.Valid {
		loc.Category = &category.String
	}
	if order.Valid {
		loc.Order = &order.Int64
	}
	return loc, nil
}

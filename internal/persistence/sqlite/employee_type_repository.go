package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/attendance-tracker/internal/persistence"
)

// EmployeeTypeRepository implements persistence.EmployeeTypeRepository using SQLite.
type EmployeeTypeRepository struct {
	pool *ConnectionPool
}

// NewEmployeeTypeRepository creates a new SQLite employee type repository.
func NewEmployeeTypeRepository(pool *ConnectionPool) *EmployeeTypeRepository {
	return &EmployeeTypeRepository{pool: pool}
}

// CreateEmployeeType inserts a new employee type and returns it with its ID.
func (r *EmployeeTypeRepository) CreateEmployeeType(ctx context.Context, et persistence.EmployeeType) (persistence.EmployeeType, error) {
	result, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO employee_types (name, display_order) VALUES (?, ?)`,
		et.Name, et.Order,
	)
	if err != nil {
		return persistence.EmployeeType{}, mapError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return persistence.EmployeeType{}, err
	}
	et.ID = id
	return et, nil
}

// GetEmployeeType retrieves an employee type by ID.
func (r *EmployeeTypeRepository) GetEmployeeType(ctx context.Context, id int64) (persistence.EmployeeType, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, name, display_order FROM employee_types WHERE id = ?`, id)
	return scanEmployeeType(row)
}

// GetEmployeeTypeByName retrieves an employee type by its unique name.
func (r *EmployeeTypeRepository) GetEmployeeTypeByName(ctx context.Context, name string) (persistence.EmployeeType, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, name, display_order FROM employee_types WHERE name = ?`, name)
	return scanEmployeeType(row)
}

// ListEmployeeTypes returns all employee types ordered by display order
// with NULLs last, then by ID.
func (r *EmployeeTypeRepository) ListEmployeeTypes(ctx context.Context) ([]persistence.EmployeeType, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id, name, display_order FROM employee_types
		 ORDER BY display_order IS NULL, display_order, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var types []persistence.EmployeeType
	for rows.Next() {
		et, err := scanEmployeeType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, et)
	}
	return types, rows.Err()
}

// UpdateEmployeeType updates an existing employee type.
func (r *EmployeeTypeRepository) UpdateEmployeeType(ctx context.Context, et persistence.EmployeeType) error {
	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE employee_types SET name = ?, display_order = ? WHERE id = ?`,
		et.Name, et.Order, et.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// DeleteEmployeeType removes an employee type by ID.
func (r *EmployeeTypeRepository) DeleteEmployeeType(ctx context.Context, id int64) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM employee_types WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// CountUsersOfType reports how many users reference the employee type.
func (r *EmployeeTypeRepository) CountUsersOfType(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.pool.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE employee_type_id = ?`, id).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func scanEmployeeType(row rowScanner) (persistence.EmployeeType, error) {
	var et persistence.EmployeeType
	var order sql.NullInt64
	if err := row.Scan(&et.ID, &et.Name, &order); err != nil {
		return persistence.EmployeeType{}, mapError(err)
	}
	if order.Valid {
		et.Order = &order.Int64
	}
	return et, nil
}

package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/attendance-tracker/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO users (id, name, group_id, employee_type_id) VALUES (?, ?, ?, ?)`,
		user.ID, user.Name, user.GroupID, user.EmployeeTypeID,
	)
	return mapError(err)
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, name, group_id, employee_type_id FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByName retrieves a user by display name.
func (r *UserRepository) GetUserByName(ctx context.Context, name string) (persistence.User, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, name, group_id, employee_type_id FROM users WHERE name = ?`, name)
	return scanUser(row)
}

// ListUsers returns all users in insertion order. Presentation ordering
// is applied by the callers that know the grouping context.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id, name, group_id, employee_type_id FROM users ORDER BY rowid`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUser updates an existing user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE users SET name = ?, group_id = ?, employee_type_id = ? WHERE id = ?`,
		user.Name, user.GroupID, user.EmployeeTypeID, user.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// DeleteUser removes a user and, in the same transaction, every
// attendance row that references them.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM attendances WHERE user_id = ?`, id); err != nil {
			return mapError(err)
		}
		result, err := tx.Exec(`DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return mapError(err)
		}
		return requireRowAffected(result)
	})
}

func scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	if err := row.Scan(&user.ID, &user.Name, &user.GroupID, &user.EmployeeTypeID); err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

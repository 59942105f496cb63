package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/attendance-tracker/internal/persistence"
)

// GroupRepository implements persistence.GroupRepository using SQLite.
type GroupRepository struct {
	pool *ConnectionPool
}

// NewGroupRepository creates a new SQLite group repository.
func NewGroupRepository(pool *ConnectionPool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// CreateGroup inserts a new group and returns it with its assigned ID.
func (r *GroupRepository) CreateGroup(ctx context.Context, group persistence.Group) (persistence.Group, error) {
	result, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO groups (name, display_order) VALUES (?, ?)`,
		group.Name, group.Order,
	)
	if err != nil {
		return persistence.Group{}, mapError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Group{}, err
	}
	group.ID = id
	return group, nil
}

// GetGroup retrieves a group by ID.
func (r *GroupRepository) GetGroup(ctx context.Context, id int64) (persistence.Group, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, name, display_order FROM groups WHERE id = ?`, id)
	return scanGroup(row)
}

// GetGroupByName retrieves a group by its unique name.
func (r *GroupRepository) GetGroupByName(ctx context.Context, name string) (persistence.Group, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, name, display_order FROM groups WHERE name = ?`, name)
	return scanGroup(row)
}

// ListGroups returns all groups ordered by display order with NULLs last,
// then by ID.
func (r *GroupRepository) ListGroups(ctx context.Context) ([]persistence.Group, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id, name, display_order FROM groups
		 ORDER BY display_order IS NULL, display_order, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var groups []persistence.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// UpdateGroup updates an existing group.
func (r *GroupRepository) UpdateGroup(ctx context.Context, group persistence.Group) error {
	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE groups SET name = ?, display_order = ? WHERE id = ?`,
		group.Name, group.Order, group.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// DeleteGroup removes a group by ID.
func (r *GroupRepository) DeleteGroup(ctx context.Context, id int64) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// CountUsersInGroup reports how many users reference the group.
func (r *GroupRepository) CountUsersInGroup(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.pool.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE group_id = ?`, id).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (persistence.Group, error) {
	var group persistence.Group
	var order sql.NullInt64
	if err := row.Scan(&group.ID, &group.Name, &order); err != nil {
		return persistence.Group{}, mapError(err)
	}
	if order.Valid {
		group.Order = &order.Int64
	}
	return group, nil
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

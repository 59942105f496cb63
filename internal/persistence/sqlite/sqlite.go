// Package sqlite implements the persistence repositories on top of a
// SQLite database accessed through the pure-Go modernc.org driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Storage bundles the SQLite-backed repository implementations behind a
// single connection pool.
type Storage struct {
	pool *ConnectionPool

	Groups        *GroupRepository
	EmployeeTypes *EmployeeTypeRepository
	Locations     *LocationRepository
	Users         *UserRepository
	Attendances   *AttendanceRepository
	Holidays      *HolidayRepository
}

// Open connects to the database identified by dsn and constructs the
// repositories. Call Migrate before first use.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	return &Storage{
		pool:          pool,
		Groups:        NewGroupRepository(pool),
		EmployeeTypes: NewEmployeeTypeRepository(pool),
		Locations:     NewLocationRepository(pool),
		Users:         NewUserRepository(pool),
		Attendances:   NewAttendanceRepository(pool),
		Holidays:      NewHolidayRepository(pool),
	}, nil
}

// Pool exposes the underlying connection pool.
func (s *Storage) Pool() *ConnectionPool {
	return s.pool
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.pool.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS groups (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT NOT NULL UNIQUE,
		display_order INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS employee_types (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT NOT NULL UNIQUE,
		display_order INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT NOT NULL UNIQUE,
		category      TEXT,
		display_order INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL UNIQUE,
		group_id         INTEGER NOT NULL REFERENCES groups(id),
		employee_type_id INTEGER NOT NULL REFERENCES employee_types(id)
	)`,
	`CREATE TABLE IF NOT EXISTS attendances (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date        TEXT NOT NULL,
		location_id INTEGER NOT NULL REFERENCES locations(id),
		note        TEXT,
		UNIQUE (user_id, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendances_date ON attendances(date)`,
	`CREATE TABLE IF NOT EXISTS custom_holidays (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL
	)`,
}

// Migrate applies the schema. Statements are idempotent so repeated
// startups are safe.
func (s *Storage) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Seed installs the default reference rows on an empty database so a
// fresh deployment has workable locations and classifications.
func (s *Storage) Seed(ctx context.Context) error {
	var count int64
	if err := s.pool.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM locations`).Scan(&count); err != nil {
		return mapError(err)
	}
	if count > 0 {
		return nil
	}

	seeds := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO locations (name, category, display_order) VALUES (?, ?, ?)`, []any{"出社", "勤務", int64(1)}},
		{`INSERT INTO locations (name, category, display_order) VALUES (?, ?, ?)`, []any{"リモート", "勤務", int64(2)}},
		{`INSERT INTO locations (name, category, display_order) VALUES (?, ?, ?)`, []any{"出張", "勤務", int64(3)}},
		{`INSERT INTO locations (name, category, display_order) VALUES (?, ?, ?)`, []any{"休暇", "休み", int64(4)}},
		{`INSERT INTO groups (name, display_order) VALUES (?, ?)`, []any{"未所属", int64(99)}},
		{`INSERT INTO employee_types (name, display_order) VALUES (?, ?)`, []any{"正社員", int64(1)}},
		{`INSERT INTO employee_types (name, display_order) VALUES (?, ?)`, []any{"協力会社", int64(2)}},
	}
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, seed := range seeds {
			if _, err := tx.Exec(seed.query, seed.args...); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when an insert or update violates a unique index.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrForeignKey is returned when a write violates a foreign key constraint.
	ErrForeignKey = errors.New("persistence: foreign key violation")
)

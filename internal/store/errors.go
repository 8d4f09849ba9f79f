package store

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when issuing a key whose token already
	// exists. With 122-bit random tokens this should never fire in practice,
	// but the constraint violation is surfaced rather than swallowed.
	ErrDuplicateKey = errors.New("api key already exists")
)

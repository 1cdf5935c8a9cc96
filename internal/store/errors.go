package store

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable is matched by every failure of the underlying
	// database engine (open, migrate, read or write).
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound is returned by Update when no record has the given ID.
	ErrNotFound = errors.New("entry not found")

	// ErrImmutable is returned by Update when it would clear or change a
	// time_out that is already set.
	ErrImmutable = errors.New("time out already set")
)

// Error wraps an engine failure with the operation that hit it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrStorageUnavailable, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == ErrStorageUnavailable
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrAmbiguous indicates a lookup matched more than one record where
	// exactly one was required.
	ErrAmbiguous = errors.New("repository: ambiguous match")
)

// UniqueViolationError reports a storage-level uniqueness conflict scoped to
// a single field. The storage constraint is the final arbiter for concurrent
// writes; callers translate this into a field-scoped violation code.
type UniqueViolationError struct {
	Field string
}

// Error implements error.
func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("repository: unique violation on %s", e.Field)
}

// IsUniqueViolation extracts a UniqueViolationError from an error chain.
func IsUniqueViolation(err error) (*UniqueViolationError, bool) {
	var uv *UniqueViolationError
	if errors.As(err, &uv) {
		return uv, true
	}
	return nil, false
}

package storage

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a unique constraint violation.
	ErrConflict = errors.New("conflict")
	// ErrInvalidReference reports a foreign key pointing at a missing row.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrConstraint reports a CHECK constraint violation.
	ErrConstraint = errors.New("constraint violation")
)

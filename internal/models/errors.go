package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrTitleRequired      = errors.New("title is required")
	ErrTextRequired       = errors.New("text is required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// PersistenceError wraps a failure of the record store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// BulkDeleteError lists the ids that were missing or not owned; when it is
// returned nothing was deleted.
type BulkDeleteError struct {
	Missing []string
}

func (e *BulkDeleteError) Error() string {
	return fmt.Sprintf("bulk delete rejected, %d not found: %s", len(e.Missing), strings.Join(e.Missing, ", "))
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

var ErrInvalidCategory = errors.New("unknown category")

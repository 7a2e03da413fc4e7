package identity

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record already exists")
	ErrConcurrency       = errors.New("concurrent modification conflict")
	ErrRoleNotFound      = errors.New("role not found")
	ErrDuplicateUserName = errors.New("user name already taken")
	ErrDuplicateEmail    = errors.New("email already taken")
)

// Machine-readable codes carried by StoreError. The identity framework maps
// these onto its own failure reporting; they are stable strings, not display
// text.
const (
	CodeDuplicateUserName = "duplicate_user_name"
	CodeDuplicateEmail    = "duplicate_email"
	CodeConflict          = "conflict"
	CodeConcurrency       = "concurrency_conflict"
	CodeCanceled          = "canceled"
	CodeStorageFailure    = "storage_failure"
)

// StoreError is the structured failure result of a lifecycle operation
// (create, update, delete). It carries a machine-readable code, a
// human-readable description, and the underlying cause so callers can still
// test sentinels and context cancellation with errors.Is.
type StoreError struct {
	Code        string
	Description string
	Err         error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err with a code and description.
func NewStoreError(code, description string, err error) *StoreError {
	return &StoreError{Code: code, Description: description, Err: err}
}

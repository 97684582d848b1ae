// Package apperr defines the error taxonomy shared by the engine packages.
//
// Repositories translate driver errors into these sentinels; the HTTP layer
// maps them onto status codes. Callers test with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input (unknown difficulty, user or
	// item). Rejected before any state mutation, not retryable.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing row.
	ErrNotFound = errors.New("not found")
	// ErrStale marks a concurrent write detected by a version check.
	// The caller should re-fetch and retry once.
	ErrStale = errors.New("stale state")
	// ErrUnavailable marks a store failure. Retryable; the operation was
	// not recorded.
	ErrUnavailable = errors.New("store unavailable")
)

// Validationf wraps ErrValidation with a reason.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// Unavailable wraps a store error as retryable, keeping the cause.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// Package apperror defines the error taxonomy shared by every layer.
//
// Layers below HTTP never pick status codes. They return one of these typed
// errors and the handler package maps the sentinel to a response:
//
//	ErrValidation  → 400 (bad input, never reaches the store)
//	ErrNotFound    → 404 (essay unknown to the CMS)
//	ErrStorage     → 500 (database unreachable or failed)
//	ErrUnavailable → 503 (a collaborator is not configured)
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrStorage     = errors.New("storage unavailable")
	ErrUnavailable = errors.New("service unavailable")
)

type AppError struct {
	Err     error  // sentinel, matched with errors.Is
	Message string // Human-readable error message, safe to show to clients
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying failure, for logs only
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// StorageUnavailable wraps a persistence failure. The client only ever sees
// the generic message; cause is kept for logging.
func StorageUnavailable(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: "storage unavailable",
		Cause:   fmt.Errorf("%s: %w", op, cause),
	}
}

// Unavailable reports a collaborator that is not configured or not reachable.
func Unavailable(message string) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: message,
	}
}

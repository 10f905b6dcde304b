// Package apperror defines the typed errors the service layers return.
// Handlers translate these to HTTP status codes; nothing in here knows
// about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNoSelection     = errors.New("no organization selected")
	ErrPersistence     = errors.New("persistence failure")
)

// AppError carries a sentinel kind plus a human-readable message.
// errors.Is against the sentinels works through Unwrap.
type AppError struct {
	Err     error  // sentinel kind
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
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

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Unauthenticated returns an AppError for requests with no valid session.
// HTTP handlers map this to 401 Unauthorized.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// NoSelection returns an AppError for blog operations attempted while no
// organization is selected. HTTP handlers map this to 409 Conflict.
func NoSelection() *AppError {
	return &AppError{
		Err:     ErrNoSelection,
		Message: "no organization is currently selected",
	}
}

// Persistence wraps a durable-storage failure. The session store logs these
// and keeps going; they surface only where a caller explicitly asks the
// storage layer for something, like rehydration at startup.
func Persistence(op string, err error) *AppError {
	return &AppError{
		Err:     ErrPersistence,
		Message: fmt.Sprintf("durable storage %s failed: %v", op, err),
	}
}

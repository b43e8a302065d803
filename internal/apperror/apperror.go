// Package apperror defines the error kinds shared by the stores, services
// and HTTP handlers. Handlers translate kinds to status codes with errors.Is;
// the Message is what the caller sees.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("store unavailable")
	ErrNotSupported = errors.New("not supported")
)

// AppError is an error kind plus the message shown to the caller. Match the
// kind with errors.Is against the Err* sentinels.
type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// InvalidInput reports a missing or malformed required field.
func InvalidInput(field, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidInput,
		Message: message,
		Field:   field,
	}
}

// Unauthorized reports credentials that did not verify.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// NotFound reports a missing resource by id.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage is NotFound with a caller-chosen message, used where the
// lookup key is not an id (for example a username).
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

// Conflict reports a write rejected by a uniqueness rule.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unavailable wraps an infrastructure failure. The cause is kept for logs
// but never becomes part of the message.
func Unavailable(cause error) *AppError {
	return &AppError{
		Err:     errors.Join(ErrUnavailable, cause),
		Message: ErrUnavailable.Error(),
	}
}

// NotSupported reports a method or action the API does not offer. Handlers
// answer it with a bare 404.
func NotSupported(what string) *AppError {
	return &AppError{
		Err:     ErrNotSupported,
		Message: fmt.Sprintf("%s is not supported", what),
	}
}

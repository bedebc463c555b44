// Package apperror defines the error taxonomy shared by every layer of the service
// and the translator that turns any error into a transport-level status and envelope.
//
// HOW ERRORS FLOW:
// Repositories wrap driver errors with context ("sqlite: ...: %w").
// Services classify failures by wrapping one of the sentinel errors below in an *AppError.
// Handlers never inspect messages — they call Translate and write what it returns.
//
//	service returns: apperror.NotFound("Flashcard not found")
//	which wraps:     AppError{Err: ErrNotFound, Message: "..."}
//	Translate sees:  errors.Is(err, ErrNotFound) → 404 NOT_FOUND
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Match with errors.Is, never by comparing messages.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrDatabase           = errors.New("database error")
)

// AppError is a classified error carrying a caller-safe message.
type AppError struct {
	Err     error             // one of the sentinel kinds
	Message string            // human-readable, safe to return to the client
	Details map[string]string // validation only: dotted field path → message
	Cause   error             // optional underlying error, logged but never exposed
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the cause so errors.Is works against either.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// Validation returns a validation error. details may be nil.
func Validation(message string, details map[string]string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Details: details,
	}
}

// ValidationFailed is the single-field shorthand for Validation.
func ValidationFailed(field, message string) *AppError {
	return Validation(message, map[string]string{field: message})
}

func NotFound(message string) *AppError {
	return &AppError{Err: ErrNotFound, Message: message}
}

// Unauthorized defaults to "Authentication required" when message is empty.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "Authentication required"
	}
	return &AppError{Err: ErrUnauthorized, Message: message}
}

func RateLimited(message string) *AppError {
	return &AppError{Err: ErrRateLimited, Message: message}
}

func ServiceUnavailable(message string) *AppError {
	return &AppError{Err: ErrServiceUnavailable, Message: message}
}

// Database classifies a persistence failure. cause is kept for logging only.
func Database(message string, cause error) *AppError {
	return &AppError{Err: ErrDatabase, Message: message, Cause: cause}
}

// Databasef is Database with a formatted message.
func Databasef(cause error, format string, args ...any) *AppError {
	return Database(fmt.Sprintf(format, args...), cause)
}

// Is reports whether err is an *AppError of the given kind.
// Unlike errors.Is it ignores the Cause chain.
func Is(err error, kind error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Err == kind
}

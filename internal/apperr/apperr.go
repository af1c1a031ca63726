// Package apperr defines the error taxonomy shared across the service.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the domain layer. Handlers wrap these with context via
// fmt.Errorf("...: %w", ...) and the HTTP boundary maps them to status codes.
var (
	// ErrValidation indicates a malformed or incomplete payload.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated indicates a missing, invalid, or expired credential.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden indicates a role or ownership denial.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates an unknown model or record.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate unique identity.
	ErrConflict = errors.New("conflict")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// Unauthenticatedf wraps ErrUnauthenticated with a formatted message.
func Unauthenticatedf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrUnauthenticated)
}

// Forbiddenf wraps ErrForbidden with a formatted message.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrForbidden)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// Status maps an error to the HTTP status code for its kind. Unrecognized
// errors map to 500.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-safe message for an error. Internal errors are
// collapsed to a generic string so storage details never reach clients.
func Message(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

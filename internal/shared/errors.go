package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness conflict in the backend.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrBackendUnavailable indicates the users backend could not be reached or failed.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage converts an error into text that can be shown to operators.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested user could not be found."
	case errors.Is(err, ErrDuplicate):
		return "A user with the same identifier already exists."
	case errors.Is(err, ErrValidation):
		return "Please correct the highlighted fields."
	case errors.Is(err, ErrBackendUnavailable):
		return "The user service is unavailable. Please try again."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	default:
		return "Something went wrong. Please try again."
	}
}

// Unavailable wraps err so that it matches ErrBackendUnavailable.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
}

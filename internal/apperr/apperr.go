// Package apperr defines the error kinds shared across services so the HTTP
// layer can map failures to status codes without inspecting error strings.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed or out-of-range caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a missing entity or an empty result where one was required.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks an operation whose referenced state no longer exists,
	// e.g. generating a menu for a user deleted mid-request.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnauthorized marks a missing or expired session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks an attempt to touch another user's data.
	ErrForbidden = errors.New("forbidden")

	// ErrInternal marks unexpected collaborator failures.
	ErrInternal = errors.New("internal error")
)

// InvalidInput wraps ErrInvalidInput with a formatted message.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

// NotFound wraps ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

// InvalidState wraps ErrInvalidState with a formatted message.
func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidState}, args...)...)
}

// Internal wraps ErrInternal with a formatted message.
func Internal(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInternal}, args...)...)
}

package errors

import "errors"

// Common application errors
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned for authentication failures (missing or invalid token).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks the rights for an action.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned when input data fails field rules.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned for state conflicts, e.g. a unique key that is already taken.
	ErrConflict = errors.New("resource state conflict")
)

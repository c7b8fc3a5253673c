package service

import (
	"errors"
	"strings"

	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
	"github.com/yourusername/verification-api/internal/validation"
)

var (
	// ErrInvalidOrExpiredCode covers unknown, expired and already used codes alike.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired verification code")
	// ErrNotificationFailed wraps a transport failure after the record was persisted.
	ErrNotificationFailed = errors.New("verification notification failed")
)

// ValidationError carries the field errors of a rejected request.
type ValidationError struct {
	Errors []validation.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return apperrors.ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == apperrors.ErrValidation
}

func validationFailed(errs []validation.FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

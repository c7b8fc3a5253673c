package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/verification-api/internal/domain/entity"
)

// FieldError describes one failed field rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Validator checks a request and returns its field errors; an empty result means valid.
type Validator interface {
	Validate(request interface{}) []FieldError
}

var purposeCodePattern = regexp.MustCompile(`^[A-Z_]+$`)

// RequestValidator is a Validator backed by go-playground/validator struct tags.
// Custom tags:
//
//	purpose_code  uppercase letters and underscores only
//	channel       a known entity.VerificationChannel
//	future        a *time.Time / time.Time strictly after the validator clock
//	email_for     must be an email address when the sibling channel field (param) is EMAIL
type RequestValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

func New() *RequestValidator {
	return NewWithClock(time.Now)
}

// NewWithClock builds a validator whose "future" rule compares against now().
func NewWithClock(now func() time.Time) *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	rv := &RequestValidator{validate: v, now: now}

	// Report JSON names so field errors line up with request bodies.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("purpose_code", func(fl validator.FieldLevel) bool {
		return purposeCodePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("channel", func(fl validator.FieldLevel) bool {
		return entity.VerificationChannel(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("future", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return t.After(rv.now())
	})
	_ = v.RegisterValidation("email_for", func(fl validator.FieldLevel) bool {
		parent := reflect.Indirect(fl.Parent())
		channel := parent.FieldByName(fl.Param())
		if !channel.IsValid() || entity.VerificationChannel(channel.String()) != entity.VerificationChannelEmail {
			return true
		}
		return v.Var(fl.Field().String(), "email") == nil
	})

	return rv
}

// Validate runs struct validation and converts the result into FieldErrors.
func (rv *RequestValidator) Validate(request interface{}) []FieldError {
	err := rv.validate.Struct(request)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []FieldError{{Field: "", Message: err.Error(), Code: "validation_invalid"}}
	}

	details := make([]FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		details = append(details, FieldError{
			Field:   fe.Field(),
			Message: message(fe),
			Code:    "validation_" + fe.Tag(),
		})
	}
	return details
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", fe.Field())
	case "email", "email_for":
		return fmt.Sprintf("Field '%s' must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("Field '%s' must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("Field '%s' must not exceed %s characters", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("Field '%s' must be exactly %s characters long", fe.Field(), fe.Param())
	case "numeric":
		return fmt.Sprintf("Field '%s' must contain only numbers", fe.Field())
	case "purpose_code":
		return fmt.Sprintf("Field '%s' should contain only uppercase letters and underscores", fe.Field())
	case "channel":
		return fmt.Sprintf("Field '%s' is not a valid verification channel", fe.Field())
	case "future":
		return fmt.Sprintf("Field '%s' must be in the future", fe.Field())
	case "required_if":
		return fmt.Sprintf("Field '%s' is required here", fe.Field())
	default:
		return fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
	}
}

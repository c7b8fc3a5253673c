package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/yourusername/verification-api/internal/domain/repository"
	"github.com/yourusername/verification-api/internal/handler/dto"
	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
	"github.com/yourusername/verification-api/internal/service"
	"github.com/yourusername/verification-api/internal/validation"
	"github.com/yourusername/verification-api/pkg/logger"
)

// respondError maps service errors to HTTP statuses. Unknown errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", ErrorType: "validation", Details: vErr.Errors})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", ErrorType: "validation", Details: err.Error()})
	case errors.Is(err, service.ErrInvalidOrExpiredCode):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid or expired verification code", ErrorType: "invalid_or_expired_code"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Resource not found", ErrorType: "not_found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "Resource already exists", ErrorType: "conflict"})
	default:
		logger.Log.WithError(err).WithField("path", c.FullPath()).Error("[Handler] unhandled error")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error", ErrorType: "internal"})
	}
}

// respondBindError reports malformed bodies, with per-field details when binding validation failed.
func respondBindError(c *gin.Context, err error) {
	var bindErrs validator.ValidationErrors
	if errors.As(err, &bindErrs) {
		details := make([]validation.FieldError, 0, len(bindErrs))
		for _, fe := range bindErrs {
			details = append(details, validation.FieldError{
				Field:   strings.ToLower(fe.Field()),
				Message: "Field '" + strings.ToLower(fe.Field()) + "' failed the '" + fe.Tag() + "' rule",
				Code:    "validation_" + fe.Tag(),
			})
		}
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", ErrorType: "validation", Details: details})
		return
	}
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request data", ErrorType: "bad_request", Details: err.Error()})
}

// parseListQuery reads limit, offset, sort_by, sort_desc and filter[<field>]=<value>.
func parseListQuery(c *gin.Context) (repository.ListQuery, error) {
	q := repository.ListQuery{
		Filters: c.QueryMap("filter"),
		SortBy:  c.Query("sort_by"),
	}
	var err error
	if v := c.Query("limit"); v != "" {
		if q.Limit, err = strconv.Atoi(v); err != nil {
			return q, errors.New("limit must be an integer")
		}
	}
	if v := c.Query("offset"); v != "" {
		if q.Offset, err = strconv.Atoi(v); err != nil {
			return q, errors.New("offset must be an integer")
		}
	}
	if v := c.Query("sort_desc"); v != "" {
		if q.SortDesc, err = strconv.ParseBool(v); err != nil {
			return q, errors.New("sort_desc must be a boolean")
		}
	}
	return q, nil
}

package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/verification-api/internal/domain/entity"
)

// CreateVerificationRequest issues a code over an explicit channel.
type CreateVerificationRequest struct {
	UserID                  uuid.UUID                  `json:"user_id" validate:"required"`
	Channel                 entity.VerificationChannel `json:"channel" validate:"required,channel"`
	Destination             string                     `json:"destination" validate:"required,max=255,email_for=Channel"`
	VerificationPurposeCode string                     `json:"verification_purpose_code" validate:"required,max=50"`
	ExpiresAt               *time.Time                 `json:"expires_at,omitempty" validate:"omitempty,future"`
}

// SendVerificationRequest issues a code by email and dispatches it.
type SendVerificationRequest struct {
	UserID      uuid.UUID  `json:"user_id" validate:"required"`
	Destination string     `json:"destination" validate:"required,max=255,email"`
	PurposeCode string     `json:"purpose_code" validate:"required,max=50"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" validate:"omitempty,future"`
}

// CreateVerificationPurposeRequest describes a purpose to register. IsActive defaults to true.
type CreateVerificationPurposeRequest struct {
	Code        string `json:"code" validate:"required,max=50,purpose_code"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// UpdateVerificationPurposeRequest is a partial update; nil fields keep their stored value.
type UpdateVerificationPurposeRequest struct {
	Code        *string `json:"code,omitempty" validate:"omitnil,min=1,max=50,purpose_code"`
	Name        *string `json:"name,omitempty" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitnil,max=500"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type VerificationPurposeDTO struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type VerificationDTO struct {
	ID                      uuid.UUID                  `json:"id"`
	UserID                  uuid.UUID                  `json:"user_id"`
	Channel                 entity.VerificationChannel `json:"channel"`
	Destination             string                     `json:"destination"`
	VerificationCode        string                     `json:"verification_code"`
	VerificationPurposeCode string                     `json:"verification_purpose_code"`
	Status                  entity.VerificationStatus  `json:"status"`
	AttemptCount            int                        `json:"attempt_count"`
	ExpiresAt               time.Time                  `json:"expires_at"`
	VerifiedAt              *time.Time                 `json:"verified_at,omitempty"`
	VerificationPurpose     *VerificationPurposeDTO    `json:"verification_purpose,omitempty"`
	CreatedAt               time.Time                  `json:"created_at"`
	UpdatedAt               time.Time                  `json:"updated_at"`
}

// Page is one page of a list query.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func NewVerificationPurposeDTO(p *entity.VerificationPurpose) *VerificationPurposeDTO {
	if p == nil {
		return nil
	}
	return &VerificationPurposeDTO{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewVerificationDTO(v *entity.Verification) *VerificationDTO {
	if v == nil {
		return nil
	}
	return &VerificationDTO{
		ID:                      v.ID,
		UserID:                  v.UserID,
		Channel:                 v.Channel,
		Destination:             v.Destination,
		VerificationCode:        v.VerificationCode,
		VerificationPurposeCode: v.VerificationPurposeCode,
		Status:                  v.Status,
		AttemptCount:            v.AttemptCount,
		ExpiresAt:               v.ExpiresAt,
		VerifiedAt:              v.VerifiedAt,
		VerificationPurpose:     NewVerificationPurposeDTO(v.VerificationPurpose),
		CreatedAt:               v.CreatedAt,
		UpdatedAt:               v.UpdatedAt,
	}
}

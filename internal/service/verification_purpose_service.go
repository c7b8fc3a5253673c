package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
	"github.com/yourusername/verification-api/internal/validation"
	"github.com/yourusername/verification-api/pkg/logger"
)

// VerificationPurposeService is the registry of verification purposes.
type VerificationPurposeService struct {
	purposes  repository.VerificationPurposeRepository
	validator validation.Validator
}

func NewVerificationPurposeService(purposes repository.VerificationPurposeRepository, validator validation.Validator) (*VerificationPurposeService, error) {
	if purposes == nil {
		return nil, fmt.Errorf("verification purpose repository is required")
	}
	if validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	return &VerificationPurposeService{purposes: purposes, validator: validator}, nil
}

// CreateIfNotExists returns the purpose stored under id unchanged, or creates it from req.
// It never updates an existing purpose; req is ignored when id is already taken.
func (s *VerificationPurposeService) CreateIfNotExists(ctx context.Context, id uuid.UUID, req CreateVerificationPurposeRequest) (*VerificationPurposeDTO, error) {
	if err := validationFailed(s.validator.Validate(req)); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, &ValidationError{Errors: []validation.FieldError{{
			Field:   "id",
			Message: "Field 'id' is required",
			Code:    "validation_required",
		}}}
	}

	existing, err := s.purposes.GetByID(ctx, id)
	if err == nil {
		return NewVerificationPurposeDTO(existing), nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	purpose := &entity.VerificationPurpose{
		ID:          id,
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    isActive,
	}
	if err := s.purposes.Create(ctx, purpose); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		// A concurrent call may have created the same id between the read and the insert.
		if winner, getErr := s.purposes.GetByID(ctx, id); getErr == nil {
			return NewVerificationPurposeDTO(winner), nil
		}
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"purpose_id": purpose.ID,
		"code":       purpose.Code,
	}).Info("[VerificationPurposeService] purpose created")
	return NewVerificationPurposeDTO(purpose), nil
}

// Update applies the non-nil fields of req to the purpose stored under id.
func (s *VerificationPurposeService) Update(ctx context.Context, id uuid.UUID, req UpdateVerificationPurposeRequest) (*VerificationPurposeDTO, error) {
	if err := validationFailed(s.validator.Validate(req)); err != nil {
		return nil, err
	}

	purpose, err := s.purposes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Code != nil {
		purpose.Code = *req.Code
	}
	if req.Name != nil {
		purpose.Name = *req.Name
	}
	if req.Description != nil {
		purpose.Description = *req.Description
	}
	if req.IsActive != nil {
		purpose.IsActive = *req.IsActive
	}

	if err := s.purposes.Update(ctx, purpose); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"purpose_id": purpose.ID,
		"code":       purpose.Code,
	}).Info("[VerificationPurposeService] purpose updated")
	return NewVerificationPurposeDTO(purpose), nil
}

func (s *VerificationPurposeService) GetByID(ctx context.Context, id uuid.UUID) (*VerificationPurposeDTO, error) {
	p, err := s.purposes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewVerificationPurposeDTO(p), nil
}

func (s *VerificationPurposeService) GetByCode(ctx context.Context, code string) (*VerificationPurposeDTO, error) {
	p, err := s.purposes.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return NewVerificationPurposeDTO(p), nil
}

func (s *VerificationPurposeService) List(ctx context.Context, q repository.ListQuery) (*Page[VerificationPurposeDTO], error) {
	opts, err := q.Resolve(repository.VerificationPurposeFields)
	if err != nil {
		return nil, listQueryError(err)
	}

	items, total, err := s.purposes.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	page := &Page[VerificationPurposeDTO]{
		Items:  make([]VerificationPurposeDTO, 0, len(items)),
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	for i := range items {
		page.Items = append(page.Items, *NewVerificationPurposeDTO(&items[i]))
	}
	return page, nil
}

// SeedPurpose is a purpose registered at startup under a fixed id.
type SeedPurpose struct {
	ID      uuid.UUID
	Request CreateVerificationPurposeRequest
}

// SeedDefaults registers every seed through CreateIfNotExists, so reruns are no-ops.
func (s *VerificationPurposeService) SeedDefaults(ctx context.Context, seeds []SeedPurpose) error {
	for _, seed := range seeds {
		if _, err := s.CreateIfNotExists(ctx, seed.ID, seed.Request); err != nil {
			return fmt.Errorf("failed to seed verification purpose %s: %w", seed.Request.Code, err)
		}
	}
	return nil
}

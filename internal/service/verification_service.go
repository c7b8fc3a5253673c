package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
	"github.com/yourusername/verification-api/internal/events"
	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
	"github.com/yourusername/verification-api/internal/validation"
	"github.com/yourusername/verification-api/pkg/logger"
)

const defaultCodeTTL = 10 * time.Minute

// CodeDispatcher delivers a persisted verification code to its destination.
type CodeDispatcher interface {
	SendVerificationCode(ctx context.Context, v *entity.Verification) error
}

// CompletionEmitter records completion facts transactionally and pushes them to the bus.
type CompletionEmitter interface {
	Record(ctx context.Context, fact events.VerificationCompleted) (*entity.OutboxEvent, error)
	Deliver(ctx context.Context, event *entity.OutboxEvent) error
}

type VerificationOptions struct {
	// CodeTTL is the lifetime of a code when the caller does not supply ExpiresAt.
	CodeTTL time.Duration
	// EnforceUserScope makes IsCodeValid and GetByCode match on user id as well as code.
	EnforceUserScope bool
}

// VerificationService owns the verification lifecycle: issue, inspect, verify.
type VerificationService struct {
	verifications repository.VerificationRepository
	tx            repository.Transactor
	validator     validation.Validator
	dispatcher    CodeDispatcher
	emitter       CompletionEmitter
	opts          VerificationOptions

	now          func() time.Time
	generateCode func() (string, error)
}

func NewVerificationService(
	verifications repository.VerificationRepository,
	tx repository.Transactor,
	validator validation.Validator,
	dispatcher CodeDispatcher,
	emitter CompletionEmitter,
	opts VerificationOptions,
) (*VerificationService, error) {
	if verifications == nil {
		return nil, fmt.Errorf("verification repository is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transactor is required")
	}
	if validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("code dispatcher is required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("completion emitter is required")
	}
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = defaultCodeTTL
	}

	return &VerificationService{
		verifications: verifications,
		tx:            tx,
		validator:     validator,
		dispatcher:    dispatcher,
		emitter:       emitter,
		opts:          opts,
		now:           time.Now,
		generateCode:  GenerateVerificationCode,
	}, nil
}

// CreateVerification persists a new PENDING record with a fresh code. Nothing is sent.
func (s *VerificationService) CreateVerification(ctx context.Context, req CreateVerificationRequest) (*VerificationDTO, error) {
	v, err := s.create(ctx, req, "verification_purpose_code")
	if err != nil {
		return nil, err
	}
	return NewVerificationDTO(v), nil
}

// SendVerification creates an EMAIL verification and dispatches the code. When dispatch fails
// the record stays PENDING and is returned together with an error wrapping ErrNotificationFailed.
func (s *VerificationService) SendVerification(ctx context.Context, req SendVerificationRequest) (*VerificationDTO, error) {
	if err := validationFailed(s.validator.Validate(req)); err != nil {
		return nil, err
	}

	v, err := s.create(ctx, CreateVerificationRequest{
		UserID:                  req.UserID,
		Channel:                 entity.VerificationChannelEmail,
		Destination:             req.Destination,
		VerificationPurposeCode: req.PurposeCode,
		ExpiresAt:               req.ExpiresAt,
	}, "purpose_code")
	if err != nil {
		return nil, err
	}

	if err := s.dispatcher.SendVerificationCode(ctx, v); err != nil {
		logger.Log.WithError(err).WithField("verification_id", v.ID).Warn("[VerificationService] code dispatch failed, record kept pending")
		return NewVerificationDTO(v), fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	return NewVerificationDTO(v), nil
}

// ResendVerification dispatches the code of a still usable record again over its own channel.
func (s *VerificationService) ResendVerification(ctx context.Context, id uuid.UUID) (*VerificationDTO, error) {
	v, err := s.verifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.IsUsable(s.now()) {
		return nil, ErrInvalidOrExpiredCode
	}
	if err := s.dispatcher.SendVerificationCode(ctx, v); err != nil {
		return NewVerificationDTO(v), fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	return NewVerificationDTO(v), nil
}

// IsCodeValid reports whether code belongs to a PENDING, unexpired record.
func (s *VerificationService) IsCodeValid(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	now := s.now()
	filter := s.scoped(userID, repository.VerificationFilter{
		Code:     code,
		Status:   entity.VerificationStatusPending,
		ActiveAt: &now,
	})

	_, err := s.verifications.FindFirst(ctx, filter)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByCode looks a record up by code regardless of status or expiry. A miss is (nil, nil).
func (s *VerificationService) GetByCode(ctx context.Context, userID uuid.UUID, code string) (*VerificationDTO, error) {
	v, err := s.verifications.FindFirst(ctx, s.scoped(userID, repository.VerificationFilter{Code: code}))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return NewVerificationDTO(v), nil
}

// Verify moves the oldest usable record with code to VERIFIED and records a completion
// fact in the same transaction. The fact is published after commit; a failed publish
// is left to the outbox relay and does not fail the call.
func (s *VerificationService) Verify(ctx context.Context, code string) (*VerificationDTO, error) {
	now := s.now()

	var (
		verified *entity.Verification
		event    *entity.OutboxEvent
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		v, err := s.verifications.MarkVerified(ctx, code, now)
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrInvalidOrExpiredCode
		}
		if err != nil {
			return err
		}

		ev, err := s.emitter.Record(ctx, events.NewVerificationCompleted(v, now))
		if err != nil {
			return err
		}
		verified, event = v, ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"verification_id": verified.ID,
		"user_id":         verified.UserID,
		"purpose":         verified.VerificationPurposeCode,
	}).Info("[VerificationService] verification completed")

	if err := s.emitter.Deliver(ctx, event); err != nil {
		logger.Log.WithError(err).WithField("event_id", event.ID).Warn("[VerificationService] completion event not published, relay will retry")
	}
	return NewVerificationDTO(verified), nil
}

func (s *VerificationService) GetByID(ctx context.Context, id uuid.UUID) (*VerificationDTO, error) {
	v, err := s.verifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewVerificationDTO(v), nil
}

func (s *VerificationService) ListVerifications(ctx context.Context, q repository.ListQuery) (*Page[VerificationDTO], error) {
	opts, err := q.Resolve(repository.VerificationFields)
	if err != nil {
		return nil, listQueryError(err)
	}

	items, total, err := s.verifications.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	page := &Page[VerificationDTO]{
		Items:  make([]VerificationDTO, 0, len(items)),
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	for i := range items {
		page.Items = append(page.Items, *NewVerificationDTO(&items[i]))
	}
	return page, nil
}

// create persists a PENDING record. purposeField names the request field reported when the purpose is unknown.
func (s *VerificationService) create(ctx context.Context, req CreateVerificationRequest, purposeField string) (*entity.Verification, error) {
	if err := validationFailed(s.validator.Validate(req)); err != nil {
		return nil, err
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.opts.CodeTTL)
	if req.ExpiresAt != nil {
		expiresAt = *req.ExpiresAt
	}

	v := &entity.Verification{
		UserID:                  req.UserID,
		Channel:                 req.Channel,
		Destination:             req.Destination,
		VerificationCode:        code,
		VerificationPurposeCode: req.VerificationPurposeCode,
		Status:                  entity.VerificationStatusPending,
		AttemptCount:            0,
		ExpiresAt:               expiresAt,
	}
	if err := s.verifications.Create(ctx, v); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			return nil, &ValidationError{Errors: []validation.FieldError{{
				Field:   purposeField,
				Message: fmt.Sprintf("Verification purpose '%s' does not exist", req.VerificationPurposeCode),
				Code:    "validation_exists",
			}}}
		}
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"verification_id": v.ID,
		"channel":         v.Channel,
		"purpose":         v.VerificationPurposeCode,
	}).Info("[VerificationService] verification created")
	return v, nil
}

func (s *VerificationService) scoped(userID uuid.UUID, filter repository.VerificationFilter) repository.VerificationFilter {
	if s.opts.EnforceUserScope {
		filter.UserID = userID
	}
	return filter
}

func listQueryError(err error) error {
	if errors.Is(err, repository.ErrUnknownField) {
		return &ValidationError{Errors: []validation.FieldError{{
			Field:   "query",
			Message: err.Error(),
			Code:    "validation_unknown_field",
		}}}
	}
	if errors.Is(err, repository.ErrInvalidFilterValue) {
		return &ValidationError{Errors: []validation.FieldError{{
			Field:   "query",
			Message: err.Error(),
			Code:    "validation_invalid_filter",
		}}}
	}
	return err
}

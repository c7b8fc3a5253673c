package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/verification-api/internal/domain/entity"
)

// VerificationFilter is the lookup predicate for a single verification record.
// Zero-valued fields are not applied.
type VerificationFilter struct {
	Code   string
	UserID uuid.UUID
	Status entity.VerificationStatus
	// ActiveAt restricts the match to records with expires_at strictly after it.
	ActiveAt *time.Time
}

// VerificationRepository persists verification records.
type VerificationRepository interface {
	Create(ctx context.Context, verification *entity.Verification) error
	// GetByID returns apperrors.ErrNotFound when no record exists.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Verification, error)
	// FindFirst returns the oldest record matching filter, or apperrors.ErrNotFound.
	FindFirst(ctx context.Context, filter VerificationFilter) (*entity.Verification, error)
	// MarkVerified atomically moves the oldest PENDING record with code that is unexpired at now
	// to VERIFIED, stamping verified_at and incrementing attempt_count. Returns apperrors.ErrNotFound
	// when nothing matched; in that case nothing is written.
	MarkVerified(ctx context.Context, code string, now time.Time) (*entity.Verification, error)
	List(ctx context.Context, opts ListOptions) ([]entity.Verification, int64, error)
}

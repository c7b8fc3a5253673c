package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/verification-api/internal/domain/entity"
)

// VerificationPurposeRepository persists verification purposes.
type VerificationPurposeRepository interface {
	// Create returns apperrors.ErrConflict when the id or the purpose code is already taken.
	Create(ctx context.Context, purpose *entity.VerificationPurpose) error
	// Update returns apperrors.ErrNotFound for an unknown id and apperrors.ErrConflict for a taken code.
	Update(ctx context.Context, purpose *entity.VerificationPurpose) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.VerificationPurpose, error)
	GetByCode(ctx context.Context, code string) (*entity.VerificationPurpose, error)
	List(ctx context.Context, opts ListOptions) ([]entity.VerificationPurpose, int64, error)
}

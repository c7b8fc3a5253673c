package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
)

// VerificationPurposeRepo implements repository.VerificationPurposeRepository
type VerificationPurposeRepo struct {
	db *gorm.DB
}

func NewVerificationPurposeRepo(db *gorm.DB) *VerificationPurposeRepo {
	return &VerificationPurposeRepo{db: db}
}

func (r *VerificationPurposeRepo) Create(ctx context.Context, purpose *entity.VerificationPurpose) error {
	// Select all columns so an explicit IsActive=false is not replaced by the column default.
	err := conn(ctx, r.db).Select("*").Create(purpose).Error
	if err != nil {
		return purposeWriteError(err, purpose, "failed to create verification purpose")
	}
	return nil
}

// Update writes every mutable column of purpose. Renaming a code still referenced by verifications
// is rejected by the foreign key and reported as a conflict.
func (r *VerificationPurposeRepo) Update(ctx context.Context, purpose *entity.VerificationPurpose) error {
	result := conn(ctx, r.db).Model(purpose).
		Select("code", "name", "description", "is_active", "updated_at").
		Updates(purpose)
	if result.Error != nil {
		return purposeWriteError(result.Error, purpose, "failed to update verification purpose")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func purposeWriteError(err error, purpose *entity.VerificationPurpose, op string) error {
	switch {
	case isUniqueViolation(err) && violatedConstraint(err) == purposePrimaryKey:
		return fmt.Errorf("%w: verification purpose %s already exists", apperrors.ErrConflict, purpose.ID)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: verification purpose code %q already exists", apperrors.ErrConflict, purpose.Code)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: verification purpose code is still referenced by verifications", apperrors.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *VerificationPurposeRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.VerificationPurpose, error) {
	var p entity.VerificationPurpose
	if err := conn(ctx, r.db).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFoundOr(err, "failed to get verification purpose by id")
	}
	return &p, nil
}

func (r *VerificationPurposeRepo) GetByCode(ctx context.Context, code string) (*entity.VerificationPurpose, error) {
	var p entity.VerificationPurpose
	if err := conn(ctx, r.db).Where("code = ?", code).First(&p).Error; err != nil {
		return nil, notFoundOr(err, "failed to get verification purpose by code")
	}
	return &p, nil
}

func (r *VerificationPurposeRepo) List(ctx context.Context, opts repository.ListOptions) ([]entity.VerificationPurpose, int64, error) {
	q := applyFilters(conn(ctx, r.db).Model(&entity.VerificationPurpose{}), opts)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count verification purposes: %w", err)
	}

	var items []entity.VerificationPurpose
	err := q.Order(orderClause(opts)).
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list verification purposes: %w", err)
	}
	return items, total, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
)

// VerificationRepo implements repository.VerificationRepository
type VerificationRepo struct {
	db *gorm.DB
}

func NewVerificationRepo(db *gorm.DB) *VerificationRepo {
	return &VerificationRepo{db: db}
}

func (r *VerificationRepo) Create(ctx context.Context, verification *entity.Verification) error {
	if err := conn(ctx, r.db).Create(verification).Error; err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: verification purpose %q does not exist", apperrors.ErrValidation, verification.VerificationPurposeCode)
		}
		return fmt.Errorf("failed to create verification: %w", err)
	}
	return nil
}

func (r *VerificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Verification, error) {
	var v entity.Verification
	err := conn(ctx, r.db).
		Preload("VerificationPurpose").
		Where("id = ?", id).
		First(&v).Error
	if err != nil {
		return nil, notFoundOr(err, "failed to get verification by id")
	}
	return &v, nil
}

func (r *VerificationRepo) FindFirst(ctx context.Context, filter repository.VerificationFilter) (*entity.Verification, error) {
	q := conn(ctx, r.db).Model(&entity.Verification{})
	if filter.Code != "" {
		q = q.Where("verification_code = ?", filter.Code)
	}
	if filter.UserID != uuid.Nil {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ActiveAt != nil {
		q = q.Where("expires_at > ?", *filter.ActiveAt)
	}

	var v entity.Verification
	if err := q.Order("created_at ASC").First(&v).Error; err != nil {
		return nil, notFoundOr(err, "failed to find verification")
	}
	return &v, nil
}

// MarkVerified runs a single conditional UPDATE ... RETURNING. The candidate row is picked and
// locked by a sub-select (FOR UPDATE SKIP LOCKED), so of two concurrent calls for the same code
// only one can flip the row; the other sees no PENDING match and gets ErrNotFound.
func (r *VerificationRepo) MarkVerified(ctx context.Context, code string, now time.Time) (*entity.Verification, error) {
	db := conn(ctx, r.db)

	candidate := db.Session(&gorm.Session{NewDB: true}).
		Model(&entity.Verification{}).
		Select("id").
		Where("verification_code = ? AND status = ? AND expires_at > ?", code, entity.VerificationStatusPending, now).
		Order("created_at ASC").
		Limit(1).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})

	var v entity.Verification
	result := db.Model(&v).
		Clauses(clause.Returning{}).
		Where("id = (?)", candidate).
		Where("status = ?", entity.VerificationStatusPending).
		Updates(map[string]interface{}{
			"status":        entity.VerificationStatusVerified,
			"verified_at":   now,
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"updated_at":    now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to mark verification verified: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &v, nil
}

func (r *VerificationRepo) List(ctx context.Context, opts repository.ListOptions) ([]entity.Verification, int64, error) {
	q := applyFilters(conn(ctx, r.db).Model(&entity.Verification{}), opts)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count verifications: %w", err)
	}

	var items []entity.Verification
	err := q.Order(orderClause(opts)).
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list verifications: %w", err)
	}
	return items, total, nil
}

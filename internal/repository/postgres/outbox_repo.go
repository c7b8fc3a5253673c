package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
)

// OutboxRepo implements repository.OutboxRepository
type OutboxRepo struct {
	db *gorm.DB
}

func NewOutboxRepo(db *gorm.DB) *OutboxRepo {
	return &OutboxRepo{db: db}
}

func (r *OutboxRepo) Create(ctx context.Context, event *entity.OutboxEvent) error {
	if err := conn(ctx, r.db).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// ClaimUnpublished leases a batch in one UPDATE ... RETURNING. Rows locked by a concurrent claim
// are skipped, and the lease keeps other replicas off the batch while it is being published
// outside any transaction.
func (r *OutboxRepo) ClaimUnpublished(ctx context.Context, claim repository.OutboxClaim) ([]entity.OutboxEvent, error) {
	db := conn(ctx, r.db)

	candidates := db.Session(&gorm.Session{NewDB: true}).
		Model(&entity.OutboxEvent{}).
		Select("id").
		Where("published_at IS NULL AND created_at < ? AND (claimed_until IS NULL OR claimed_until < ?)", claim.CreatedBefore, claim.Now).
		Order("created_at ASC").
		Limit(claim.Limit).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})

	var events []entity.OutboxEvent
	err := db.Model(&events).
		Clauses(clause.Returning{}).
		Where("id IN (?)", candidates).
		Update("claimed_until", claim.Until).Error
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox events: %w", err)
	}

	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events, nil
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := conn(ctx, r.db).Model(&entity.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"published_at": at,
			"attempts":     gorm.Expr("attempts + 1"),
			"last_error":   "",
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark outbox event %s published: %w", id, err)
	}
	return nil
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	err := conn(ctx, r.db).Model(&entity.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark outbox event %s failed: %w", id, err)
	}
	return nil
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/verification-api/internal/domain/entity"
)

// OutboxRepository stores facts that still have to reach the event bus.
type OutboxRepository interface {
	Create(ctx context.Context, event *entity.OutboxEvent) error
	// ClaimUnpublished leases up to claim.Limit unpublished, unclaimed events created before
	// claim.CreatedBefore until claim.Until and returns them oldest first. The claim is a single
	// statement; no lock outlives it.
	ClaimUnpublished(ctx context.Context, claim OutboxClaim) ([]entity.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
	// MarkFailed increments the attempt counter and records the last publish error.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// OutboxClaim selects outbox rows for one relay pass.
type OutboxClaim struct {
	CreatedBefore time.Time
	Now           time.Time
	Until         time.Time
	Limit         int
}

// Transactor runs fn as a single unit of work. Repositories called with the ctx passed to fn
// take part in the transaction; returning an error from fn rolls everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

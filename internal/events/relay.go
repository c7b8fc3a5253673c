package events

import (
	"context"
	"time"

	"github.com/yourusername/verification-api/internal/domain/repository"
	"github.com/yourusername/verification-api/pkg/logger"
)

const defaultClaimLease = time.Minute

// Relay republishes outbox rows that were recorded but never reached the bus.
// Rows younger than one interval are left to the post-commit delivery of the request that wrote them.
type Relay struct {
	emitter   *Emitter
	outbox    repository.OutboxRepository
	interval  time.Duration
	batchSize int
	lease     time.Duration
	now       func() time.Time
}

func NewRelay(emitter *Emitter, outbox repository.OutboxRepository, interval time.Duration, batchSize int) *Relay {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Relay{
		emitter:   emitter,
		outbox:    outbox,
		interval:  interval,
		batchSize: batchSize,
		lease:     defaultClaimLease,
		now:       time.Now,
	}
}

// Run drains the outbox every interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Log.Infof("[Relay] started, interval %s, batch %d", r.interval, r.batchSize)
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("[Relay] stopped")
			return
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				logger.Log.WithError(err).Error("[Relay] relay pass failed")
			}
		}
	}
}

// RelayOnce claims one batch and publishes it, returning how many events reached the bus.
// Publishing happens outside any transaction; each row is marked by its own statement.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	now := r.now().UTC()
	pending, err := r.outbox.ClaimUnpublished(ctx, repository.OutboxClaim{
		CreatedBefore: now.Add(-r.interval),
		Now:           now,
		Until:         now.Add(r.lease),
		Limit:         r.batchSize,
	})
	if err != nil {
		return 0, err
	}

	published := 0
	for i := range pending {
		if err := r.emitter.Deliver(ctx, &pending[i]); err != nil {
			logger.Log.WithError(err).WithField("event_id", pending[i].ID).Warn("[Relay] publish failed, will retry")
			continue
		}
		published++
	}
	if published > 0 {
		logger.Log.Infof("[Relay] republished %d outbox events", published)
	}
	return published, nil
}

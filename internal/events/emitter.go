package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
	"github.com/yourusername/verification-api/pkg/logger"
)

const TopicVerificationCompleted = "verification.completed"

// VerificationCompleted is the fact published after a successful verify.
// JSON field names are part of the consumer contract.
type VerificationCompleted struct {
	VerificationID uuid.UUID `json:"VerificationId"`
	UserID         uuid.UUID `json:"UserId"`
	Email          string    `json:"Email"`
	PurposeCode    string    `json:"PurposeCode"`
	CompletedAt    time.Time `json:"CompletedAt"`
	IsSuccessful   bool      `json:"IsSuccessful"`
}

// NewVerificationCompleted builds the fact for a record that was just verified.
func NewVerificationCompleted(v *entity.Verification, completedAt time.Time) VerificationCompleted {
	return VerificationCompleted{
		VerificationID: v.ID,
		UserID:         v.UserID,
		Email:          v.Destination,
		PurposeCode:    v.VerificationPurposeCode,
		CompletedAt:    completedAt.UTC(),
		IsSuccessful:   true,
	}
}

// Emitter records completion facts in the outbox and pushes them to the event bus.
type Emitter struct {
	publisher Publisher
	outbox    repository.OutboxRepository
	topic     string
	now       func() time.Time
}

func NewEmitter(publisher Publisher, outbox repository.OutboxRepository, topic string) *Emitter {
	if topic == "" {
		topic = TopicVerificationCompleted
	}
	return &Emitter{
		publisher: publisher,
		outbox:    outbox,
		topic:     topic,
		now:       time.Now,
	}
}

// Record writes the fact to the outbox. Call it with a transactional ctx so the
// row commits or rolls back together with the state change.
func (e *Emitter) Record(ctx context.Context, fact VerificationCompleted) (*entity.OutboxEvent, error) {
	payload, err := json.Marshal(fact)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", e.topic, err)
	}
	event := &entity.OutboxEvent{
		Topic:     e.topic,
		Payload:   string(payload),
		CreatedAt: e.now().UTC(),
	}
	if err := e.outbox.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Deliver publishes a recorded event and marks it published. A failed publish is
// recorded on the row and returned; the relay retries it later.
func (e *Emitter) Deliver(ctx context.Context, event *entity.OutboxEvent) error {
	if event == nil {
		return errors.New("outbox event is nil")
	}
	if event.IsPublished() {
		return nil
	}

	if err := e.publisher.Publish(ctx, event.Topic, []byte(event.Payload)); err != nil {
		if markErr := e.outbox.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			logger.Log.WithError(markErr).WithField("event_id", event.ID).Error("[Emitter] failed to record publish failure")
		}
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	at := e.now().UTC()
	if err := e.outbox.MarkPublished(ctx, event.ID, at); err != nil {
		// Already on the bus; the relay may publish it again.
		logger.Log.WithError(err).WithField("event_id", event.ID).Warn("[Emitter] published but could not mark outbox row")
		return nil
	}
	event.PublishedAt = &at

	logger.Log.WithFields(logrus.Fields{
		"event_id": event.ID,
		"topic":    event.Topic,
	}).Debug("[Emitter] event published")
	return nil
}

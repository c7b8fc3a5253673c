package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxEvent is a fact recorded in the same transaction as the state change that produced it.
// It stays unpublished (PublishedAt == nil) until a publish to the event bus succeeds.
type OutboxEvent struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Topic       string     `gorm:"size:100;not null" json:"topic"`
	Payload     string     `gorm:"type:text;not null" json:"payload"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	LastError   string     `gorm:"type:text" json:"last_error,omitempty"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
	// ClaimedUntil is the relay lease; an unpublished row is up for grabs again once it passes.
	ClaimedUntil *time.Time `json:"claimed_until,omitempty"`
	CreatedAt    time.Time  `gorm:"not null;index" json:"created_at"`
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}

func (e *OutboxEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *OutboxEvent) IsPublished() bool {
	return e.PublishedAt != nil
}

package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationChannel is the delivery medium of a verification code.
type VerificationChannel string

const (
	VerificationChannelEmail VerificationChannel = "EMAIL"
	VerificationChannelSMS   VerificationChannel = "SMS"
)

// IsValid reports whether c is a known channel.
func (c VerificationChannel) IsValid() bool {
	switch c {
	case VerificationChannelEmail, VerificationChannelSMS:
		return true
	}
	return false
}

// VerificationStatus is the lifecycle state of a verification record.
// Only PENDING and VERIFIED are ever persisted; expiry is derived from ExpiresAt at read time.
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "PENDING"
	VerificationStatusVerified VerificationStatus = "VERIFIED"
	VerificationStatusFailed   VerificationStatus = "FAILED"
	VerificationStatusExpired  VerificationStatus = "EXPIRED"
)

// IsValid reports whether s is a known status.
func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationStatusPending, VerificationStatusVerified, VerificationStatusFailed, VerificationStatusExpired:
		return true
	}
	return false
}

// Verification is a single issued one-time code bound to a user, a destination and a purpose.
type Verification struct {
	ID                      uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                  uuid.UUID            `gorm:"type:uuid;not null;index:idx_verifications_user_purpose_status,priority:1" json:"user_id"`
	Channel                 VerificationChannel  `gorm:"type:varchar(20);not null" json:"channel"`
	Destination             string               `gorm:"size:255;not null" json:"destination"`
	VerificationCode        string               `gorm:"size:10;not null;index" json:"verification_code"`
	VerificationPurposeCode string               `gorm:"size:50;not null;index:idx_verifications_user_purpose_status,priority:2" json:"verification_purpose_code"`
	Status                  VerificationStatus   `gorm:"type:varchar(20);not null;default:PENDING;index:idx_verifications_user_purpose_status,priority:3" json:"status"`
	AttemptCount            int                  `gorm:"not null;default:0" json:"attempt_count"`
	ExpiresAt               time.Time            `gorm:"not null;index" json:"expires_at"`
	VerifiedAt              *time.Time           `json:"verified_at,omitempty"`
	VerificationPurpose     *VerificationPurpose `gorm:"foreignKey:VerificationPurposeCode;references:Code;constraint:OnDelete:RESTRICT" json:"verification_purpose,omitempty"`
	CreatedAt               time.Time            `json:"created_at"`
	UpdatedAt               time.Time            `json:"updated_at"`
}

func (Verification) TableName() string {
	return "verifications"
}

// BeforeCreate assigns an ID when the caller did not supply one.
func (v *Verification) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the code can no longer be used at now.
func (v *Verification) IsExpired(now time.Time) bool {
	return !v.ExpiresAt.After(now)
}

// IsUsable is the validity predicate shared by every read path: PENDING and not yet expired.
func (v *Verification) IsUsable(now time.Time) bool {
	return v.Status == VerificationStatusPending && !v.IsExpired(now)
}

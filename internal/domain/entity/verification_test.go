package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var mockTx *gorm.DB = nil

func TestVerification_BeforeCreate_AssignsID(t *testing.T) {
	v := &Verification{}
	require.NoError(t, v.BeforeCreate(mockTx))
	assert.NotEqual(t, uuid.Nil, v.ID)
}

func TestVerification_BeforeCreate_KeepsExistingID(t *testing.T) {
	id := uuid.New()
	v := &Verification{ID: id}
	require.NoError(t, v.BeforeCreate(mockTx))
	assert.Equal(t, id, v.ID)
}

func TestVerificationPurpose_BeforeCreate_KeepsCallerID(t *testing.T) {
	id := uuid.New()
	p := &VerificationPurpose{ID: id, Code: "REGISTRATION"}
	require.NoError(t, p.BeforeCreate(mockTx))
	assert.Equal(t, id, p.ID)
}

func TestVerification_IsUsable(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status VerificationStatus
		expire time.Time
		want   bool
	}{
		{"pending and unexpired", VerificationStatusPending, now.Add(time.Minute), true},
		{"pending but expired", VerificationStatusPending, now.Add(-time.Second), false},
		{"pending expiring exactly now", VerificationStatusPending, now, false},
		{"already verified", VerificationStatusVerified, now.Add(time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Verification{Status: tt.status, ExpiresAt: tt.expire}
			assert.Equal(t, tt.want, v.IsUsable(now))
		})
	}
}

func TestVerificationChannel_IsValid(t *testing.T) {
	assert.True(t, VerificationChannelEmail.IsValid())
	assert.True(t, VerificationChannelSMS.IsValid())
	assert.False(t, VerificationChannel("PIGEON").IsValid())
	assert.False(t, VerificationChannel("").IsValid())
}

func TestOutboxEvent_IsPublished(t *testing.T) {
	e := &OutboxEvent{}
	assert.False(t, e.IsPublished())
	now := time.Now()
	e.PublishedAt = &now
	assert.True(t, e.IsPublished())
}

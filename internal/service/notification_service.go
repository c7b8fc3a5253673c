package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/notify"
	"github.com/yourusername/verification-api/pkg/logger"
)

const (
	verificationSubject      = "🔐 Verify Your Account"
	verificationPrimaryColor = "#28a745"
)

// NotificationService composes verification-code messages and routes them to the notifier of the record's channel.
type NotificationService struct {
	notifiers map[entity.VerificationChannel]notify.Notifier
	now       func() time.Time
}

func NewNotificationService(email, sms notify.Notifier) (*NotificationService, error) {
	if email == nil {
		return nil, fmt.Errorf("email notifier is required")
	}
	if sms == nil {
		return nil, fmt.Errorf("sms notifier is required")
	}
	return &NotificationService{
		notifiers: map[entity.VerificationChannel]notify.Notifier{
			entity.VerificationChannelEmail: email,
			entity.VerificationChannelSMS:   sms,
		},
		now: time.Now,
	}, nil
}

// SendVerificationCode delivers v's code to its destination. ExpiryMinutes is the whole
// number of minutes left at dispatch time.
func (s *NotificationService) SendVerificationCode(ctx context.Context, v *entity.Verification) error {
	notifier, ok := s.notifiers[v.Channel]
	if !ok {
		return fmt.Errorf("no notifier for channel %q", v.Channel)
	}

	now := s.now()
	expiryMinutes := int(v.ExpiresAt.Sub(now).Minutes())
	if expiryMinutes < 0 {
		expiryMinutes = 0
	}

	msg := notify.Message{
		To:           v.Destination,
		Subject:      verificationSubject,
		Theme:        notify.ThemeVerificationCode,
		PrimaryColor: verificationPrimaryColor,
		Model: map[string]interface{}{
			"VerificationCode": v.VerificationCode,
			"ExpiryMinutes":    expiryMinutes,
		},
		IdempotencyKey: fmt.Sprintf("verification:%s:%d", v.ID, now.UnixNano()),
	}

	if err := notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send verification code over %s: %w", v.Channel, err)
	}

	logger.Log.WithFields(logrus.Fields{
		"verification_id": v.ID,
		"channel":         v.Channel,
	}).Info("[NotificationService] verification code dispatched")
	return nil
}

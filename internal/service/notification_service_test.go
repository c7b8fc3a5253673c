package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/notify"
)

func newNotificationServiceForTest(t *testing.T, email, sms notify.Notifier) *NotificationService {
	t.Helper()
	svc, err := NewNotificationService(email, sms)
	require.NoError(t, err)
	svc.now = fixedClock
	return svc
}

func TestNotificationService_ComposesVerificationMessage(t *testing.T) {
	v := pendingVerification("654321", testNow.Add(9*time.Minute+59*time.Second))

	email := new(MockNotifier)
	email.On("Send", mock.Anything, mock.MatchedBy(func(msg notify.Message) bool {
		return msg.To == "a@b.com" &&
			msg.Subject == "🔐 Verify Your Account" &&
			msg.Theme == notify.ThemeVerificationCode &&
			msg.PrimaryColor == "#28a745" &&
			msg.Model["VerificationCode"] == "654321" &&
			msg.Model["ExpiryMinutes"] == 9 &&
			strings.HasPrefix(msg.IdempotencyKey, "verification:"+v.ID.String())
	})).Return(nil).Once()
	sms := new(MockNotifier)

	require.NoError(t, newNotificationServiceForTest(t, email, sms).SendVerificationCode(context.Background(), v))
	email.AssertExpectations(t)
	sms.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestNotificationService_RoutesSMS(t *testing.T) {
	v := pendingVerification("654321", testNow.Add(5*time.Minute))
	v.Channel = entity.VerificationChannelSMS
	v.Destination = "+15550001111"

	email := new(MockNotifier)
	sms := new(MockNotifier)
	sms.On("Send", mock.Anything, mock.MatchedBy(func(msg notify.Message) bool {
		return msg.To == "+15550001111"
	})).Return(nil).Once()

	require.NoError(t, newNotificationServiceForTest(t, email, sms).SendVerificationCode(context.Background(), v))
	sms.AssertExpectations(t)
	email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestNotificationService_SurfacesNotifierError(t *testing.T) {
	v := pendingVerification("654321", testNow.Add(5*time.Minute))
	email := new(MockNotifier)
	email.On("Send", mock.Anything, mock.Anything).Return(errors.New("mailbox unavailable")).Once()

	err := newNotificationServiceForTest(t, email, new(MockNotifier)).SendVerificationCode(context.Background(), v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailbox unavailable")
}

func TestNotificationService_UnknownChannel(t *testing.T) {
	v := pendingVerification("654321", testNow.Add(5*time.Minute))
	v.Channel = "PIGEON"

	err := newNotificationServiceForTest(t, new(MockNotifier), new(MockNotifier)).SendVerificationCode(context.Background(), v)
	assert.Error(t, err)
}

func TestNewNotificationService_RequiresNotifiers(t *testing.T) {
	_, err := NewNotificationService(nil, new(MockNotifier))
	assert.Error(t, err)
	_, err = NewNotificationService(new(MockNotifier), nil)
	assert.Error(t, err)
}

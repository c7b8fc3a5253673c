package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/yourusername/verification-api/pkg/logger"
)

const resendMaxAttempts = 3

// resendEmails is the part of the Resend client the notifier uses.
type resendEmails interface {
	SendWithOptions(ctx context.Context, params *resend.SendEmailRequest, options *resend.SendEmailOptions) (*resend.SendEmailResponse, error)
}

// ResendNotifier sends email via the Resend REST API.
type ResendNotifier struct {
	from     string
	emails   resendEmails
	renderer *Renderer
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewResendNotifier(apiKey, from string, renderer *Renderer) (*ResendNotifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	return &ResendNotifier{
		from:     from,
		emails:   resend.NewClient(apiKey).Emails,
		renderer: renderer,
		sleep:    sleepCtx,
	}, nil
}

// Send renders msg and posts it, retrying rate-limited and temporary failures.
// The idempotency key keeps retries from producing duplicate emails.
func (n *ResendNotifier) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient is required")
	}

	html, err := n.renderer.RenderHTML(msg)
	if err != nil {
		return err
	}
	text, err := n.renderer.RenderText(msg)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    text,
		Html:    html,
	}
	options := &resend.SendEmailOptions{}
	if strings.TrimSpace(msg.IdempotencyKey) != "" {
		options.IdempotencyKey = strings.TrimSpace(msg.IdempotencyKey)
	}

	var lastErr error
	for attempt := 0; attempt < resendMaxAttempts; attempt++ {
		_, err := n.emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			logger.Log.WithError(err).Warnf("[ResendNotifier] send to %s failed, retrying in %s", msg.To, wait)
			if err := n.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

package notify

import (
	"context"
	"errors"
)

// ErrUnknownTheme is returned when a message names a theme the renderer has no template for.
var ErrUnknownTheme = errors.New("unknown message theme")

// Message is a transport-neutral notification. Theme selects the template; Model feeds it.
// IdempotencyKey is honoured by transports that support it.
type Message struct {
	To             string
	Subject        string
	Theme          string
	PrimaryColor   string
	Model          map[string]interface{}
	IdempotencyKey string
}

// Notifier delivers a Message over one transport (email, SMS, ...).
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

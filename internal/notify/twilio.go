package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type smsCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioNotifier sends the plain-text rendering of a message as an SMS.
type TwilioNotifier struct {
	api      smsCreator
	from     string
	renderer *Renderer
}

func NewTwilioNotifier(accountSID, authToken, fromPhone string, renderer *Renderer) (*TwilioNotifier, error) {
	if accountSID == "" || authToken == "" {
		return nil, fmt.Errorf("twilio account sid and auth token are required")
	}
	if fromPhone == "" {
		return nil, fmt.Errorf("twilio from phone is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifier{api: client.Api, from: fromPhone, renderer: renderer}, nil
}

func (n *TwilioNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := n.renderer.RenderText(msg)
	if err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(n.from)
	params.SetBody(body)

	if _, err := n.api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send sms via twilio: %w", err)
	}
	return nil
}

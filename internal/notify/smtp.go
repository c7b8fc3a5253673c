package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends email through an SMTP relay.
type SMTPNotifier struct {
	dialer   mailDialer
	from     string
	renderer *Renderer
}

func NewSMTPNotifier(host string, port int, user, password, from string, renderer *Renderer) (*SMTPNotifier, error) {
	if host == "" || port == 0 {
		return nil, fmt.Errorf("smtp host and port are required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	return &SMTPNotifier{
		dialer:   gomail.NewDialer(host, port, user, password),
		from:     from,
		renderer: renderer,
	}, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	html, err := n.renderer.RenderHTML(msg)
	if err != nil {
		return err
	}
	text, err := n.renderer.RenderText(msg)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via smtp: %w", err)
	}
	return nil
}

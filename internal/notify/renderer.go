package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

const ThemeVerificationCode = "VerificationCode"

const defaultPrimaryColor = "#28a745"

var htmlThemes = map[string]string{
	ThemeVerificationCode: `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background: #f6f6f6; padding: 24px;">
  <div style="max-width: 480px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 24px;">
    <h2 style="color: {{.PrimaryColor}}; margin-top: 0;">{{.Subject}}</h2>
    <p>Your verification code is:</p>
    <p style="font-size: 32px; letter-spacing: 6px; font-weight: bold; color: {{.PrimaryColor}};">{{index .Model "VerificationCode"}}</p>
    <p>It expires in {{index .Model "ExpiryMinutes"}} minutes.</p>
    <p style="color: #888888; font-size: 12px;">If you did not request this code, you can ignore this message.</p>
  </div>
</body>
</html>`,
}

var textThemes = map[string]string{
	ThemeVerificationCode: `Your verification code is {{index .Model "VerificationCode"}}. It expires in {{index .Model "ExpiryMinutes"}} minutes.`,
}

// Renderer turns a Message into HTML and plain-text bodies using its theme.
type Renderer struct {
	html map[string]*htmltemplate.Template
	text map[string]*texttemplate.Template
}

// NewRenderer parses the built-in themes.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		html: make(map[string]*htmltemplate.Template, len(htmlThemes)),
		text: make(map[string]*texttemplate.Template, len(textThemes)),
	}
	for name, src := range htmlThemes {
		tmpl, err := htmltemplate.New(name).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse html theme %s: %w", name, err)
		}
		r.html[name] = tmpl
	}
	for name, src := range textThemes {
		tmpl, err := texttemplate.New(name).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse text theme %s: %w", name, err)
		}
		r.text[name] = tmpl
	}
	return r, nil
}

func (r *Renderer) RenderHTML(msg Message) (string, error) {
	tmpl, ok := r.html[msg.Theme]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTheme, msg.Theme)
	}
	if msg.PrimaryColor == "" {
		msg.PrimaryColor = defaultPrimaryColor
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, msg); err != nil {
		return "", fmt.Errorf("failed to render html theme %s: %w", msg.Theme, err)
	}
	return buf.String(), nil
}

func (r *Renderer) RenderText(msg Message) (string, error) {
	tmpl, ok := r.text[msg.Theme]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTheme, msg.Theme)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, msg); err != nil {
		return "", fmt.Errorf("failed to render text theme %s: %w", msg.Theme, err)
	}
	return buf.String(), nil
}

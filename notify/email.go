package notify

import (
	"context"
	"fmt"
	"os"

	"github.com/dkarlsen/yochiwatch/config"
	gomail "gopkg.in/gomail.v2"
)

// passwordEnv names the environment variable holding the app-specific mail
// password. It is never read from config and never logged.
const passwordEnv = "GMAIL_APP_PASSWORD"

// Email sends deal alerts over SMTP, addressed back to the sender account.
type Email struct {
	cfg      config.Email
	password string
}

// NewEmail builds the email channel, picking the password up from the
// process environment.
func NewEmail(cfg config.Email) *Email {
	return &Email{cfg: cfg, password: os.Getenv(passwordEnv)}
}

// Name identifies the channel in logs and metrics.
func (*Email) Name() string {
	return "email"
}

// Send submits one plain-text message; title is the subject line.
// gomail dials per call, so a dead SMTP server costs one connection attempt.
func (e *Email) Send(_ context.Context, title, body string) error {
	if e.cfg.SenderEmail == "" {
		return fmt.Errorf("%w: sender email not set", ErrNotConfigured)
	}
	if e.password == "" {
		return fmt.Errorf("%w: %s not set", ErrNotConfigured, passwordEnv)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", e.cfg.SenderEmail, e.cfg.SenderName)
	m.SetHeader("To", e.cfg.SenderEmail)
	m.SetHeader("Subject", title)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(e.cfg.SMTPServer, e.cfg.SMTPPort, e.cfg.SenderEmail, e.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// Package notify delivers composed digests to users over email and Telegram.
// Senders are constructed explicitly and injected, never pulled from globals.
package notify

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/prwee/prwee/internal/config"
)

// EmailSender delivers HTML mail through the configured SMTP relay.
type EmailSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailSender(cfg config.SMTPConfig) *EmailSender {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &EmailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		from:   from,
	}
}

// Send delivers one HTML message. Each call dials a fresh SMTP session, which
// keeps the sender safe for concurrent use.
func (s *EmailSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("notify: send email to %s: %w", to, err)
	}
	return nil
}

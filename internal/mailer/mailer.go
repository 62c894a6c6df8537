// Package mailer delivers transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"cgms.org/internal/config"
	"cgms.org/internal/obs"
)

// SMTP sends messages through a configured SMTP relay.
type SMTP struct {
	client *mail.Client
	from   string
}

// New builds an SMTP mailer from config. Call Verify once at startup to
// fail fast on bad credentials.
func New(cfg config.SMTP) (*SMTP, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Port),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTP{client: client, from: from}, nil
}

// Verify dials the relay and disconnects, proving the configuration works.
func (s *SMTP) Verify(ctx context.Context, dialTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := s.client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	return s.client.Close()
}

func (s *SMTP) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// SendVerificationCode implements identity.Notifier.
func (s *SMTP) SendVerificationCode(ctx context.Context, email, code string, ttl time.Duration) error {
	subject, body := verificationMessage(code, ttl)
	return s.send(ctx, email, subject, body)
}

// SendDepartmentCredentials implements department.CredentialsNotifier.
func (s *SMTP) SendDepartmentCredentials(ctx context.Context, email, name, password string) error {
	subject, body := credentialsMessage(name, email, password)
	return s.send(ctx, email, subject, body)
}

// LogOnly stands in when SMTP is not configured. It records deliveries in
// the structured log instead of sending anything, which keeps local
// development working without a relay. Codes and passwords are not logged.
type LogOnly struct{}

func (LogOnly) SendVerificationCode(ctx context.Context, email, code string, ttl time.Duration) error {
	obs.LogEntry(map[string]any{
		"level": "warn",
		"msg":   "smtp not configured, dropping verification code",
		"email": email,
	})
	return nil
}

func (LogOnly) SendDepartmentCredentials(ctx context.Context, email, name, password string) error {
	obs.LogEntry(map[string]any{
		"level":      "warn",
		"msg":        "smtp not configured, dropping department credentials",
		"email":      email,
		"department": name,
	})
	return nil
}

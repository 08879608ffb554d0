// Package mail provides outbound email delivery. Failures are returned to
// callers, who choose the policy: registration, login and reminder paths
// log and continue, while the password-reset request path surfaces the
// failure to the requester.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jwhitfield/taskward/internal/config"
)

// Message is a single outbound email.
type Message struct {
	Subject string
	Body    string
	From    string
	To      []string
}

// Sender attempts delivery of a message. A nil error means the message was
// handed off to the mail host; a non-nil error means delivery failed.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg Message) error

// Send implements the Sender interface.
func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// SMTPSender delivers mail over SMTP with PLAIN authentication.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
}

// Ensure SMTPSender implements Sender interface
var _ Sender = (*SMTPSender)(nil)

// NewSMTPSender creates an SMTP-backed sender from the mail configuration.
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: cfg.From,
	}
}

// DefaultFrom returns the configured sender address, used by callers that
// construct messages without an explicit From.
func (s *SMTPSender) DefaultFrom() string {
	return s.from
}

// Send implements the Sender interface.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := msg.From
	if from == "" {
		from = s.from
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}

	raw := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		from,
		strings.Join(msg.To, ", "),
		msg.Subject,
		msg.Body,
	))

	if err := smtp.SendMail(s.addr, s.auth, from, msg.To, raw); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// Package mailer sends transactional email.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/souqly/storefront-backend/pkg/config"
	"github.com/souqly/storefront-backend/pkg/logger"
)

// Message is one outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns a SendGrid sender when an API key is configured and a logging
// sender otherwise.
func New(cfg config.SendgridConfig, logg *logger.Logger) Sender {
	if !cfg.Enabled() {
		return NewLogSender(logg)
	}
	return NewSendgridSender(cfg)
}

// SendgridSender delivers through the SendGrid v3 API.
type SendgridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendgridSender builds a SendGrid-backed sender.
func NewSendgridSender(cfg config.SendgridConfig) *SendgridSender {
	return &SendgridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.DefaultFrom),
	}
}

func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	html := msg.HTML
	if html == "" {
		html = "<pre>" + msg.Text + "</pre>"
	}
	email := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.Text, html)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logg *logger.Logger
}

// NewLogSender builds a sender for environments without email credentials.
func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"to":      msg.To,
			"subject": msg.Subject,
		}), "mailer.message_logged")
	}
	return nil
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("mail recipient is empty")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("mail subject is empty")
	}
	return nil
}

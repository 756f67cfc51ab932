package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	mailgun "github.com/mailgun/mailgun-go/v5"
)

// MailgunSender sends messages through the Mailgun HTTP API.
type MailgunSender struct {
	cfg    Config
	mg     mailgun.Mailgun
	logger *slog.Logger
}

// NewMailgunSender constructs a MailgunSender. When mg is nil and the
// configuration carries an API key, a default client is created.
func NewMailgunSender(cfg Config, mg mailgun.Mailgun, logger *slog.Logger) (*MailgunSender, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if mg == nil && strings.TrimSpace(cfg.Mailgun.APIKey) != "" {
		mg = mailgun.NewMailgun(cfg.Mailgun.APIKey)
		if base := strings.TrimSpace(cfg.Mailgun.APIBase); base != "" {
			if err := mg.SetAPIBase(base); err != nil {
				return nil, fmt.Errorf("mailgun api base: %w", err)
			}
		}
	}
	return &MailgunSender{cfg: cfg, mg: mg, logger: logger}, nil
}

// Send delivers msg via Mailgun.
func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	if err := s.cfg.Check(); err != nil {
		return err
	}
	if s.mg == nil {
		return configErr("mailgun client is not initialised")
	}

	msg = msg.normalized()
	if msg.To == "" {
		return configErr("recipient is empty")
	}

	message := mailgun.NewMessage(s.cfg.Mailgun.Domain, s.cfg.from(), msg.Subject, msg.Text)
	if err := message.AddRecipient(msg.To); err != nil {
		return configErr("add recipient: %v", err)
	}
	for _, cc := range msg.Cc {
		message.AddCC(cc)
	}
	if msg.HTML != "" {
		message.SetHTML(msg.HTML)
	}
	if msg.ReplyTo != "" {
		message.SetReplyTo(msg.ReplyTo)
	}

	ctx, cancel := withTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if _, err := s.mg.Send(ctx, message); err != nil {
		s.logger.Error("send email", "provider", ProviderMailgun, "domain", s.cfg.Mailgun.Domain, "error", err)
		return &TransportError{Provider: ProviderMailgun, Err: err}
	}

	s.logger.Info("email sent", "provider", ProviderMailgun, "to", msg.To)
	return nil
}

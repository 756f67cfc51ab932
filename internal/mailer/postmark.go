package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mrz1836/postmark"
)

// PostmarkSender sends messages through Postmark's transactional API.
type PostmarkSender struct {
	cfg    Config
	client *postmark.Client
	logger *slog.Logger
}

// NewPostmarkSender constructs a PostmarkSender. A nil client is replaced
// with one built from the configured tokens.
func NewPostmarkSender(cfg Config, client *postmark.Client, logger *slog.Logger) *PostmarkSender {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = postmark.NewClient(cfg.Postmark.ServerToken, cfg.Postmark.AccountToken)
	}
	return &PostmarkSender{cfg: cfg, client: client, logger: logger}
}

// Send delivers msg via Postmark.
func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if err := s.cfg.Check(); err != nil {
		return err
	}

	msg = msg.normalized()
	if msg.To == "" {
		return configErr("recipient is empty")
	}

	ctx, cancel := withTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.cfg.from(),
		To:       msg.To,
		Cc:       strings.Join(msg.Cc, ","),
		ReplyTo:  msg.ReplyTo,
		Subject:  msg.Subject,
		HTMLBody: msg.HTML,
		TextBody: msg.Text,
	})
	if err == nil && resp.ErrorCode > 0 {
		err = fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	if err != nil {
		s.logger.Error("send email", "provider", ProviderPostmark, "error", err)
		return &TransportError{Provider: ProviderPostmark, Err: err}
	}

	s.logger.Info("email sent", "provider", ProviderPostmark, "to", msg.To, "id", resp.MessageID)
	return nil
}

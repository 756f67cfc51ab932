package mailer

import (
	"context"
	"log/slog"
)

// New returns the Sender for cfg.Provider. It never fails: an unusable
// configuration yields a Sender whose every call reports the problem, so the
// site keeps serving pages while contact submissions fail with a 500.
func New(cfg Config, logger *slog.Logger) Sender {
	switch cfg.ProviderName() {
	case ProviderGmail, ProviderSMTP:
		return NewSMTPSender(cfg, logger)
	case ProviderMailgun:
		s, err := NewMailgunSender(cfg, nil, logger)
		if err != nil {
			return unavailable{err: &ConfigurationError{Reason: err.Error()}}
		}
		return s
	case ProviderPostmark:
		return NewPostmarkSender(cfg, nil, logger)
	default:
		return unavailable{err: cfg.Check()}
	}
}

type unavailable struct {
	err error
}

func (u unavailable) Send(context.Context, Message) error {
	return u.err
}

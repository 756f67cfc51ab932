package mailer

import (
	"strings"
	"time"
)

// Provider names accepted by MAIL_PROVIDER.
const (
	ProviderGmail    = "gmail"
	ProviderSMTP     = "smtp"
	ProviderMailgun  = "mailgun"
	ProviderPostmark = "postmark"
)

// DefaultFromName is the display name used when GMAIL_FROM_NAME is unset.
const DefaultFromName = "Portfolio Contact"

// Config selects and configures the mail provider. Field tags are read by
// github.com/caarlos0/env.
type Config struct {
	Provider string `env:"MAIL_PROVIDER" envDefault:"gmail"`
	// Account is the sender mailbox and the recipient fallback.
	Account  string        `env:"GMAIL_USER"`
	FromName string        `env:"GMAIL_FROM_NAME" envDefault:"Portfolio Contact"`
	Timeout  time.Duration `env:"MAIL_TIMEOUT" envDefault:"10s"`

	SMTP     SMTPConfig
	Mailgun  MailgunConfig
	Postmark PostmarkConfig
}

// SMTPConfig holds SMTP submission settings. Gmail uses the same settings
// with its fixed host.
type SMTPConfig struct {
	Host        string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	Port        int    `env:"SMTP_PORT" envDefault:"587"`
	AppPassword string `env:"GMAIL_APP_PASSWORD"`
}

// MailgunConfig holds Mailgun API credentials.
type MailgunConfig struct {
	Domain  string `env:"MAILGUN_DOMAIN"`
	APIKey  string `env:"MAILGUN_API_KEY"`
	APIBase string `env:"MAILGUN_API_BASE"`
}

// PostmarkConfig holds Postmark API tokens.
type PostmarkConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
}

// ProviderName returns the normalised provider, defaulting to gmail.
func (c Config) ProviderName() string {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	if p == "" {
		return ProviderGmail
	}
	return p
}

// Check reports the first missing setting for the selected provider.
func (c Config) Check() error {
	if strings.TrimSpace(c.Account) == "" {
		return configErr("GMAIL_USER (sender account) must be set")
	}

	switch c.ProviderName() {
	case ProviderGmail, ProviderSMTP:
		if strings.TrimSpace(c.SMTP.AppPassword) == "" {
			return configErr("GMAIL_USER and GMAIL_APP_PASSWORD must be set")
		}
		if strings.TrimSpace(c.SMTP.Host) == "" {
			return configErr("SMTP_HOST must be set")
		}
	case ProviderMailgun:
		if strings.TrimSpace(c.Mailgun.Domain) == "" || strings.TrimSpace(c.Mailgun.APIKey) == "" {
			return configErr("MAILGUN_DOMAIN and MAILGUN_API_KEY must be set")
		}
		if strings.Contains(c.Mailgun.Domain, "://") {
			return configErr("MAILGUN_DOMAIN must not include a URL scheme")
		}
	case ProviderPostmark:
		if strings.TrimSpace(c.Postmark.ServerToken) == "" {
			return configErr("POSTMARK_SERVER_TOKEN must be set")
		}
	default:
		return configErr("unknown provider %q", c.Provider)
	}

	return nil
}

func (c Config) from() string {
	name := c.FromName
	if strings.TrimSpace(name) == "" {
		name = DefaultFromName
	}
	return fromAddress(name, c.Account)
}

// Package mailer delivers composed messages through a configured mail provider.
package mailer

import (
	"context"
	"net/mail"
	"strings"
	"time"
)

// Message is a fully composed outbound email.
type Message struct {
	To      string
	Cc      []string
	ReplyTo string
	Subject string
	HTML    string
	// Text is the plain-text part. When empty it is derived from HTML.
	Text string
}

// Sender delivers a single message. Implementations make at most one provider
// call per invocation and never retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg Message) error

// Send calls f(ctx, msg).
func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

func (m Message) normalized() Message {
	m.To = strings.TrimSpace(m.To)
	m.ReplyTo = strings.TrimSpace(m.ReplyTo)
	m.Subject = strings.TrimSpace(m.Subject)

	cc := make([]string, 0, len(m.Cc))
	for _, addr := range m.Cc {
		if addr = strings.TrimSpace(addr); addr != "" {
			cc = append(cc, addr)
		}
	}
	m.Cc = cc

	if strings.TrimSpace(m.Text) == "" {
		m.Text = PlainText(m.HTML)
	}
	return m
}

// fromAddress formats the display sender as `"Name" <account>`.
func fromAddress(name, account string) string {
	addr := mail.Address{Name: strings.TrimSpace(name), Address: strings.TrimSpace(account)}
	return addr.String()
}

// withTimeout bounds ctx by d; d <= 0 leaves ctx unchanged.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

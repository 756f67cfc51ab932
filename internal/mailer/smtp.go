package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type smtpSendMailFunc func(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender submits mail over SMTP with PLAIN auth, upgrading to STARTTLS
// when the server offers it, which Gmail on 587 always does. The whole
// transaction is bounded by Config.Timeout and the caller's context.
type SMTPSender struct {
	cfg      Config
	name     string
	logger   *slog.Logger
	sendMail smtpSendMailFunc
	now      func() time.Time
}

// NewSMTPSender constructs an SMTP sender. Configuration is checked on every
// Send so a misconfigured server still starts and reports errors per request.
func NewSMTPSender(cfg Config, logger *slog.Logger) *SMTPSender {
	if cfg.SMTP.Port <= 0 {
		cfg.SMTP.Port = 587
	}
	if strings.TrimSpace(cfg.SMTP.Host) == "" && cfg.ProviderName() == ProviderGmail {
		cfg.SMTP.Host = "smtp.gmail.com"
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &SMTPSender{
		cfg:    cfg,
		name:   cfg.ProviderName(),
		logger: logger,
		now:    time.Now,
	}
	s.sendMail = deliverSMTP
	return s
}

// Send delivers msg with a single SMTP transaction.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := s.cfg.Check(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &TransportError{Provider: s.name, Err: err}
	}

	msg = msg.normalized()
	if msg.To == "" {
		return configErr("recipient is empty")
	}

	account := strings.TrimSpace(s.cfg.Account)
	raw := buildMIMEMessage(s.cfg.from(), msg, s.now(), messageIDDomain(account))
	recipients := append([]string{msg.To}, msg.Cc...)
	addr := net.JoinHostPort(s.cfg.SMTP.Host, strconv.Itoa(s.cfg.SMTP.Port))
	auth := smtp.PlainAuth("", account, s.cfg.SMTP.AppPassword, s.cfg.SMTP.Host)

	ctx, cancel := withTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := s.sendMail(ctx, addr, auth, account, recipients, raw); err != nil {
		s.logger.Error("send email", "provider", s.name, "addr", addr, "error", err)
		return &TransportError{Provider: s.name, Err: err}
	}

	s.logger.Info("email sent", "provider", s.name, "to", msg.To)
	return nil
}

// deliverSMTP runs one SMTP transaction on a connection whose deadline follows
// ctx, so a server that stalls at any step cannot hold the request.
func deliverSMTP(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("smtp address: %w", err)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("set deadline: %w", err)
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("greeting: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("end data: %w", err)
	}
	return c.Quit()
}

func buildMIMEMessage(from string, msg Message, now time.Time, domain string) []byte {
	boundary := "alt-" + strings.ReplaceAll(uuid.NewString(), "-", "")

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	if len(msg.Cc) > 0 {
		b.WriteString("Cc: " + strings.Join(msg.Cc, ", ") + "\r\n")
	}
	if msg.ReplyTo != "" {
		b.WriteString("Reply-To: " + msg.ReplyTo + "\r\n")
	}
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString(fmt.Sprintf("Message-ID: <%s@%s>\r\n", uuid.NewString(), domain))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", boundary))
	b.WriteString("\r\n")

	writePart(&b, boundary, "text/plain", msg.Text)
	if msg.HTML != "" {
		writePart(&b, boundary, "text/html", msg.HTML)
	}
	b.WriteString("--" + boundary + "--\r\n")

	return []byte(b.String())
}

func writePart(b *strings.Builder, boundary, contentType, body string) {
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: " + contentType + "; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	b.WriteString("\r\n")
}

func messageIDDomain(account string) string {
	if i := strings.LastIndexByte(account, '@'); i >= 0 && i < len(account)-1 {
		return account[i+1:]
	}
	return "localhost"
}

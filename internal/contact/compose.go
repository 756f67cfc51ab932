package contact

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/devswami/portfolio/internal/mailer"
)

var bodyTemplate = template.Must(template.New("contact").Parse(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
      <h2 style="color: #333;">New Contact Form Submission</h2>
      <div style="background-color: #f5f5f5; padding: 20px; border-radius: 5px; margin: 20px 0;">
        <p><strong>Name:</strong> {{.Name}}</p>
        <p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
        <p><strong>Message:</strong></p>
        <div style="background-color: white; padding: 15px; border-left: 4px solid #007bff; margin-top: 10px;">
          {{.Message}}
        </div>
      </div>
      <p style="color: #666; font-size: 12px; margin-top: 20px;">
        This email was sent from your portfolio contact form.
      </p>
    </div>
`))

type bodyData struct {
	Name    string
	Email   string
	Message template.HTML
}

// Addressing holds the mailbox settings used to route contact mail.
type Addressing struct {
	// Recipient receives submissions; when empty Account is used.
	Recipient string
	// Account is the sending mailbox.
	Account string
}

// Destination resolves the recipient address.
func (a Addressing) Destination() (string, error) {
	if to := strings.TrimSpace(a.Recipient); to != "" {
		return to, nil
	}
	if to := strings.TrimSpace(a.Account); to != "" {
		return to, nil
	}
	return "", &mailer.ConfigurationError{Reason: "Recipient email not configured"}
}

// Compose renders the notification email for a validated submission. The
// submitter is copied so replies reach both parties.
func Compose(sub Submission, addr Addressing) (mailer.Message, error) {
	to, err := addr.Destination()
	if err != nil {
		return mailer.Message{}, err
	}

	var buf bytes.Buffer
	err = bodyTemplate.Execute(&buf, bodyData{
		Name:    sub.Name,
		Email:   sub.Email,
		Message: messageHTML(sub.Message),
	})
	if err != nil {
		return mailer.Message{}, fmt.Errorf("render contact email: %w", err)
	}

	return mailer.Message{
		To:      to,
		Cc:      []string{sub.Email},
		Subject: "New Contact Form Submission from " + sub.Name,
		HTML:    buf.String(),
	}, nil
}

// messageHTML escapes the message and turns each line break into <br>.
func messageHTML(message string) template.HTML {
	message = strings.ReplaceAll(message, "\r\n", "\n")
	escaped := template.HTMLEscapeString(message)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

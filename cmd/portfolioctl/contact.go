package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/devswami/portfolio/internal/contact"
	"github.com/devswami/portfolio/internal/form"
)

func newContactCommand() *cobra.Command {
	var (
		apiURL  string
		name    string
		email   string
		message string
		timeout time.Duration
	)

	defaultURL := strings.TrimSpace(os.Getenv("API_URL"))
	if defaultURL == "" {
		defaultURL = form.DefaultAPIURL
	}

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a contact message through a running server",
		Long: `Validates the message locally, posts it to {api-url}/api/contact and
prints the server's answer. Use --message - to read the message from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if message == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read message: %w", err)
				}
				message = string(data)
			}

			client := form.NewClient(apiURL)
			client.HTTPClient.Timeout = timeout

			f := form.New(client, form.WithBannerTimeout(0))
			f.Change(contact.FieldName, name)
			f.Change(contact.FieldEmail, email)
			f.Change(contact.FieldMessage, message)

			err := f.Submit(cmd.Context())
			view := f.View()
			out := cmd.OutOrStdout()

			var vErr *contact.ValidationError
			switch {
			case err == nil:
				fmt.Fprintln(out, "Message sent. Thank you!")
				return nil
			case errors.As(err, &vErr):
				for _, field := range contact.Fields {
					if msg := view.Error(field); msg != "" {
						fmt.Fprintf(out, "%s: %s\n", field, msg)
					}
				}
				return errors.New("message not sent: fix the fields above")
			default:
				fmt.Fprintln(out, view.ErrorMessage)
				return err
			}
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", defaultURL, "base URL of the portfolio API")
	cmd.Flags().StringVar(&name, "name", "", "your name")
	cmd.Flags().StringVar(&email, "email", "", "your email address")
	cmd.Flags().StringVar(&message, "message", "", `message body, or "-" for stdin`)
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")

	return cmd
}

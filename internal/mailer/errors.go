package mailer

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches any *ConfigurationError.
	ErrConfiguration = errors.New("mail configuration error")
	// ErrTransport matches any *TransportError.
	ErrTransport = errors.New("Failed to send email")
)

// ConfigurationError reports missing or invalid provider settings. It is
// returned before any network call is attempted.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("mail configuration: %s", e.Reason)
}

// Is lets errors.Is match ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// TransportError wraps a provider failure. Its message is deliberately generic;
// the provider detail is available through Unwrap for logging.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return ErrTransport.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func configErr(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

package contact

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/devswami/portfolio/internal/mailer"
)

// Outcomes reported to a Recorder.
const (
	OutcomeSent    = "sent"
	OutcomeInvalid = "invalid"
	OutcomeConfig  = "config_error"
	OutcomeFailed  = "transport_error"
)

// Submitter accepts a submission and delivers it.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) error
}

// Recorder observes submission outcomes.
type Recorder interface {
	ObserveSubmission(outcome string, took time.Duration)
}

// Service validates a submission, composes the notification and hands it to
// the mail transport. One email per accepted submission, sent synchronously.
type Service struct {
	addr     Addressing
	sender   mailer.Sender
	logger   *slog.Logger
	recorder Recorder
}

// NewService constructs a Service. recorder may be nil.
func NewService(addr Addressing, sender mailer.Sender, logger *slog.Logger, recorder Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{addr: addr, sender: sender, logger: logger, recorder: recorder}
}

// Submit runs the pipeline. Errors are *ValidationError,
// *mailer.ConfigurationError or *mailer.TransportError.
func (s *Service) Submit(ctx context.Context, sub Submission) error {
	start := time.Now()

	if res := ValidateSubmission(sub); !res.Valid {
		s.logger.DebugContext(ctx, "contact submission rejected", "errors", res.Errors)
		s.observe(OutcomeInvalid, start)
		return &ValidationError{Errors: res.Errors}
	}

	msg, err := Compose(sub, s.addr)
	if err != nil {
		s.logger.ErrorContext(ctx, "compose contact email", "error", err)
		s.observe(OutcomeConfig, start)
		return err
	}

	if s.sender == nil {
		err := &mailer.ConfigurationError{Reason: "no mail transport configured"}
		s.logger.ErrorContext(ctx, "contact email not sent", "error", err)
		s.observe(OutcomeConfig, start)
		return err
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, mailer.ErrConfiguration) {
			outcome = OutcomeConfig
			s.logger.ErrorContext(ctx, "contact email not sent", "error", err)
		}
		s.observe(outcome, start)
		return err
	}

	s.logger.InfoContext(ctx, "contact email sent", "from", sub.Email)
	s.observe(OutcomeSent, start)
	return nil
}

func (s *Service) observe(outcome string, start time.Time) {
	if s.recorder != nil {
		s.recorder.ObserveSubmission(outcome, time.Since(start))
	}
}

// Package form models the contact form a visitor fills in: field values,
// per-field errors, touched flags and the submission lifecycle.
package form

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/devswami/portfolio/internal/contact"
)

// FallbackError is shown when a failure carries no usable server message.
const FallbackError = "Failed to send message. Please try again later."

// SuccessBannerTimeout is how long the success banner stays visible.
const SuccessBannerTimeout = 5 * time.Second

// ErrBusy is returned when a submission is already in flight.
var ErrBusy = errors.New("form: submission already in progress")

// View is a snapshot of the form for rendering.
type View struct {
	Values       contact.Submission
	Errors       contact.FieldErrors
	Touched      map[string]bool
	State        State
	Submitting   bool
	Success      bool
	ErrorMessage string
}

// Error returns the message for field, if any.
func (v View) Error(field string) string {
	return v.Errors[field]
}

// Form is safe for concurrent use. Each instance owns its state; there is no
// sharing between forms.
type Form struct {
	mu sync.Mutex

	values  contact.Submission
	errors  contact.FieldErrors
	touched map[string]bool
	state   State
	success bool
	failure string

	submitter   Submitter
	clock       Clock
	bannerAfter time.Duration
	hideTimer   Timer
	// hideGen identifies the live banner timer; callbacks carrying an older
	// value fired after being stopped and are ignored.
	hideGen uint64
}

// Option configures a Form.
type Option func(*Form)

// WithClock replaces the clock used for the success banner timer.
func WithClock(c Clock) Option {
	return func(f *Form) {
		if c != nil {
			f.clock = c
		}
	}
}

// WithBannerTimeout overrides the success banner duration. Zero keeps the
// banner until the next submit.
func WithBannerTimeout(d time.Duration) Option {
	return func(f *Form) { f.bannerAfter = d }
}

// New returns an empty form bound to submitter.
func New(submitter Submitter, opts ...Option) *Form {
	f := &Form{
		errors:      emptyErrors(),
		touched:     map[string]bool{},
		state:       StateIdle,
		submitter:   submitter,
		clock:       realClock{},
		bannerAfter: SuccessBannerTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func emptyErrors() contact.FieldErrors {
	return contact.FieldErrors{contact.FieldName: "", contact.FieldEmail: "", contact.FieldMessage: ""}
}

// Change records a new value. A touched field loses its error; the email
// field is re-validated as the visitor types once it has been touched.
func (f *Form) Change(field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.set(field, value) {
		return
	}
	if !f.touched[field] {
		return
	}
	if field == contact.FieldEmail {
		f.errors[field] = contact.ValidateField(field, value)
		return
	}
	f.errors[field] = ""
}

// Blur marks field as touched and validates it.
func (f *Form) Blur(field string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.errors[field]; !ok {
		return
	}
	f.touched[field] = true
	f.errors[field] = contact.ValidateField(field, f.values.Value(field))
}

// Submit validates every field and, when they pass, sends the trimmed values.
// A local rejection returns *contact.ValidationError without any network call.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()

	if f.state == StateSubmitting {
		f.mu.Unlock()
		return ErrBusy
	}
	if err := f.fire(EventSubmit); err != nil {
		f.mu.Unlock()
		return err
	}

	res := contact.ValidateSubmission(f.values)
	f.errors = res.Errors
	for _, field := range contact.Fields {
		f.touched[field] = true
	}

	if !res.Valid {
		_ = f.fire(EventInvalid)
		f.mu.Unlock()
		return &contact.ValidationError{Errors: res.Errors}
	}

	_ = f.fire(EventValid)
	f.failure = ""
	f.success = false
	f.stopTimer()
	sub := f.values.Trimmed()
	f.mu.Unlock()

	err := f.submitter.Submit(ctx, sub)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		_ = f.fire(EventFailed)
		f.failure = failureMessage(err)
		return err
	}

	_ = f.fire(EventAccepted)
	f.values = contact.Submission{}
	f.errors = emptyErrors()
	f.touched = map[string]bool{}
	f.success = true
	if f.bannerAfter > 0 {
		gen := f.hideGen
		f.hideTimer = f.clock.AfterFunc(f.bannerAfter, func() { f.dismiss(gen) })
	}
	return nil
}

// View returns a copy of the current form state.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := make(contact.FieldErrors, len(f.errors))
	for k, v := range f.errors {
		errs[k] = v
	}
	touched := make(map[string]bool, len(f.touched))
	for k, v := range f.touched {
		touched[k] = v
	}

	return View{
		Values:       f.values,
		Errors:       errs,
		Touched:      touched,
		State:        f.state,
		Submitting:   f.state == StateSubmitting,
		Success:      f.success,
		ErrorMessage: f.failure,
	}
}

func (f *Form) dismiss(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.hideGen {
		return
	}
	f.success = false
	f.hideTimer = nil
	if f.state == StateSuccess {
		_ = f.fire(EventDismiss)
	}
}

func (f *Form) fire(ev Event) error {
	to, err := next(f.state, ev)
	if err != nil {
		return err
	}
	f.state = to
	return nil
}

func (f *Form) stopTimer() {
	f.hideGen++
	if f.hideTimer != nil {
		f.hideTimer.Stop()
		f.hideTimer = nil
	}
}

func (f *Form) set(field, value string) bool {
	switch field {
	case contact.FieldName:
		f.values.Name = value
	case contact.FieldEmail:
		f.values.Email = value
	case contact.FieldMessage:
		f.values.Message = value
	default:
		return false
	}
	return true
}

func failureMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackError
}

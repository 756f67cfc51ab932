package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devswami/portfolio/internal/contact"
)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Duration
	pending []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now + d, fn: f}
	c.pending = append(c.pending, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	rest := c.pending[:0]
	for _, t := range c.pending {
		if !t.stopped && t.at <= c.now {
			due = append(due, t)
			continue
		}
		rest = append(rest, t)
	}
	c.pending = rest
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

type recordingSubmitter struct {
	err   error
	calls []contact.Submission
	block chan struct{}
}

func (r *recordingSubmitter) Submit(_ context.Context, sub contact.Submission) error {
	r.calls = append(r.calls, sub)
	if r.block != nil {
		<-r.block
	}
	return r.err
}

func fill(f *Form, name, email, message string) {
	f.Change(contact.FieldName, name)
	f.Change(contact.FieldEmail, email)
	f.Change(contact.FieldMessage, message)
}

func TestSubmitRejectsLocallyWithoutNetwork(t *testing.T) {
	sub := &recordingSubmitter{}
	f := New(sub)
	fill(f, "Alice", "alice@example.com", "")

	err := f.Submit(context.Background())

	var vErr *contact.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, sub.calls)

	v := f.View()
	assert.Equal(t, StateIdle, v.State)
	assert.Equal(t, contact.MsgMessageRequired, v.Error(contact.FieldMessage))
	assert.Equal(t, "", v.Error(contact.FieldName))
	assert.True(t, v.Touched[contact.FieldName])
	assert.True(t, v.Touched[contact.FieldEmail])
	assert.True(t, v.Touched[contact.FieldMessage])
}

func TestSubmitSuccessClearsAndAutoHides(t *testing.T) {
	clock := &fakeClock{}
	sub := &recordingSubmitter{}
	f := New(sub, WithClock(clock))
	fill(f, "  Alice ", "alice@example.com", " Hi\n")

	require.NoError(t, f.Submit(context.Background()))

	require.Len(t, sub.calls, 1)
	assert.Equal(t, contact.Submission{Name: "Alice", Email: "alice@example.com", Message: "Hi"}, sub.calls[0])

	v := f.View()
	assert.Equal(t, StateSuccess, v.State)
	assert.True(t, v.Success)
	assert.Equal(t, contact.Submission{}, v.Values)
	assert.False(t, v.Errors.Any())
	assert.Empty(t, v.Touched)

	clock.Advance(4 * time.Second)
	assert.True(t, f.View().Success)

	clock.Advance(time.Second)
	v = f.View()
	assert.False(t, v.Success)
	assert.Equal(t, StateIdle, v.State)
}

func TestStaleBannerTimerIsIgnored(t *testing.T) {
	clock := &fakeClock{}
	f := New(&recordingSubmitter{}, WithClock(clock))

	fill(f, "Alice", "alice@example.com", "first")
	require.NoError(t, f.Submit(context.Background()))
	require.Len(t, clock.pending, 1)
	stale := clock.pending[0]

	fill(f, "Alice", "alice@example.com", "second")
	require.NoError(t, f.Submit(context.Background()))
	require.True(t, stale.stopped)

	// A callback that already fired before Stop still runs once.
	stale.fn()

	v := f.View()
	assert.True(t, v.Success, "the second banner must survive the first timer")
	assert.Equal(t, StateSuccess, v.State)

	clock.Advance(SuccessBannerTimeout)
	assert.False(t, f.View().Success)
}

func TestSubmitFailureKeepsValues(t *testing.T) {
	sub := &recordingSubmitter{err: &APIError{StatusCode: 500, Message: "Failed to send email. Please try again later."}}
	f := New(sub)
	fill(f, "Alice", "alice@example.com", "Hi")

	err := f.Submit(context.Background())
	require.Error(t, err)

	v := f.View()
	assert.Equal(t, StateError, v.State)
	assert.Equal(t, "Failed to send email. Please try again later.", v.ErrorMessage)
	assert.Equal(t, contact.Submission{Name: "Alice", Email: "alice@example.com", Message: "Hi"}, v.Values)

	// A local rejection leaves the previous banner in place.
	f.Change(contact.FieldName, "")
	require.Error(t, f.Submit(context.Background()))
	assert.Equal(t, "Failed to send email. Please try again later.", f.View().ErrorMessage)
}

func TestSubmitNetworkFailureUsesFallback(t *testing.T) {
	f := New(&recordingSubmitter{err: &NetworkError{Err: errors.New("connection refused")}})
	fill(f, "Alice", "alice@example.com", "Hi")

	require.Error(t, f.Submit(context.Background()))
	assert.Equal(t, FallbackError, f.View().ErrorMessage)
}

func TestConcurrentSubmitIsRejected(t *testing.T) {
	sub := &recordingSubmitter{block: make(chan struct{})}
	f := New(sub)
	fill(f, "Alice", "alice@example.com", "Hi")

	done := make(chan error, 1)
	go func() { done <- f.Submit(context.Background()) }()

	require.Eventually(t, func() bool { return f.View().Submitting }, time.Second, time.Millisecond)

	assert.ErrorIs(t, f.Submit(context.Background()), ErrBusy)

	close(sub.block)
	require.NoError(t, <-done)
	assert.Len(t, sub.calls, 1)
}

func TestChangeAndBlur(t *testing.T) {
	f := New(&recordingSubmitter{})

	f.Change(contact.FieldEmail, "bad")
	assert.Equal(t, "", f.View().Error(contact.FieldEmail), "untouched fields are not validated")

	f.Blur(contact.FieldEmail)
	assert.Equal(t, contact.MsgEmailInvalid, f.View().Error(contact.FieldEmail))

	f.Change(contact.FieldEmail, "bad@example.com")
	assert.Equal(t, "", f.View().Error(contact.FieldEmail))

	f.Change(contact.FieldEmail, "bad@example")
	assert.Equal(t, contact.MsgEmailInvalid, f.View().Error(contact.FieldEmail))

	f.Blur(contact.FieldName)
	assert.Equal(t, contact.MsgNameRequired, f.View().Error(contact.FieldName))
	f.Change(contact.FieldName, "")
	assert.Equal(t, "", f.View().Error(contact.FieldName), "change clears a touched field's error")

	f.Blur(contact.FieldMessage)
	f.Change(contact.FieldMessage, "   ")
	assert.Equal(t, "", f.View().Error(contact.FieldMessage), "typing in a touched message clears its error")

	f.Change(contact.FieldEmail, "a@b.co ")
	assert.Equal(t, contact.MsgEmailInvalid, f.View().Error(contact.FieldEmail), "live email check sees the raw value")

	f.Change("phone", "123")
	f.Blur("phone")
	_, ok := f.View().Errors["phone"]
	assert.False(t, ok)
}

func TestTransitions(t *testing.T) {
	to, err := next(StateIdle, EventSubmit)
	require.NoError(t, err)
	assert.Equal(t, StateValidating, to)

	_, err = next(StateSubmitting, EventSubmit)
	var nt *NoTransitionError
	require.ErrorAs(t, err, &nt)
	assert.Equal(t, "no transition available from state 'submitting' for event 'submit'", nt.Error())
}

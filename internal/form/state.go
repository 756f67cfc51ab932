package form

import "fmt"

// State is a stage of a submission attempt.
type State string

// Form states.
const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// Name returns the state identifier.
func (s State) Name() string { return string(s) }

// Event triggers a state change.
type Event string

// Form events.
const (
	EventSubmit   Event = "submit"
	EventInvalid  Event = "invalid"
	EventValid    Event = "valid"
	EventAccepted Event = "accepted"
	EventFailed   Event = "failed"
	EventDismiss  Event = "dismiss"
)

// Name returns the event identifier.
func (e Event) Name() string { return string(e) }

// transitions is keyed by current state then event.
var transitions = map[State]map[Event]State{
	StateIdle:       {EventSubmit: StateValidating},
	StateSuccess:    {EventSubmit: StateValidating, EventDismiss: StateIdle},
	StateError:      {EventSubmit: StateValidating},
	StateValidating: {EventInvalid: StateIdle, EventValid: StateSubmitting},
	StateSubmitting: {EventAccepted: StateSuccess, EventFailed: StateError},
}

// NoTransitionError reports an event that is not valid in the current state.
type NoTransitionError struct {
	State State
	Event Event
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.State, e.Event)
}

func next(from State, ev Event) (State, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return from, &NoTransitionError{State: from, Event: ev}
}

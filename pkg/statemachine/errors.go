package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition: from, to and event are required")
	ErrNoTransition      = errors.New("no transition available")
	ErrRejected          = errors.New("transition rejected by guards")
)

// TransitionError reports the state and event a lookup failed for.
// It unwraps to ErrNoTransition or ErrRejected.
type TransitionError struct {
	State string
	Event string
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: state %q, event %q", e.Err, e.State, e.Event)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

func transitionError[S, E comparable](from S, event E, err error) error {
	return &TransitionError{State: fmt.Sprint(from), Event: fmt.Sprint(event), Err: err}
}

package statemachine

import "context"

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Rule defines a state change triggered by an event, with optional guards.
// A rule with AnyState set matches every source state.
type Rule[S, E comparable] struct {
	From     S
	AnyState bool
	Event    E
	To       S
	Guards   []Guard[S, E] // All must pass for the rule to apply
}

// Machine is an immutable transition table.
// It holds no current state: callers pass the persisted state in and store the result,
// so one Machine is safe to share across goroutines and records.
type Machine[S, E comparable] struct {
	exact    map[E]map[S][]Rule[S, E]
	wildcard map[E][]Rule[S, E]
}

// New creates a Machine from the given rules.
// Rules are evaluated in registration order; rules bound to a concrete source
// state take precedence over AnyState rules for the same event.
func New[S, E comparable](rules ...Rule[S, E]) *Machine[S, E] {
	m := &Machine[S, E]{
		exact:    make(map[E]map[S][]Rule[S, E]),
		wildcard: make(map[E][]Rule[S, E]),
	}
	for _, r := range rules {
		m.add(r)
	}
	return m
}

func (m *Machine[S, E]) add(r Rule[S, E]) {
	if r.AnyState {
		m.wildcard[r.Event] = append(m.wildcard[r.Event], r)
		return
	}
	if _, ok := m.exact[r.Event]; !ok {
		m.exact[r.Event] = make(map[S][]Rule[S, E])
	}
	m.exact[r.Event][r.From] = append(m.exact[r.Event][r.From], r)
}

// Next returns the target state for event fired in state from.
// The error wraps ErrNoTransition when no rule matches and ErrRejected when
// rules match but every one is blocked by a guard.
func (m *Machine[S, E]) Next(ctx context.Context, from S, event E, data any) (S, error) {
	candidates := m.candidates(from, event)
	var zero S
	if len(candidates) == 0 {
		return zero, transitionError(from, event, ErrNoTransition)
	}

	// First rule with passing guards wins
	for _, r := range candidates {
		if guardsPass(ctx, r, from, event, data) {
			return r.To, nil
		}
	}
	return zero, transitionError(from, event, ErrRejected)
}

// Can reports whether event may be fired in state from.
func (m *Machine[S, E]) Can(ctx context.Context, from S, event E, data any) bool {
	_, err := m.Next(ctx, from, event, data)
	return err == nil
}

func (m *Machine[S, E]) candidates(from S, event E) []Rule[S, E] {
	var out []Rule[S, E]
	if byState, ok := m.exact[event]; ok {
		out = append(out, byState[from]...)
	}
	return append(out, m.wildcard[event]...)
}

func guardsPass[S, E comparable](ctx context.Context, r Rule[S, E], from S, event E, data any) bool {
	for _, g := range r.Guards {
		if g != nil && !g(ctx, from, event, data) {
			return false
		}
	}
	return true
}

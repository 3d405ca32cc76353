package statemachine

// Builder provides a fluent API for building transition tables.
type Builder[S, E comparable] struct {
	rules   []Rule[S, E]
	current Rule[S, E]
	hasFrom bool
	hasTo   bool
	hasEv   bool
}

// NewBuilder creates a new transition table builder.
func NewBuilder[S, E comparable]() *Builder[S, E] {
	return &Builder[S, E]{}
}

// From sets the starting state for a transition.
func (b *Builder[S, E]) From(state S) *Builder[S, E] {
	b.reset()
	b.current.From = state
	b.hasFrom = true
	return b
}

// FromAny starts a transition that applies to every source state.
func (b *Builder[S, E]) FromAny() *Builder[S, E] {
	b.reset()
	b.current.AnyState = true
	b.hasFrom = true
	return b
}

// When sets the event that triggers a transition.
func (b *Builder[S, E]) When(event E) *Builder[S, E] {
	b.current.Event = event
	b.hasEv = true
	return b
}

// To sets the target state for a transition.
func (b *Builder[S, E]) To(state S) *Builder[S, E] {
	b.current.To = state
	b.hasTo = true
	return b
}

// WithGuard adds a guard function to the current transition.
func (b *Builder[S, E]) WithGuard(guard Guard[S, E]) *Builder[S, E] {
	if guard != nil {
		b.current.Guards = append(b.current.Guards, guard)
	}
	return b
}

// Add finalizes the current transition.
func (b *Builder[S, E]) Add() (*Builder[S, E], error) {
	if !b.hasFrom || !b.hasEv || !b.hasTo {
		return b, ErrInvalidTransition
	}
	b.rules = append(b.rules, b.current)
	b.reset()
	return b, nil
}

// Build returns the constructed machine.
func (b *Builder[S, E]) Build() *Machine[S, E] {
	return New(b.rules...)
}

func (b *Builder[S, E]) reset() {
	b.current = Rule[S, E]{}
	b.hasFrom, b.hasTo, b.hasEv = false, false, false
}

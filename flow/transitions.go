package flow

import (
	"fmt"

	"github.com/amp-labs/amp-flow/match"
)

// Transition is an immutable edge leaving a state. It is guarded by a matcher
// and leads either to a named state or, when Next is empty, out of the flow.
type Transition[C any, E comparable] struct {
	source  State[C, E]
	matcher match.Matcher[E]
	next    string
}

// NewTransition returns a transition from state to next guarded by matcher. A
// nil matcher accepts every event and an empty next ends the flow.
func NewTransition[C any, E comparable](state State[C, E], matcher match.Matcher[E], next string) Transition[C, E] {
	if matcher == nil {
		matcher = match.Always[E]()
	}

	return Transition[C, E]{
		source:  state,
		matcher: matcher,
		next:    next,
	}
}

// NewEndTransition returns a transition that ends the flow when matcher accepts the event.
func NewEndTransition[C any, E comparable](state State[C, E], matcher match.Matcher[E]) Transition[C, E] {
	return NewTransition[C, E](state, matcher, "")
}

// To returns an unconditional transition from state to next.
func To[C any, E comparable](state State[C, E], next string) Transition[C, E] {
	return NewTransition[C, E](state, nil, next)
}

// End returns an unconditional end transition for state.
func End[C any, E comparable](state State[C, E]) Transition[C, E] {
	return NewTransition[C, E](state, nil, "")
}

func (t Transition[C, E]) Source() State[C, E] {
	return t.source
}

func (t Transition[C, E]) Matcher() match.Matcher[E] {
	if t.matcher == nil {
		return match.Always[E]()
	}

	return t.matcher
}

// Next returns the name of the state this transition leads to, or "" for an end transition.
func (t Transition[C, E]) Next() string {
	return t.next
}

func (t Transition[C, E]) IsEnd() bool {
	return t.next == ""
}

// Matches reports whether the transition accepts event.
func (t Transition[C, E]) Matches(event E) bool {
	return t.Matcher().Match(event)
}

// Equal reports whether both transitions leave the same state name under an
// equivalent matcher for the same destination.
func (t Transition[C, E]) Equal(other Transition[C, E]) bool {
	return t.sourceName() == other.sourceName() &&
		t.next == other.next &&
		match.Equal(t.Matcher(), other.Matcher())
}

func (t Transition[C, E]) sourceName() string {
	if t.source == nil {
		return ""
	}

	return t.source.Name()
}

func (t Transition[C, E]) String() string {
	next := t.next
	if t.IsEnd() {
		next = "<end>"
	}

	return fmt.Sprintf("Transition[state=%s, matcher=%s(%s), next=%s]",
		t.sourceName(), t.Matcher().Kind(), t.Matcher(), next)
}

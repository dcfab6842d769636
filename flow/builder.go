package flow

import (
	"fmt"
	"slices"

	"github.com/amp-labs/amp-flow/match"
)

// phase is the last builder call, used to reject malformed call sequences.
type phase int

const (
	phaseIdle phase = iota
	phaseFrom
	phaseOn
	phaseTo
	phaseEnd
)

type call int

const (
	callFrom call = iota
	callOn
	callTo
	callEnd
	callBuild
)

func (c call) String() string {
	return [...]string{"From", "On", "To", "End", "Build"}[c]
}

// illegal maps a (phase, call) pair to the reason it is rejected. Pairs that
// are not listed are legal.
var illegal = map[phase]map[call]string{ //nolint:gochecknoglobals
	phaseIdle: {
		callOn: "no current state, use From or To before On",
		callTo: "no current state, use From and On before To",
	},
	phaseFrom: {
		callFrom:  "waiting for On, To or End",
		callBuild: "waiting for To or End before Build",
	},
	phaseOn: {
		callFrom:  "waiting for To or End before From",
		callOn:    "waiting for To or End after On",
		callBuild: "waiting for To or End before Build",
	},
	phaseEnd: {
		callOn: "no current state, use From or To before On",
		callTo: "no current state, use From and On before To",
	},
}

// Builder assembles transitions with a fluent API and builds an Engine from them.
//
//	engine, err := flow.NewBuilder[*Order, string]("orders").
//		From(validate).On("OK").To(ship).
//		From(validate).On("REJECT*").End(reject).
//		Build()
//
// The first error is kept and returned by Build; later calls are ignored.
// A Builder is not safe for concurrent use.
type Builder[C any, E comparable] struct {
	name        string
	start       string
	phase       phase
	err         error
	pending     State[C, E]
	matcher     match.Matcher[E]
	transitions []Transition[C, E]
	froms       map[string]bool
	ends        map[string]bool
	tos         []State[C, E]
}

// NewBuilder returns a builder for a flow with the given name. An empty name
// is replaced by the name of the first state registered.
func NewBuilder[C any, E comparable](name string) *Builder[C, E] {
	return &Builder[C, E]{
		name:  name,
		froms: make(map[string]bool),
		ends:  make(map[string]bool),
	}
}

func (b *Builder[C, E]) check(c call) bool {
	if b.err != nil {
		return false
	}

	if reason, ok := illegal[b.phase][c]; ok {
		b.err = fmt.Errorf("%w: %s: %s", ErrIllegalOrdering, c, reason)

		return false
	}

	return true
}

func (b *Builder[C, E]) register(state State[C, E]) bool {
	if state == nil {
		b.err = ErrNilState

		return false
	}

	if b.name == "" {
		b.name = state.Name()
	}

	return true
}

func (b *Builder[C, E]) add(t Transition[C, E]) {
	if !slices.ContainsFunc(b.transitions, t.Equal) {
		b.transitions = append(b.transitions, t)
	}

	b.froms[t.source.Name()] = true
}

// From starts a sequence of transitions at state, which must not be an end state.
func (b *Builder[C, E]) From(state State[C, E]) *Builder[C, E] {
	if !b.check(callFrom) || !b.register(state) {
		return b
	}

	if b.ends[state.Name()] {
		b.err = fmt.Errorf("%w: %q cannot be used in From", ErrEndStateAsSource, state.Name())

		return b
	}

	b.pending = state
	b.matcher = nil
	b.phase = phaseFrom

	return b
}

// On guards the pending transition with the matcher a value stands for: a
// pattern for text events, an exact match otherwise.
func (b *Builder[C, E]) On(value E) *Builder[C, E] {
	return b.OnMatcher(match.Value(value))
}

// OnMatcher guards the pending transition with m. Without it, the transition
// accepts every event.
func (b *Builder[C, E]) OnMatcher(m match.Matcher[E]) *Builder[C, E] {
	if !b.check(callOn) {
		return b
	}

	b.matcher = m
	b.phase = phaseOn

	return b
}

// To adds a transition from the pending state to next. next becomes the
// pending state, so To calls can be chained. A state reached by To that never
// becomes a source ends the flow.
func (b *Builder[C, E]) To(next State[C, E]) *Builder[C, E] {
	if !b.check(callTo) || !b.register(next) {
		return b
	}

	b.add(NewTransition(b.pending, b.matcher, next.Name()))

	if !slices.ContainsFunc(b.tos, func(s State[C, E]) bool { return s.Name() == next.Name() }) {
		b.tos = append(b.tos, next)
	}

	b.pending = next
	b.matcher = nil
	b.phase = phaseTo

	return b
}

// End declares next as an end state. When a state is pending, a transition
// from it to next is added first, and next ends under the same matcher.
// Calling End alone on a fresh builder declares a single-state flow.
func (b *Builder[C, E]) End(next State[C, E]) *Builder[C, E] {
	if !b.check(callEnd) || !b.register(next) {
		return b
	}

	if b.pending != nil {
		b.add(NewTransition(b.pending, b.matcher, next.Name()))
	}

	b.add(NewEndTransition(next, b.matcher))
	b.ends[next.Name()] = true

	b.pending = nil
	b.matcher = nil
	b.phase = phaseEnd

	return b
}

// Start names the start state explicitly instead of inferring it.
func (b *Builder[C, E]) Start(state State[C, E]) *Builder[C, E] {
	if b.err == nil && b.register(state) {
		b.start = state.Name()
	}

	return b
}

// Err returns the first error recorded by the builder.
func (b *Builder[C, E]) Err() error {
	if b.err == nil {
		return nil
	}

	return wrapDefinitionError(b.name, b.err)
}

// Transitions returns the transitions declared so far, including the implicit
// end transitions Build would add.
func (b *Builder[C, E]) Transitions() []Transition[C, E] {
	out := slices.Clone(b.transitions)

	for _, s := range b.tos {
		if !b.froms[s.Name()] && !b.ends[s.Name()] {
			out = append(out, End(s))
		}
	}

	return out
}

// Build compiles the declared transitions into an Engine. It can be called
// repeatedly; every call returns a new Engine.
func (b *Builder[C, E]) Build(opts ...Option) (*Engine[C, E], error) {
	if !b.check(callBuild) {
		return nil, b.Err()
	}

	if b.start != "" {
		opts = append([]Option{WithStartState(b.start)}, opts...)
	}

	engine := New(b.name, b.Transitions(), opts...)

	if err := engine.Initialize(); err != nil {
		return nil, err
	}

	return engine, nil
}

package split

import (
	"errors"

	"github.com/amp-labs/amp-flow/match"
)

// ErrNoOutcomes is returned when there is nothing to aggregate and no fallback value.
var ErrNoOutcomes = errors.New("no outcomes to aggregate")

// Aggregator combines the outcomes of the branches of a split into the split's
// own outcome. Implementations must not depend on the order of events.
type Aggregator[E comparable] interface {
	Aggregate(events []E) (E, error)
}

// AggregatorFunc adapts a function to the Aggregator interface.
type AggregatorFunc[E comparable] func(events []E) (E, error)

func (f AggregatorFunc[E]) Aggregate(events []E) (E, error) {
	return f(events)
}

// MaxValueOption configures MaxValue.
type MaxValueOption[E comparable] func(*maxValue[E])

// WithFallback sets the outcome returned when there are no events.
func WithFallback[E comparable](event E) MaxValueOption[E] {
	return func(m *maxValue[E]) {
		m.fallback = event
		m.hasFallback = true
	}
}

// WithOrder sets the severity order. compare returns a positive number when a
// is more severe than b.
func WithOrder[E comparable](compare func(a, b E) int) MaxValueOption[E] {
	return func(m *maxValue[E]) {
		m.compare = compare
	}
}

type maxValue[E comparable] struct {
	compare     func(a, b E) int
	fallback    E
	hasFallback bool
}

// MaxValue returns an aggregator that picks the most severe event. By default
// events are ordered with match.NaturalOrder.
func MaxValue[E comparable](opts ...MaxValueOption[E]) Aggregator[E] { //nolint:ireturn
	m := &maxValue[E]{
		compare: match.NaturalOrder[E],
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *maxValue[E]) Aggregate(events []E) (E, error) {
	if len(events) == 0 {
		if m.hasFallback {
			return m.fallback, nil
		}

		var zero E

		return zero, ErrNoOutcomes
	}

	best := events[0]

	for _, event := range events[1:] {
		if m.compare(event, best) > 0 {
			best = event
		}
	}

	return best, nil
}

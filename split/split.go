// Package split provides the split state: a state that runs a fixed set of
// sub-flows on the same input and combines their outcomes into one event.
//
// Branches are scheduled on an Executor (Sync by default, so they run one
// after the other). The split waits for every scheduled branch before it
// aggregates, and the result does not depend on the order in which branches
// finish: outcomes are collected by branch position and combined with an
// order-independent Aggregator.
package split

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/amp-labs/amp-flow/flow"
	"github.com/amp-labs/amp-flow/logger"
)

var (
	// ErrBranchFailed wraps the failure of a single sub-flow.
	ErrBranchFailed = errors.New("branch failed")

	// ErrPanicRecovered is returned when a branch panics outside its handlers.
	ErrPanicRecovered = errors.New("panic recovered")
)

// State fans its input out to sub-flows. It implements flow.State.
type State[C any, E comparable] struct {
	flow.Base

	flows      []flow.Flow[C, E]
	executor   Executor
	adapter    Adapter[C]
	aggregator Aggregator[E]
}

var _ flow.State[struct{}, string] = (*State[struct{}, string])(nil)

// Option configures a split State.
type Option[C any, E comparable] func(*State[C, E])

// WithExecutor sets the executor branches are scheduled on.
func WithExecutor[C any, E comparable](executor Executor) Option[C, E] {
	return func(s *State[C, E]) {
		s.executor = executor
	}
}

// WithAdapter gives every branch a private context. Without an adapter every
// branch receives the parent context itself, which must then be safe for
// concurrent use when the executor runs branches in parallel.
func WithAdapter[C any, E comparable](adapter Adapter[C]) Option[C, E] {
	return func(s *State[C, E]) {
		s.adapter = adapter
	}
}

// WithAggregator sets how branch outcomes are combined.
func WithAggregator[C any, E comparable](aggregator Aggregator[E]) Option[C, E] {
	return func(s *State[C, E]) {
		s.aggregator = aggregator
	}
}

// New returns a split state named name over flows.
func New[C any, E comparable](name string, flows []flow.Flow[C, E], opts ...Option[C, E]) *State[C, E] {
	branches := make([]string, 0, len(flows))
	for _, f := range flows {
		branches = append(branches, f.Name())
	}

	s := &State[C, E]{
		Base: flow.NewBase(name, flow.Descriptor{
			Kind:     flow.KindSplit,
			Branches: branches,
		}),
		flows: append([]flow.Flow[C, E](nil), flows...),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.executor == nil {
		s.executor = Sync()
	}

	if s.aggregator == nil {
		s.aggregator = MaxValue[E]()
	}

	return s
}

// Flows returns the sub-flows in branch order.
func (s *State[C, E]) Flows() []flow.Flow[C, E] {
	return append([]flow.Flow[C, E](nil), s.flows...)
}

type branch[C any, E comparable] struct {
	child C
	event E
	err   error
}

// Handle runs every branch and returns the aggregated outcome.
func (s *State[C, E]) Handle(ctx context.Context, parent C) (E, error) {
	started := time.Now()

	event, err := s.handle(ctx, parent)

	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}

	splitDuration.WithLabelValues(s.Name(), outcome).Observe(time.Since(started).Seconds())

	return event, err
}

func (s *State[C, E]) handle(ctx context.Context, parent C) (E, error) {
	var zero E

	results := make([]branch[C, E], len(s.flows))

	var wg sync.WaitGroup

	for idx, sub := range s.flows {
		wg.Add(1)

		task := func(ctx context.Context) {
			defer wg.Done()

			results[idx] = s.run(ctx, sub, parent)
		}

		if err := s.executor.Execute(ctx, task); err != nil {
			branchesTotal.WithLabelValues(s.Name(), outcomeRejected).Inc()

			return zero, fmt.Errorf("%w: split %s: branch %s: %w", ErrRejected, s.Name(), sub.Name(), err)
		}
	}

	wg.Wait()

	var errs []error

	children := make([]C, 0, len(results))
	events := make([]E, 0, len(results))

	for idx, res := range results {
		if res.err != nil {
			branchesTotal.WithLabelValues(s.Name(), outcomeError).Inc()

			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrBranchFailed, s.flows[idx].Name(), res.err))

			continue
		}

		branchesTotal.WithLabelValues(s.Name(), outcomeSuccess).Inc()

		children = append(children, res.child)
		events = append(events, res.event)
	}

	if len(errs) > 0 {
		return zero, errors.Join(errs...)
	}

	if s.adapter != nil {
		if err := s.adapter.Aggregate(ctx, parent, children); err != nil {
			return zero, fmt.Errorf("split %s: aggregate contexts: %w", s.Name(), err)
		}
	}

	event, err := s.aggregator.Aggregate(events)
	if err != nil {
		return zero, fmt.Errorf("split %s: %w", s.Name(), err)
	}

	logger.Get(ctx).Debug("Split finished",
		"split", s.Name(),
		"branches", len(s.flows),
		"event", event)

	return event, nil
}

// run executes one branch. It never panics.
func (s *State[C, E]) run(ctx context.Context, sub flow.Flow[C, E], parent C) (out branch[C, E]) {
	ctx, span := startBranchSpan(ctx, s.Name(), sub.Name())
	defer func() { endSpan(span, out.err) }()

	defer func() {
		if r := recover(); r != nil {
			out.err = fmt.Errorf("%w: %v\n%s", ErrPanicRecovered, r, debug.Stack())
		}
	}()

	child := parent

	if s.adapter != nil {
		var err error

		child, err = s.adapter.Create(ctx, parent)
		if err != nil {
			out.err = fmt.Errorf("create context: %w", err)

			return out
		}
	}

	res, err := sub.Start(ctx, child)
	if err != nil {
		out.err = err

		return out
	}

	if !res.Complete {
		logger.Get(ctx).Warn("Split branch paused, using its last event",
			"split", s.Name(),
			"branch", sub.Name(),
			"memento", string(res.Memento))
	}

	out.child = res.Context
	out.event = res.Event

	return out
}

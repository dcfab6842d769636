package flow

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/amp-labs/amp-flow/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

// Engine is the orchestrator of a flow. It compiles its transitions into a Graph
// on first use (or on Initialize) and drives contexts through it.
//
// An Engine is safe for concurrent use: executions read an immutable, atomically
// published graph, and compilation is serialized.
type Engine[C any, E comparable] struct {
	name        string
	transitions []Transition[C, E]
	opts        options

	mu    sync.Mutex
	graph atomic.Pointer[Graph[C, E]]
}

var (
	_ Flow[struct{}, string]    = (*Engine[struct{}, string])(nil)
	_ Locator[struct{}, string] = (*Engine[struct{}, string])(nil)
)

// New creates an engine over the given transitions. The graph is not compiled
// until Initialize, Start or Resume is called.
func New[C any, E comparable](name string, transitions []Transition[C, E], opts ...Option) *Engine[C, E] {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	return &Engine[C, E]{
		name:        name,
		transitions: slices.Clone(transitions),
		opts:        o,
	}
}

func (e *Engine[C, E]) Name() string {
	return e.name
}

// Initialize compiles the transitions and publishes the resulting graph. Calling
// it again recompiles from scratch.
func (e *Engine[C, E]) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.compileLocked()
}

func (e *Engine[C, E]) compileLocked() error {
	graph, err := Compile(e.name, e.transitions, e.opts.start)
	if err != nil {
		return err
	}

	e.graph.Store(graph)

	return nil
}

// Graph returns the compiled graph, compiling it if needed.
func (e *Engine[C, E]) Graph() (*Graph[C, E], error) {
	if graph := e.graph.Load(); graph != nil {
		return graph, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Another caller may have compiled while we waited.
	if graph := e.graph.Load(); graph != nil {
		return graph, nil
	}

	if err := e.compileLocked(); err != nil {
		return nil, err
	}

	return e.graph.Load(), nil
}

// Start runs the flow from its start state until it ends or pauses.
func (e *Engine[C, E]) Start(ctx context.Context, c C) (Result[C, E], error) {
	graph, err := e.Graph()
	if err != nil {
		return Result[C, E]{Context: c}, err
	}

	run := e.begin(ctx, operationStart)

	res, err := e.drive(run.ctx, graph, graph.Start(), c)

	run.finish(res, err)

	return res, err
}

// Resume continues an execution that stopped at memento, given the event that
// state produced. When that event ends the flow, the result is complete and
// carries the inputs unchanged.
func (e *Engine[C, E]) Resume(ctx context.Context, memento Memento, c C, event E) (Result[C, E], error) {
	unchanged := Result[C, E]{
		Memento: memento,
		Context: c,
		Event:   event,
	}

	graph, err := e.Graph()
	if err != nil {
		return unchanged, err
	}

	run := e.begin(ctx, operationResume)
	run.span.SetAttributes(attribute.String("memento", string(memento)))

	res, err := e.resume(run.ctx, graph, unchanged)

	run.finish(res, err)

	return res, err
}

func (e *Engine[C, E]) resume(ctx context.Context, graph *Graph[C, E], from Result[C, E]) (Result[C, E], error) {
	state, ok := graph.State(string(from.Memento))
	if !ok {
		return from, wrapExecutionError(e.name, string(from.Memento), ErrUnknownState)
	}

	next, err := graph.Next(state.Name(), from.Event)
	if err != nil {
		return from, wrapExecutionError(e.name, state.Name(), err)
	}

	if next == nil {
		from.Complete = true

		return from, nil
	}

	e.transitionTaken(ctx, state.Name(), next.Name(), from.Event)

	return e.drive(ctx, graph, next, from.Context)
}

// drive runs states one after the other, starting with current.
func (e *Engine[C, E]) drive(ctx context.Context, graph *Graph[C, E], current State[C, E], c C) (Result[C, E], error) {
	for {
		event, err := e.visit(ctx, current, c)

		res := Result[C, E]{
			Memento: Memento(current.Name()),
			Context: c,
			Event:   event,
		}

		if err != nil {
			return res, err
		}

		if current.Pause() {
			return res, nil
		}

		next, err := graph.Next(current.Name(), event)
		if err != nil {
			return res, wrapExecutionError(e.name, current.Name(), err)
		}

		if next == nil {
			res.Complete = true

			return res, nil
		}

		e.transitionTaken(ctx, current.Name(), next.Name(), event)

		current = next
	}
}

// visit runs one state handler with hooks, logging, metrics and a span.
func (e *Engine[C, E]) visit(ctx context.Context, state State[C, E], c C) (event E, err error) {
	name := state.Name()
	descriptor := state.Descriptor()

	ctx = logger.WithState(ctx, name)
	ctx, span := startStateSpan(ctx, e.name, descriptor, name)

	if e.opts.logger != nil {
		e.opts.logger.StateEntered(ctx, e.name, name)
	}

	for _, hook := range e.opts.hooks {
		hook(ctx, e.name, name, PhaseStart, nil)
	}

	started := time.Now()
	event, err = safeHandle(ctx, state, c)
	elapsed := time.Since(started)

	if err != nil {
		err = wrapExecutionError(e.name, name, fmt.Errorf("%w: %w", ErrHandlerFailed, err))
	}

	for _, hook := range e.opts.hooks {
		hook(ctx, e.name, name, PhaseEnd, err)
	}

	span.SetAttributes(
		attribute.Int64("duration_ms", elapsed.Milliseconds()),
		attribute.String("event", fmt.Sprint(event)),
	)
	endSpan(span, err)

	if e.opts.logger != nil {
		e.opts.logger.StateExited(ctx, e.name, name, event, elapsed, err)
	}

	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}

	flowLabel := sanitizeFlow(e.name)
	stateVisitsTotal.WithLabelValues(flowLabel, name, descriptor.Kind.String(), outcome).Inc()
	stateDuration.WithLabelValues(flowLabel, name, descriptor.Kind.String()).Observe(elapsed.Seconds())

	return event, err
}

// safeHandle turns a handler panic into an error.
func safeHandle[C any, E comparable](ctx context.Context, state State[C, E], c C) (event E, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanicRecovered, r, debug.Stack())
		}
	}()

	return state.Handle(ctx, c)
}

func (e *Engine[C, E]) transitionTaken(ctx context.Context, from, to string, event E) {
	transitionsTotal.WithLabelValues(sanitizeFlow(e.name), from, to).Inc()

	if e.opts.logger != nil {
		e.opts.logger.TransitionTaken(ctx, e.name, from, to, event)
	}
}

// StateNames returns the state names in natural order. When the flow definition
// does not compile it logs the error and returns nil; use Graph to get the error.
func (e *Engine[C, E]) StateNames() []string {
	graph, err := e.Graph()
	if err != nil {
		logger.Get(logger.WithFlow(context.Background(), e.name)).
			Warn("Flow definition does not compile", "error", err)

		return nil
	}

	return graph.States()
}

// State returns the state with the given name.
func (e *Engine[C, E]) State(name string) (State[C, E], error) {
	graph, err := e.Graph()
	if err != nil {
		return nil, err
	}

	state, ok := graph.State(name)
	if !ok {
		return nil, wrapExecutionError(e.name, name, ErrUnknownState)
	}

	return state, nil
}

// Triggers returns the distinct descriptors of the matchers guarding the
// transitions that leave the named state, in natural order. A literal "*" is
// reported as the first of COMPLETED, FAILED and UNKNOWN not already used by a
// sibling, then as ANYTHING, ANYTHING0, ANYTHING1 and so on.
func (e *Engine[C, E]) Triggers(name string) ([]string, error) {
	graph, err := e.Graph()
	if err != nil {
		return nil, err
	}

	triggers, err := graph.Triggers(name)
	if err != nil {
		return nil, wrapDefinitionError(e.name, err)
	}

	return triggers, nil
}

// execution tracks one Start or Resume call for spans, metrics and logging.
type execution[C any, E comparable] struct {
	engine    *Engine[C, E]
	ctx       context.Context //nolint:containedctx
	span      trace.Span
	operation string
	started   time.Time
}

func (e *Engine[C, E]) begin(ctx context.Context, operation string) *execution[C, E] {
	id := uuid.NewString()

	ctx = logger.WithExecutionID(logger.WithFlow(ctx, e.name), id)
	ctx, span := startExecutionSpan(ctx, e.name, operation, id)

	return &execution[C, E]{
		engine:    e,
		ctx:       ctx,
		span:      span,
		operation: operation,
		started:   time.Now(),
	}
}

func (x *execution[C, E]) finish(res Result[C, E], err error) {
	elapsed := time.Since(x.started)
	outcome := executionOutcome(res.Complete, err)
	flowLabel := sanitizeFlow(x.engine.name)

	executionsTotal.WithLabelValues(flowLabel, x.operation, outcome).Inc()
	executionDuration.WithLabelValues(flowLabel, x.operation, outcome).Observe(elapsed.Seconds())

	x.span.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.String("memento", string(res.Memento)),
		attribute.Bool("complete", res.Complete),
	)
	endSpan(x.span, err)

	if x.engine.opts.logger != nil {
		x.engine.opts.logger.FlowFinished(x.ctx, x.engine.name, x.operation, res.Memento, res.Complete, elapsed, err)
	}
}

package flow

import (
	"context"
	"fmt"
)

// Kind tags the variant of a state. The engine and the tooling built on it
// switch on it exhaustively instead of inspecting concrete types.
type Kind int

const (
	// KindTask runs a handler and continues with the matching transition.
	KindTask Kind = iota
	// KindPause runs a handler and then suspends the execution.
	KindPause
	// KindSplit fans out to sub-flows and aggregates their outcomes.
	KindSplit
)

func (k Kind) String() string {
	switch k {
	case KindTask:
		return "task"
	case KindPause:
		return "pause"
	case KindSplit:
		return "split"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Descriptor describes what kind of state a State is. Branches lists the
// sub-flow names of a split state.
type Descriptor struct {
	Kind     Kind
	Branches []string
}

// State is a named unit of work producing an event from a context.
type State[C any, E comparable] interface {
	Name() string

	// Pause reports whether execution suspends right after this state ran.
	Pause() bool

	Descriptor() Descriptor

	Handle(ctx context.Context, c C) (E, error)
}

// HandlerFunc is the work a task or pause state performs.
type HandlerFunc[C any, E comparable] func(ctx context.Context, c C) (E, error)

// Base carries the name and descriptor of a state. Embed it to implement State.
type Base struct {
	name       string
	descriptor Descriptor
}

// NewBase returns a Base for a state of the given name and descriptor.
func NewBase(name string, descriptor Descriptor) Base {
	return Base{
		name:       name,
		descriptor: descriptor,
	}
}

func (b Base) Name() string {
	return b.name
}

func (b Base) Pause() bool {
	return b.descriptor.Kind == KindPause
}

func (b Base) Descriptor() Descriptor {
	return b.descriptor
}

func (b Base) String() string {
	if b.Pause() {
		return b.descriptor.Kind.String() + ":" + b.name + "(pause)"
	}

	return b.descriptor.Kind.String() + ":" + b.name
}

type funcState[C any, E comparable] struct {
	Base

	handler HandlerFunc[C, E]
}

func (s *funcState[C, E]) Handle(ctx context.Context, c C) (E, error) {
	return s.handler(ctx, c)
}

// NewState returns a task state running the given handler.
func NewState[C any, E comparable](name string, handler HandlerFunc[C, E]) State[C, E] {
	return &funcState[C, E]{
		Base:    NewBase(name, Descriptor{Kind: KindTask}),
		handler: handler,
	}
}

// NewStatic returns a pass-through state that leaves the context alone and
// always yields the same event.
func NewStatic[C any, E comparable](name string, event E) State[C, E] {
	return NewState[C, E](name, func(context.Context, C) (E, error) {
		return event, nil
	})
}

// NewTransform returns a state that applies fn to the context and then yields
// event. An error from fn fails the state.
func NewTransform[C any, E comparable](name string, fn func(ctx context.Context, c C) error, event E) State[C, E] {
	return NewState[C, E](name, func(ctx context.Context, c C) (E, error) {
		if err := fn(ctx, c); err != nil {
			var zero E

			return zero, err
		}

		return event, nil
	})
}

// NewPauseState returns a state that runs handler and then suspends the flow.
// The event it returns is what the caller hands back to Resume.
func NewPauseState[C any, E comparable](name string, handler HandlerFunc[C, E]) State[C, E] {
	return &funcState[C, E]{
		Base:    NewBase(name, Descriptor{Kind: KindPause}),
		handler: handler,
	}
}

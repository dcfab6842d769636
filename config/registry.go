package config

import (
	"fmt"

	"github.com/amp-labs/amp-flow/flow"
	"github.com/amp-labs/amp-flow/split"
)

// EventParser turns the text of a trigger or a static event into an event.
type EventParser[E comparable] func(text string) (E, error)

// StringEvents is the EventParser for flows whose events are strings.
func StringEvents(text string) (string, error) {
	return text, nil
}

// Registry holds what a document refers to by name.
type Registry[C any, E comparable] struct {
	parser      EventParser[E]
	handlers    map[string]flow.HandlerFunc[C, E]
	executors   map[string]split.Executor
	aggregators map[string]split.Aggregator[E]
	adapters    map[string]split.Adapter[C]
}

// NewRegistry returns an empty registry parsing events with parser.
func NewRegistry[C any, E comparable](parser EventParser[E]) *Registry[C, E] {
	return &Registry[C, E]{
		parser:      parser,
		handlers:    make(map[string]flow.HandlerFunc[C, E]),
		executors:   make(map[string]split.Executor),
		aggregators: make(map[string]split.Aggregator[E]),
		adapters:    make(map[string]split.Adapter[C]),
	}
}

// Handler registers a state handler. The same handler serves task and pause states.
func (r *Registry[C, E]) Handler(name string, handler flow.HandlerFunc[C, E]) *Registry[C, E] {
	r.handlers[name] = handler

	return r
}

// Executor registers a split executor.
func (r *Registry[C, E]) Executor(name string, executor split.Executor) *Registry[C, E] {
	r.executors[name] = executor

	return r
}

// Aggregator registers a split aggregator.
func (r *Registry[C, E]) Aggregator(name string, aggregator split.Aggregator[E]) *Registry[C, E] {
	r.aggregators[name] = aggregator

	return r
}

// Adapter registers a split context adapter.
func (r *Registry[C, E]) Adapter(name string, adapter split.Adapter[C]) *Registry[C, E] {
	r.adapters[name] = adapter

	return r
}

func (r *Registry[C, E]) event(text string) (E, error) {
	event, err := r.parser(text)
	if err != nil {
		var zero E

		return zero, fmt.Errorf("%w %q: %w", ErrBadEvent, text, err)
	}

	return event, nil
}

func lookup[T any](kind error, items map[string]T, name string) (T, error) {
	item, ok := items[name]
	if !ok {
		var zero T

		return zero, fmt.Errorf("%w: %s", kind, name)
	}

	return item, nil
}

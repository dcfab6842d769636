package flow

import "context"

// Memento identifies where an execution stopped. It is the name of the last
// state reached; callers persist it and hand it back to Resume.
type Memento string

// Result is the outcome of one Start or Resume call.
type Result[C any, E comparable] struct {
	// Memento names the last state reached, or the state the event came from
	// when the execution did not advance.
	Memento Memento

	// Context is the context after the execution, possibly mutated by handlers.
	Context C

	// Event is the event that most recently fired.
	Event E

	// Complete is true when the execution ended rather than paused.
	Complete bool
}

// Flow is a named, resumable execution graph.
type Flow[C any, E comparable] interface {
	Name() string
	Start(ctx context.Context, c C) (Result[C, E], error)
	Resume(ctx context.Context, memento Memento, c C, event E) (Result[C, E], error)
}

// Locator inspects the graph of a flow.
type Locator[C any, E comparable] interface {
	// StateNames returns the names of all states in natural order.
	StateNames() []string

	State(name string) (State[C, E], error)

	// Triggers returns the descriptors guarding the transitions leaving a state.
	Triggers(name string) ([]string, error)
}

// Phase is the point in a state visit at which a Hook is called.
type Phase string

const (
	PhaseStart Phase = "start"
	PhaseEnd   Phase = "end"
)

// Hook is called before and after every state handler runs. err is only set
// in the end phase.
type Hook func(ctx context.Context, flow string, state string, phase Phase, err error)

// Option configures an Engine.
type Option func(*options)

type options struct {
	start  string
	logger Logger
	hooks  []Hook
}

// WithStartState names the start state explicitly instead of inferring it.
func WithStartState(name string) Option {
	return func(o *options) {
		o.start = name
	}
}

// WithLogger sets the Logger notified of state visits and transitions.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHooks adds hooks called around every state handler.
func WithHooks(hooks ...Hook) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, hooks...)
	}
}

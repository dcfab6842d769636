package flow

import (
	"errors"
	"fmt"
)

// Definition errors, reported while compiling or building a flow.
var (
	// ErrNoTransitions indicates that a flow was declared without transitions.
	ErrNoTransitions = errors.New("no transitions found")
	// ErrMissingState indicates that a transition points to a state that is never a source.
	ErrMissingState = errors.New("missing state")
	// ErrNoEndState indicates that no transition terminates the flow.
	ErrNoEndState = errors.New("no end state found")
	// ErrNoStartState indicates that every state has an incoming transition.
	ErrNoStartState = errors.New("no start state found")
	// ErrAmbiguousStartState indicates that more than one state has no incoming transition.
	ErrAmbiguousStartState = errors.New("multiple possible start states found")
	// ErrUnknownStartState indicates that an explicit start state is not part of the graph.
	ErrUnknownStartState = errors.New("start state is not a source of any transition")
	// ErrNilState indicates that a transition was created without a source state.
	ErrNilState = errors.New("transition source state is nil")
	// ErrIllegalOrdering indicates a builder call sequence that cannot form a transition.
	ErrIllegalOrdering = errors.New("illegal builder call ordering")
	// ErrEndStateAsSource indicates that a declared end state was later used as a source.
	ErrEndStateAsSource = errors.New("state already declared as an end state")
)

// Execution errors, reported by Start and Resume.
var (
	// ErrUnknownState indicates that a memento or name does not identify a state of the flow.
	ErrUnknownState = errors.New("unknown state")
	// ErrNoMatchingTransition indicates that no outgoing transition accepts the produced event.
	ErrNoMatchingTransition = errors.New("next state not found")
	// ErrHandlerFailed indicates that a state handler returned an error.
	ErrHandlerFailed = errors.New("state handler failed")
	// ErrPanicRecovered indicates that a state handler panicked.
	ErrPanicRecovered = errors.New("recovered from panic")
)

// DefinitionError wraps an error found while turning transitions into a graph.
type DefinitionError struct {
	Flow string
	Err  error
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("flow %s: invalid definition: %v", e.Flow, e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// ExecutionError wraps an error raised while driving a flow, with the state at
// which it occurred.
type ExecutionError struct {
	Flow  string
	State string
	Err   error
}

func (e *ExecutionError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("flow %s: %v", e.Flow, e.Err)
	}

	return fmt.Sprintf("flow %s: state %s: %v", e.Flow, e.State, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func wrapDefinitionError(flow string, err error) error {
	if err == nil {
		return nil
	}

	return &DefinitionError{
		Flow: flow,
		Err:  err,
	}
}

func wrapExecutionError(flow, state string, err error) error {
	if err == nil {
		return nil
	}

	return &ExecutionError{
		Flow:  flow,
		State: state,
		Err:   err,
	}
}

// Package flowtest provides states and recorders for testing flows.
//
//nolint:ireturn
package flowtest

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/amp-labs/amp-flow/flow"
	"github.com/stretchr/testify/require"
)

// Recorder keeps the names of the states that handled a context, in order.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	handled []string
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends a state name.
func (r *Recorder) Record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handled = append(r.handled, name)
}

// Handled returns the recorded names.
func (r *Recorder) Handled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.handled)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handled = nil
}

// Stub returns a task state that records its name and yields event.
func Stub[C any, E comparable](rec *Recorder, name string, event E) flow.State[C, E] {
	return flow.NewState[C, E](name, func(context.Context, C) (E, error) {
		rec.Record(name)

		return event, nil
	})
}

// Failing returns a task state that records its name and fails with err.
func Failing[C any, E comparable](rec *Recorder, name string, err error) flow.State[C, E] {
	return flow.NewState[C, E](name, func(context.Context, C) (E, error) {
		rec.Record(name)

		var zero E

		return zero, err
	})
}

// Pause returns a pause state that records its name and yields event.
func Pause[C any, E comparable](rec *Recorder, name string, event E) flow.State[C, E] {
	return flow.NewPauseState[C, E](name, func(context.Context, C) (E, error) {
		rec.Record(name)

		return event, nil
	})
}

// Sleep returns a task state that waits for d, records its name and yields event.
func Sleep[C any, E comparable](rec *Recorder, name string, d time.Duration, event E) flow.State[C, E] {
	return flow.NewState[C, E](name, func(ctx context.Context, _ C) (E, error) {
		select {
		case <-time.After(d):
		case <-ctx.Done():
		}

		rec.Record(name)

		return event, nil
	})
}

// TraceEntry is one hook call.
type TraceEntry struct {
	Flow  string
	State string
	Phase flow.Phase
	Err   error
}

// Trace collects hook calls. Install it with flow.WithHooks(trace.Hook).
type Trace struct {
	mu      sync.Mutex
	entries []TraceEntry
}

// Hook is a flow.Hook recording every call.
func (tr *Trace) Hook(_ context.Context, flowName, state string, phase flow.Phase, err error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.entries = append(tr.entries, TraceEntry{
		Flow:  flowName,
		State: state,
		Phase: phase,
		Err:   err,
	})
}

// Entries returns the recorded calls.
func (tr *Trace) Entries() []TraceEntry {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	return slices.Clone(tr.entries)
}

// Visited returns the states whose handler started, in order.
func (tr *Trace) Visited() []string {
	var out []string

	for _, e := range tr.Entries() {
		if e.Phase == flow.PhaseStart {
			out = append(out, e.State)
		}
	}

	return out
}

// RequireHandled fails the test unless the recorder saw exactly the given states in order.
func RequireHandled(t *testing.T, rec *Recorder, states ...string) {
	t.Helper()

	if len(states) == 0 {
		require.Empty(t, rec.Handled(), "no state should have been handled")

		return
	}

	require.Equal(t, states, rec.Handled(), "handled states")
}

// RequireResult fails the test unless res stopped at memento with the given
// event and completion flag.
func RequireResult[C any, E comparable](t *testing.T, res flow.Result[C, E], memento string, event E, complete bool) {
	t.Helper()

	require.Equal(t, flow.Memento(memento), res.Memento, "memento")
	require.Equal(t, event, res.Event, "event")
	require.Equal(t, complete, res.Complete, "complete")
}

package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:paralleltest // reads the global registry
func TestExecutionMetrics(t *testing.T) {
	const name = "metrics-flow"

	ok := NewStatic[string, string]("ok", "DONE")
	bad := NewState[string, string]("bad", func(context.Context, string) (string, error) {
		return "", errors.New("nope")
	})

	engine := New(name, []Transition[string, string]{
		NewTransition[string, string](ok, nil, "bad"),
		NewEndTransition[string, string](bad, nil),
	})

	_, err := engine.Start(t.Context(), "data")
	require.Error(t, err)

	_, err = engine.Resume(t.Context(), "bad", "data", "DONE")
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(executionsTotal.WithLabelValues(name, operationStart, outcomeError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(executionsTotal.WithLabelValues(name, operationResume, outcomeComplete)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(stateVisitsTotal.WithLabelValues(name, "ok", "task", outcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(stateVisitsTotal.WithLabelValues(name, "bad", "task", outcomeError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(transitionsTotal.WithLabelValues(name, "ok", "bad")), 0)
}

func TestExecutionOutcome(t *testing.T) {
	t.Parallel()

	assert.Equal(t, outcomeError, executionOutcome(true, errors.New("x")))
	assert.Equal(t, outcomeComplete, executionOutcome(true, nil))
	assert.Equal(t, outcomePaused, executionOutcome(false, nil))
	assert.Equal(t, "unnamed", sanitizeFlow(""))
}

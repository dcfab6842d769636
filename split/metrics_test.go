package split

import (
	"context"
	"errors"
	"testing"

	"github.com/amp-labs/amp-flow/flow"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:paralleltest // reads the global registry
func TestBranchMetrics(t *testing.T) {
	const name = "metrics-split"

	ok := flow.New("ok", []flow.Transition[string, string]{
		flow.End(flow.NewStatic[string, string]("ok", "A")),
	})
	bad := flow.New("bad", []flow.Transition[string, string]{
		flow.End(flow.NewState[string, string]("bad", func(context.Context, string) (string, error) {
			return "", errors.New("nope")
		})),
	})

	state := New(name, []flow.Flow[string, string]{ok, bad})

	_, err := state.Handle(t.Context(), "data")
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(branchesTotal.WithLabelValues(name, outcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(branchesTotal.WithLabelValues(name, outcomeError)), 0)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(splitDuration, "flow_split_duration_seconds"), 1)
}

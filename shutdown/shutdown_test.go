package shutdown

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:paralleltest // global hooks
func TestRunCallsHooksInReverseOnce(t *testing.T) {
	var order []int

	BeforeShutdown(func(context.Context) { order = append(order, 1) })
	BeforeShutdown(func(context.Context) { order = append(order, 2) })
	BeforeShutdown(func(context.Context) { order = append(order, 3) })

	Run(t.Context())
	Run(t.Context())

	assert.Equal(t, []int{3, 2, 1}, order)
}

//nolint:paralleltest // global hooks
func TestSetupHandlerRunsHooksOnCancel(t *testing.T) {
	var wg sync.WaitGroup

	wg.Add(1)

	var hookCtxAlive bool

	BeforeShutdown(func(ctx context.Context) {
		defer wg.Done()

		hookCtxAlive = ctx.Err() == nil
	})

	parent, cancel := context.WithCancel(t.Context())

	ctx := SetupHandler(parent)

	cancel()
	wg.Wait()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		require.FailNow(t, "context was not canceled")
	}

	assert.True(t, hookCtxAlive)
}

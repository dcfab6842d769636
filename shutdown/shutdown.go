// Package shutdown runs cleanup hooks when the process is asked to stop.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/amp-labs/amp-flow/logger"
)

// Hook releases a resource. The context expires when the grace period is over.
type Hook func(ctx context.Context)

const defaultGracePeriod = 10 * time.Second

var (
	mut   sync.Mutex //nolint:gochecknoglobals
	hooks []Hook     //nolint:gochecknoglobals
)

// BeforeShutdown registers a hook. Hooks run in reverse order of registration,
// so resources are released before the ones they depend on.
func BeforeShutdown(h Hook) {
	mut.Lock()
	defer mut.Unlock()

	hooks = append(hooks, h)
}

// Run calls every registered hook once and forgets them.
func Run(ctx context.Context) {
	mut.Lock()
	pending := hooks
	hooks = nil
	mut.Unlock()

	for _, h := range slices.Backward(pending) {
		h(ctx)
	}
}

// SetupHandler returns a context canceled on SIGINT or SIGTERM. On a signal
// the hooks run, with a grace period, before the context is canceled. They
// also run when ctx itself ends.
func SetupHandler(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer cancel()

		select {
		case sig := <-signals:
			logger.Get(ctx).Warn("Received " + sig.String() + ", shutting down...")
		case <-ctx.Done():
		}

		signal.Stop(signals)

		graceCtx, graceCancel := context.WithTimeout(context.WithoutCancel(ctx), defaultGracePeriod)
		defer graceCancel()

		Run(graceCtx)
	}()

	return ctx
}

package split

import (
	"context"
	"errors"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/amp-flow/envutil"
	"github.com/amp-labs/amp-flow/logger"
	"github.com/amp-labs/amp-flow/shutdown"
	"go.uber.org/atomic"
)

// ErrRejected is returned when an executor refuses to schedule a branch.
var ErrRejected = errors.New("task rejected")

// Executor schedules the branches of a split. Execute must either run task
// exactly once (now or later, on any goroutine) or return an error, in which
// case task is never run.
type Executor interface {
	Execute(ctx context.Context, task func(context.Context)) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, task func(context.Context)) error

func (f ExecutorFunc) Execute(ctx context.Context, task func(context.Context)) error {
	return f(ctx, task)
}

// Sync returns an executor that runs each task on the calling goroutine, so
// branches run one after the other.
func Sync() Executor { //nolint:ireturn
	return ExecutorFunc(func(ctx context.Context, task func(context.Context)) error {
		task(ctx)

		return nil
	})
}

// GoExecutor runs each task on its own goroutine, with at most limit of those
// goroutines running at the same time. When every slot is taken the task runs
// on the calling goroutine instead, so a branch that starts a nested split on
// the same executor never waits for a slot it is holding. Once closed it
// rejects new tasks.
type GoExecutor struct {
	sem    chan struct{}
	mu     sync.RWMutex
	closed atomic.Bool
	wg     sync.WaitGroup
}

// Go returns a GoExecutor. A limit below 1 means no limit.
func Go(limit int) *GoExecutor {
	g := &GoExecutor{}

	if limit > 0 {
		g.sem = make(chan struct{}, limit)
	}

	return g
}

func (g *GoExecutor) Execute(ctx context.Context, task func(context.Context)) error {
	spawn, err := g.admit()
	if err != nil {
		return err
	}

	if !spawn {
		defer g.wg.Done()

		task(ctx)

		return nil
	}

	go func() {
		defer g.wg.Done()

		if g.sem != nil {
			defer func() { <-g.sem }()
		}

		task(ctx)
	}()

	return nil
}

// admit registers a task and reports whether it got a goroutine slot.
func (g *GoExecutor) admit() (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed.Load() {
		return false, ErrRejected
	}

	g.wg.Add(1)

	if g.sem == nil {
		return true, nil
	}

	select {
	case g.sem <- struct{}{}:
		return true, nil
	default:
		return false, nil
	}
}

// Close stops accepting tasks and waits for the running ones to finish.
func (g *GoExecutor) Close() error {
	g.mu.Lock()
	g.closed.Store(true)
	g.mu.Unlock()

	g.wg.Wait()

	return nil
}

type poolKey struct{}

// Pond returns an executor backed by a pond worker pool. Tasks submitted after
// the pool is stopped are rejected. A task scheduled from inside another task
// of the same pool runs on the calling worker, so nested splits cannot starve
// the pool of workers.
func Pond(pool pond.Pool) Executor { //nolint:ireturn
	return ExecutorFunc(func(ctx context.Context, task func(context.Context)) error {
		if owner, ok := ctx.Value(poolKey{}).(pond.Pool); ok && owner == pool {
			if pool.Stopped() {
				return errors.Join(ErrRejected, pond.ErrPoolStopped)
			}

			task(ctx)

			return nil
		}

		inner := context.WithValue(ctx, poolKey{}, pool)

		if err := pool.Go(func() { task(inner) }); err != nil {
			return errors.Join(ErrRejected, err)
		}

		return nil
	})
}

const defaultWorkerCount = 10

var (
	defaultPoolMu  sync.Mutex
	defaultPool    pond.Pool
	registerOnStop sync.Once
)

// DefaultPool returns an executor backed by a process-wide pond pool. The pool
// is created on first use, sized by FLOW_SPLIT_WORKERS. Nested splits on the
// default pool run their inner branches on the outer branch's worker.
func DefaultPool(ctx context.Context) Executor { //nolint:ireturn
	return Pond(sharedPool(ctx))
}

func sharedPool(ctx context.Context) pond.Pool { //nolint:ireturn
	defaultPoolMu.Lock()
	defer defaultPoolMu.Unlock()

	if defaultPool != nil {
		return defaultPool
	}

	count := envutil.IntContext(ctx, "FLOW_SPLIT_WORKERS",
		envutil.Default(defaultWorkerCount)).ValueOrElse(defaultWorkerCount)
	if count < 1 {
		count = defaultWorkerCount
	}

	logger.Get(ctx).Debug("Initializing split worker pool", "count", count)

	defaultPool = pond.NewPool(count)

	registerOnStop.Do(func() {
		shutdown.BeforeShutdown(func(ctx context.Context) {
			logger.Get(ctx).Debug("Stopping split worker pool")
			StopDefaultPool()
		})
	})

	return defaultPool
}

// StopDefaultPool waits for the shared pool's tasks and stops it. A later
// DefaultPool call creates a fresh pool.
func StopDefaultPool() {
	defaultPoolMu.Lock()
	defer defaultPoolMu.Unlock()

	if defaultPool == nil {
		return
	}

	defaultPool.StopAndWait()
	defaultPool = nil
}

package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/amp-labs/amp-flow/logger"
)

// Logger receives notifications while a flow executes.
type Logger interface {
	StateEntered(ctx context.Context, flow, state string)
	StateExited(ctx context.Context, flow, state string, event any, duration time.Duration, err error)
	TransitionTaken(ctx context.Context, flow, from, to string, event any)
	FlowFinished(ctx context.Context, flow, operation string, memento Memento, complete bool, duration time.Duration, err error)
}

// DefaultLogger implements Logger using slog. Flow, state and execution id
// are attached from the context by logger.Enrich.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a Logger writing to l. A nil l logs to the slog
// default in effect at each call.
func NewDefaultLogger(l *slog.Logger) *DefaultLogger {
	return &DefaultLogger{
		logger: l,
	}
}

func (l *DefaultLogger) get(ctx context.Context) *slog.Logger {
	if l == nil {
		return logger.Enrich(ctx, nil)
	}

	return logger.Enrich(ctx, l.logger)
}

func (l *DefaultLogger) StateEntered(ctx context.Context, _, _ string) {
	l.get(ctx).DebugContext(ctx, "State entered")
}

func (l *DefaultLogger) StateExited(
	ctx context.Context, _, _ string, event any, duration time.Duration, err error,
) {
	fields := []any{
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		l.get(ctx).ErrorContext(ctx, "State exited with error", append(fields, "error", err)...)
	} else {
		l.get(ctx).InfoContext(ctx, "State exited", append(fields, "event", event)...)
	}
}

func (l *DefaultLogger) TransitionTaken(ctx context.Context, _, from, to string, event any) {
	l.get(ctx).InfoContext(ctx, "Transition taken",
		"from", from,
		"to", to,
		"event", event,
	)
}

func (l *DefaultLogger) FlowFinished(
	ctx context.Context, _, operation string, memento Memento, complete bool, duration time.Duration, err error,
) {
	fields := []any{
		"operation", operation,
		"memento", string(memento),
		"complete", complete,
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		l.get(ctx).ErrorContext(ctx, "Flow execution failed", append(fields, "error", err)...)
	} else {
		l.get(ctx).InfoContext(ctx, "Flow execution finished", fields...)
	}
}

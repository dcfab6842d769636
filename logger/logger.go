// Package logger configures slog for applications embedding flows and hands out
// loggers enriched with the flow, state and execution carried by a context.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/amp-labs/amp-flow/envutil"
	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	otellog "go.opentelemetry.io/otel/log"
)

// Used to tag every log line with the part of the system that produced it.
var subsystem atomic.Value //nolint:gochecknoglobals

// configMutex serializes ConfigureLoggingWithOptions, which replaces global state.
var configMutex sync.Mutex //nolint:gochecknoglobals

type contextKey string

const (
	keyMute        = contextKey("mute")
	keySubsystem   = contextKey("subsystem")
	keyFlow        = contextKey("flow")
	keyState       = contextKey("state")
	keyExecutionID = contextKey("execution_id")
	keyValues      = contextKey("loggerValues")
)

// Options is used to configure logging.
type Options struct {
	Subsystem   string
	JSON        bool
	MinLevel    slog.Level
	LegacyLevel slog.Level
	Output      io.Writer

	// LoggerProvider, when set, additionally ships every record through the
	// OpenTelemetry slog bridge.
	LoggerProvider otellog.LoggerProvider
}

// ConfigureLoggingWithOptions configures logging for the application and
// returns the default logger. Concurrent calls are serialized.
func ConfigureLoggingWithOptions(opts Options) *slog.Logger {
	configMutex.Lock()
	defer configMutex.Unlock()

	var handler slog.Handler

	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	if opts.JSON {
		handler = slog.NewJSONHandler(opts.Output, &slog.HandlerOptions{
			Level: opts.MinLevel,
		})
	} else {
		handler = slog.NewTextHandler(opts.Output, &slog.HandlerOptions{
			Level: opts.MinLevel,
		})
	}

	if opts.LoggerProvider != nil {
		name := opts.Subsystem
		if name == "" {
			name = "amp-flow"
		}

		handler = slogmulti.Fanout(
			handler,
			otelslog.NewHandler(name, otelslog.WithLoggerProvider(opts.LoggerProvider)),
		)
	}

	logger := slog.New(handler)

	slog.SetDefault(logger)

	// Third party packages may still use the log package.
	def := log.Default()
	*def = *slog.NewLogLogger(handler, opts.LegacyLevel)

	subsystem.Store(opts.Subsystem)

	return logger
}

// Option is a functional option for configuring logging via ConfigureLogging.
type Option func(*Options)

// WithLoggerProvider routes records to an OpenTelemetry log provider as well.
func WithLoggerProvider(provider otellog.LoggerProvider) Option {
	return func(o *Options) {
		o.LoggerProvider = provider
	}
}

// ErrInvalidLogOutput is returned when an invalid log output destination is specified.
var ErrInvalidLogOutput = errors.New("invalid log output")

// ConfigureLogging configures logging from the LOG_JSON, LOG_LEVEL,
// LEGACY_LOG_LEVEL and LOG_OUTPUT environment variables.
func ConfigureLogging(ctx context.Context, app string, opts ...Option) *slog.Logger {
	logJSON := envutil.BoolContext(ctx, "LOG_JSON", envutil.Default(false)).ValueOrFatal()

	minLevel := envutil.SlogLevelContext(ctx, "LOG_LEVEL", envutil.Default(slog.LevelInfo)).ValueOrFatal()

	legacyLevel := envutil.SlogLevelContext(ctx, "LEGACY_LOG_LEVEL", envutil.Default(slog.LevelInfo)).ValueOrFatal()

	output := envutil.Map(envutil.StringContext(ctx, "LOG_OUTPUT"), func(outName string) (io.Writer, error) {
		switch outName {
		case "stdout":
			return os.Stdout, nil
		case "stderr":
			return os.Stderr, nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidLogOutput, outName)
		}
	}).WithDefault(os.Stdout).ValueOrFatal()

	options := Options{
		Subsystem:   app,
		JSON:        logJSON,
		MinLevel:    minLevel,
		LegacyLevel: legacyLevel,
		Output:      output,
	}

	for _, o := range opts {
		o(&options)
	}

	return ConfigureLoggingWithOptions(options)
}

// WithMuted marks the context as muted. Loggers obtained from a muted context
// discard everything.
func WithMuted(ctx context.Context, muted bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, keyMute, muted)
}

func isMuted(ctx context.Context) bool {
	muted, ok := ctx.Value(keyMute).(bool)

	return ok && muted
}

// WithSubsystem overrides the subsystem for loggers obtained from the context.
func WithSubsystem(ctx context.Context, subsystem string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, keySubsystem, subsystem)
}

// GetSubsystem returns the subsystem from the context, or the configured default.
func GetSubsystem(ctx context.Context) string { //nolint:contextcheck
	if ctx == nil {
		ctx = context.Background()
	}

	if val, ok := ctx.Value(keySubsystem).(string); ok {
		return val
	}

	if val, ok := subsystem.Load().(string); ok {
		return val
	}

	return ""
}

// WithFlow records the name of the running flow.
func WithFlow(ctx context.Context, flow string) context.Context {
	return withString(ctx, keyFlow, flow)
}

// WithState records the name of the state being handled.
func WithState(ctx context.Context, state string) context.Context {
	return withString(ctx, keyState, state)
}

// WithExecutionID records the id of the current Start or Resume call.
func WithExecutionID(ctx context.Context, id string) context.Context {
	return withString(ctx, keyExecutionID, id)
}

// GetFlow returns the flow name stored in the context.
func GetFlow(ctx context.Context) (string, bool) {
	return getString(ctx, keyFlow)
}

// GetState returns the state name stored in the context.
func GetState(ctx context.Context) (string, bool) {
	return getString(ctx, keyState)
}

// GetExecutionID returns the execution id stored in the context.
func GetExecutionID(ctx context.Context) (string, bool) {
	return getString(ctx, keyExecutionID)
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, key, value)
}

func getString(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}

	val, ok := ctx.Value(key).(string)

	return val, ok
}

// getRealContext returns the first non-nil context, or context.Background().
func getRealContext(ctx ...context.Context) context.Context {
	for _, c := range ctx {
		if c != nil {
			return c
		}
	}

	return context.Background()
}

// nullHandler discards everything; it backs muted loggers.
type nullHandler struct{}

func (n *nullHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return false
}

func (n *nullHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (n *nullHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return n
}

func (n *nullHandler) WithGroup(_ string) slog.Handler {
	return n
}

var nullLogger = slog.New(&nullHandler{}) //nolint:gochecknoglobals

// Get returns the default logger enriched with the subsystem and with the flow,
// state and execution id found in the context, plus any values added with With.
//
//nolint:contextcheck
func Get(ctx ...context.Context) *slog.Logger {
	return Enrich(getRealContext(ctx...), slog.Default())
}

// Enrich adds the attributes Get would add to an arbitrary base logger. A nil
// base means the slog default.
func Enrich(ctx context.Context, base *slog.Logger) *slog.Logger {
	if ctx == nil {
		ctx = context.Background()
	}

	if isMuted(ctx) {
		return nullLogger
	}

	logger := base
	if logger == nil {
		logger = slog.Default()
	}

	if sub := GetSubsystem(ctx); sub != "" {
		logger = logger.With("subsystem", sub)
	}

	if flow, ok := GetFlow(ctx); ok {
		logger = logger.With("flow", flow)
	}

	if state, ok := GetState(ctx); ok {
		logger = logger.With("state", state)
	}

	if id, ok := GetExecutionID(ctx); ok {
		logger = logger.With("execution_id", id)
	}

	if vals := getValues(ctx); vals != nil {
		logger = logger.With(vals...)
	}

	return logger
}

// With returns a new context with the given key-value pairs added. They are
// attached to every logger obtained from it.
func With(ctx context.Context, values ...any) context.Context {
	if len(values) == 0 && ctx != nil {
		return ctx
	}

	if ctx == nil {
		ctx = context.Background()
	}

	existing := getValues(ctx)
	vals := make([]any, 0, len(existing)+len(values))
	vals = append(vals, existing...)
	vals = append(vals, values...)

	return context.WithValue(ctx, keyValues, vals)
}

func getValues(ctx context.Context) []any { //nolint:contextcheck
	if ctx == nil {
		return nil
	}

	vals, _ := ctx.Value(keyValues).([]any)

	return vals
}

// Package envutil reads typed process settings from environment variables.
package envutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type envContextKey string

// WithEnvOverride returns a context in which the given key reads as value,
// regardless of the process environment. Readers ending in Context honor it.
func WithEnvOverride(ctx context.Context, key string, value string) context.Context {
	return context.WithValue(ctx, envContextKey(key), value)
}

// get reads key from the process environment. A blank value counts as unset.
func get(key string) Reader[string] {
	val, ok := os.LookupEnv(key)

	return Reader[string]{
		key:     key,
		present: ok && strings.TrimSpace(val) != "",
		value:   val,
	}
}

func getContext(ctx context.Context, key string) Reader[string] {
	if ctx != nil {
		if val, ok := ctx.Value(envContextKey(key)).(string); ok {
			return Reader[string]{key: key, present: true, value: val}
		}
	}

	return get(key)
}

// NewReader returns a Reader for the given raw data.
func NewReader[T any](key string, present bool, err error, value T) Reader[T] {
	return Reader[T]{
		key:     key,
		present: present,
		value:   value,
		err:     err,
	}
}

func apply[T any](rdr Reader[T], opts []Option[T]) Reader[T] {
	for _, opt := range opts {
		rdr = opt(rdr)
	}

	return rdr
}

// String returns a Reader for the given environment variable key.
func String(key string, opts ...Option[string]) Reader[string] {
	return apply(get(key), opts)
}

// StringContext is String with per-context overrides.
func StringContext(ctx context.Context, key string, opts ...Option[string]) Reader[string] {
	return apply(getContext(ctx, key), opts)
}

func Bool(key string, opts ...Option[bool]) Reader[bool] {
	return apply(Map(get(key), parseBool), opts)
}

// BoolContext is Bool with per-context overrides.
func BoolContext(ctx context.Context, key string, opts ...Option[bool]) Reader[bool] {
	return apply(Map(getContext(ctx, key), parseBool), opts)
}

func Int(key string, opts ...Option[int]) Reader[int] {
	return apply(Map(get(key), parseInt), opts)
}

// IntContext is Int with per-context overrides.
func IntContext(ctx context.Context, key string, opts ...Option[int]) Reader[int] {
	return apply(Map(getContext(ctx, key), parseInt), opts)
}

func Duration(key string, opts ...Option[time.Duration]) Reader[time.Duration] {
	return apply(Map(get(key), parseDuration), opts)
}

// DurationContext is Duration with per-context overrides.
func DurationContext(ctx context.Context, key string, opts ...Option[time.Duration]) Reader[time.Duration] {
	return apply(Map(getContext(ctx, key), parseDuration), opts)
}

// SlogLevel returns a Reader for the given environment variable key.
func SlogLevel(key string, opts ...Option[slog.Level]) Reader[slog.Level] {
	return apply(Map(get(key), parseSlogLevel), opts)
}

// SlogLevelContext is SlogLevel with per-context overrides.
func SlogLevelContext(ctx context.Context, key string, opts ...Option[slog.Level]) Reader[slog.Level] {
	return apply(Map(getContext(ctx, key), parseSlogLevel), opts)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

// parseDuration accepts Go duration strings, and bare integers as milliseconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	return time.ParseDuration(s)
}

func parseSlogLevel(s string) (slog.Level, error) {
	var level slog.Level

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warning":
		return slog.LevelWarn, nil
	case "fatal", "critical":
		return slog.LevelError, nil
	}

	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, err
	}

	return level, nil
}

// Package telemetry wires flow spans and logs to an OpenTelemetry collector
// over OTLP/HTTP.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/amp-labs/amp-flow/envutil"
	"github.com/amp-labs/amp-flow/logger"
	"github.com/amp-labs/amp-flow/shutdown"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	defaultServiceVersion = "1.0.0"
	defaultTimeout        = 5 * time.Second
	kubernetesCollector   = "http://opentelemetry-collector.opentelemetry.svc.cluster.local:4318"
)

// Config holds the OpenTelemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Enabled        bool
	Logs           bool
	Timeout        time.Duration
}

// Providers are the SDK providers installed by Initialize. Pass Logger to
// logger.WithLoggerProvider to ship slog records as well.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Logger *sdklog.LoggerProvider
}

var (
	mu        sync.Mutex
	installed *Providers
)

// LoadConfigFromEnv loads the configuration from OTEL_* environment variables.
func LoadConfigFromEnv(ctx context.Context, runningEnv string) (*Config, error) {
	enabled := envutil.BoolContext(ctx, "OTEL_ENABLED",
		envutil.Default(false)).
		ValueOrElse(false)

	logs := envutil.BoolContext(ctx, "OTEL_LOGS_ENABLED",
		envutil.Default(true)).
		ValueOrElse(true)

	defaultEndpoint := ""
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		defaultEndpoint = kubernetesCollector
	}

	svcName, err := envutil.StringContext(ctx, "OTEL_SERVICE_NAME",
		envutil.Default(logger.GetSubsystem(ctx))).
		Value()
	if err != nil {
		return nil, err
	}

	svcVersion, err := envutil.StringContext(ctx, "OTEL_SERVICE_VERSION",
		envutil.Default(defaultServiceVersion)).
		Value()
	if err != nil {
		return nil, err
	}

	endpoint, err := envutil.StringContext(ctx, "OTEL_EXPORTER_OTLP_ENDPOINT",
		envutil.Default(defaultEndpoint)).
		Value()
	if err != nil {
		return nil, err
	}

	timeout, err := envutil.DurationContext(ctx, "OTEL_EXPORTER_OTLP_TIMEOUT",
		envutil.Default(defaultTimeout)).
		Value()
	if err != nil {
		return nil, err
	}

	return &Config{
		ServiceName:    svcName,
		ServiceVersion: svcVersion,
		Environment:    runningEnv,
		Endpoint:       endpoint,
		Enabled:        enabled,
		Logs:           logs,
		Timeout:        timeout,
	}, nil
}

// Initialize installs global tracer and logger providers exporting to the
// configured endpoint. It returns nil providers when telemetry is disabled.
func Initialize(ctx context.Context, config *Config) (*Providers, error) {
	log := logger.Get(ctx)

	if !config.Enabled {
		log.Info("OpenTelemetry is disabled")

		return nil, nil //nolint:nilnil
	}

	if config.Endpoint == "" {
		log.Warn("OpenTelemetry endpoint not configured, telemetry will be disabled")

		return nil, nil //nolint:nilnil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceExporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(config.Endpoint),
		otlptracehttp.WithTimeout(config.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	providers := &Providers{
		Tracer: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		),
	}

	if config.Logs {
		logExporter, err := otlploghttp.New(ctx,
			otlploghttp.WithEndpointURL(config.Endpoint),
			otlploghttp.WithTimeout(config.Timeout),
		)
		if err != nil {
			return nil, errors.Join(
				fmt.Errorf("failed to create OTLP log exporter: %w", err),
				providers.Tracer.Shutdown(ctx),
			)
		}

		providers.Logger = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		)

		global.SetLoggerProvider(providers.Logger)
	}

	otel.SetTracerProvider(providers.Tracer)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	mu.Lock()
	installed = providers
	mu.Unlock()

	shutdown.BeforeShutdown(func(ctx context.Context) {
		if err := Shutdown(ctx); err != nil {
			logger.Get(ctx).Error("Failed to shut down OpenTelemetry", "error", err)
		}
	})

	log.Info("OpenTelemetry initialized",
		slog.String("service", config.ServiceName),
		slog.String("version", config.ServiceVersion),
		slog.String("environment", config.Environment),
		slog.String("endpoint", config.Endpoint),
		slog.Bool("logs", providers.Logger != nil),
	)

	return providers, nil
}

// Shutdown flushes and shuts down the providers installed by Initialize.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	providers := installed
	installed = nil
	mu.Unlock()

	if providers == nil {
		return nil
	}

	logger.Get(ctx).Info("Shutting down OpenTelemetry providers")

	var errs []error

	if providers.Logger != nil {
		errs = append(errs, providers.Logger.Shutdown(ctx))
	}

	errs = append(errs, providers.Tracer.Shutdown(ctx))

	return errors.Join(errs...)
}

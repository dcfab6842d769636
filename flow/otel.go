package flow

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/amp-labs/amp-flow/flow"

// startExecutionSpan creates the root span of a Start or Resume call. It uses
// the global tracer provider, which the telemetry package configures.
//
//nolint:spancheck // Span lifecycle managed by caller
func startExecutionSpan(ctx context.Context, flow, operation, executionID string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "flow."+operation)
	span.SetAttributes(
		attribute.String("flow", flow),
		attribute.String("operation", operation),
		attribute.String("execution_id", executionID),
	)

	return ctx, span
}

// startStateSpan creates a child span for a single state visit.
//
//nolint:spancheck // Span lifecycle managed by caller
func startStateSpan(ctx context.Context, flow string, descriptor Descriptor, state string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "state."+state)
	span.SetAttributes(
		attribute.String("flow", flow),
		attribute.String("state", state),
		attribute.String("kind", descriptor.Kind.String()),
	)

	if len(descriptor.Branches) > 0 {
		span.SetAttributes(attribute.StringSlice("branches", descriptor.Branches))
	}

	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "completed")
	}

	span.End()
}

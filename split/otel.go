package split

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/amp-labs/amp-flow/split"

//nolint:spancheck // Span lifecycle managed by caller
func startBranchSpan(ctx context.Context, split, branch string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "branch."+branch)
	span.SetAttributes(
		attribute.String("split", split),
		attribute.String("branch", branch),
	)

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

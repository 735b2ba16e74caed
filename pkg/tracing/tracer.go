// Package tracing provides the shared OTel tracer helper and the fx module
// that installs the TracerProvider.
//
// When no OTLP endpoint is configured the global no-op provider is used and
// every span is inert. Domain packages call tracing.Start rather than the
// OTel API directly.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "narrative"

// Start creates a span as a child of the span in ctx, or a root span when
// ctx carries none. The caller must End the span.
//
//	ctx, span := tracing.Start(ctx, "graphs.sync.parse",
//	    attribute.Int64("narrative.graph.id", graphID),
//	)
//	defer span.End()
func Start(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// Finish records err on span (if any), sets the status and ends the span.
func Finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

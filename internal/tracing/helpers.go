package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "boothpulse"

// StartSpan creates a span for a general operation and returns a function
// that ends it, recording err when non-nil.
//
//	ctx, endSpan := tracing.StartSpan(ctx, "load_calibration")
//	defer endSpan(err)
func StartSpan(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, name)
	return ctx, endFunc(span)
}

// StartPassSpan creates a span around one aggregation pass for view.
// Record the pass outcome with RecordPass before ending it.
func StartPassSpan(ctx context.Context, view string, events int) (context.Context, func(error)) {
	ctx, span := otel.Tracer(instrumentationName+"/views").Start(ctx, "view "+view,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("boothpulse.view", view),
			attribute.Int("boothpulse.events.received", events),
		),
	)
	return ctx, endFunc(span)
}

// RecordPass annotates the current span with the pass outcome.
func RecordPass(ctx context.Context, excluded, warnings int) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("boothpulse.events.excluded", excluded),
		attribute.Int("boothpulse.events.warnings", warnings),
	)
}

// StartSourceSpan creates a client span for fetching a snapshot.
func StartSourceSpan(ctx context.Context, source string) (context.Context, func(error)) {
	ctx, span := otel.Tracer(instrumentationName+"/source").Start(ctx, "fetch snapshot",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("boothpulse.source", source)),
	)
	return ctx, endFunc(span)
}

func endFunc(span trace.Span) func(error) {
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

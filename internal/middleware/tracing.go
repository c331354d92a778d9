package middleware

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attributes set on every traced request.
const (
	AttrRequestID = attribute.Key("boothpulse.request_id")
	AttrView      = attribute.Key("boothpulse.view")
)

// Tracing wraps handlers with an otelhttp server span per request, continuing
// any incoming traceparent through the global propagator. Spans are named
// "<METHOD> <route>" with the bounded route labels of HTTPMetrics and carry
// the request ID and, on view routes, the view name. Health checks are not traced.
//
// Place it inside RequestID so the ID is already in the context.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		annotated := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			span := trace.SpanFromContext(r.Context())
			if id := GetRequestID(r.Context()); id != "" {
				span.SetAttributes(AttrRequestID.String(id))
			}
			if view, ok := strings.CutPrefix(normalizePath(r.URL.Path), "/api/views/"); ok {
				span.SetAttributes(AttrView.String(view))
			}
			next.ServeHTTP(w, r)
		})
		return otelhttp.NewHandler(annotated, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + normalizePath(r.URL.Path)
			}),
			otelhttp.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" && r.URL.Path != "/ready"
			}),
		)
	}
}

// GetTraceID returns the active trace ID, or "" when no span is recording.
func GetTraceID(r *http.Request) string {
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// GetSpanID returns the active span ID, or "".
func GetSpanID(r *http.Request) string {
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		return sc.SpanID().String()
	}
	return ""
}

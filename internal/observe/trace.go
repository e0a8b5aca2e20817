package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// scopeName identifies voxgest spans in trace backends.
const scopeName = "github.com/voxgest/voxgest"

// Tracer returns the voxgest tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(scopeName)
}

// StartSpan opens a span under the voxgest scope. Capture loops and request
// handlers use it so a single utterance can be followed from segmentation
// through recognition to the chat reply. The caller ends the span.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// CorrelationID reports the active trace ID, or "" outside a span. Clients
// see the same value in the X-Correlation-ID response header, so a browser
// console error can be matched to server logs by this one string.
func CorrelationID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default slog logger annotated with the active trace and
// span IDs. Outside a span it is just [slog.Default].
func Logger(ctx context.Context) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return slog.Default()
	}
	return slog.Default().With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}

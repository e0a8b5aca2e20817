// Package observe provides application-wide observability primitives for
// voxgest: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxgest metrics.
const meterName = "github.com/voxgest/voxgest"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// RecognitionDuration tracks speech-to-text transcription latency.
	RecognitionDuration metric.Float64Histogram

	// GenerationDuration tracks LLM inference latency.
	GenerationDuration metric.Float64Histogram

	// SynthesisDuration tracks text-to-speech synthesis latency.
	SynthesisDuration metric.Float64Histogram

	// ClassificationDuration tracks gesture classification latency per frame.
	ClassificationDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// SegmentsEmitted counts utterance segments cut from the audio stream,
	// including those discarded as artifacts. Use with attribute:
	//   attribute.String("outcome", "recognized"|"not_recognized"|"artifact")
	SegmentsEmitted metric.Int64Counter

	// GesturesConfirmed counts confirmed gestures. Use with attribute:
	//   attribute.String("gesture", ...)
	GesturesConfirmed metric.Int64Counter

	// CommandsMatched counts voice commands matched and executed. Use with
	// attribute:
	//   attribute.String("command", ...)
	CommandsMatched metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveVoiceSessions tracks the number of live voice capture sessions.
	ActiveVoiceSessions metric.Int64UpDownCounter

	// ActiveGestureSessions tracks the number of live gesture capture
	// sessions.
	ActiveGestureSessions metric.Int64UpDownCounter

	// ConnectedClients tracks the number of open websocket connections.
	ConnectedClients metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for interactive pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.RecognitionDuration, err = m.Float64Histogram("voxgest.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.GenerationDuration, err = m.Float64Histogram("voxgest.llm.duration",
		metric.WithDescription("Latency of LLM inference."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisDuration, err = m.Float64Histogram("voxgest.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ClassificationDuration, err = m.Float64Histogram("voxgest.classify.duration",
		metric.WithDescription("Latency of gesture classification per video frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("voxgest.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsEmitted, err = m.Int64Counter("voxgest.voice.segments",
		metric.WithDescription("Total utterance segments cut from the audio stream by outcome."),
	); err != nil {
		return nil, err
	}
	if met.GesturesConfirmed, err = m.Int64Counter("voxgest.gesture.confirmations",
		metric.WithDescription("Total confirmed gestures by gesture label."),
	); err != nil {
		return nil, err
	}
	if met.CommandsMatched, err = m.Int64Counter("voxgest.command.matches",
		metric.WithDescription("Total voice commands matched by command name."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("voxgest.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveVoiceSessions, err = m.Int64UpDownCounter("voxgest.voice.active_sessions",
		metric.WithDescription("Number of live voice capture sessions."),
	); err != nil {
		return nil, err
	}
	if met.ActiveGestureSessions, err = m.Int64UpDownCounter("voxgest.gesture.active_sessions",
		metric.WithDescription("Number of live gesture capture sessions."),
	); err != nil {
		return nil, err
	}
	if met.ConnectedClients, err = m.Int64UpDownCounter("voxgest.ws.clients",
		metric.WithDescription("Number of open websocket connections."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxgest.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordSegment is a convenience method that records a segment counter
// increment with its outcome.
func (m *Metrics) RecordSegment(ctx context.Context, outcome string) {
	m.SegmentsEmitted.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordGestureConfirmation is a convenience method that records a confirmed
// gesture counter increment.
func (m *Metrics) RecordGestureConfirmation(ctx context.Context, gesture string) {
	m.GesturesConfirmed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("gesture", gesture)),
	)
}

// RecordCommandMatch is a convenience method that records a matched voice
// command counter increment.
func (m *Metrics) RecordCommandMatch(ctx context.Context, command string) {
	m.CommandsMatched.Add(ctx, 1,
		metric.WithAttributes(attribute.String("command", command)),
	)
}

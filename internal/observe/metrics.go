// Package observe provides the OpenTelemetry metric instruments for the
// correction pipeline.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) bound to the global meter
// provider is provided for convenience; tests should use [NewMetrics] with
// their own [metric.MeterProvider] to avoid cross-test pollution. With no SDK
// installed the global provider is a no-op, so recording is always safe.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all pipeline metrics.
const meterName = "github.com/takao11sep/vtt-improve-srt"

// Metrics holds all metric instruments for the pipeline. All fields are safe
// for concurrent use — the underlying OTel types handle their own
// synchronisation.
type Metrics struct {
	// OracleDuration tracks per-chunk oracle call latency. Use with
	// attribute.Int("pass", ...).
	OracleDuration metric.Float64Histogram

	// Chunks counts dispatched chunks. Use with attributes:
	//   attribute.Int("pass", ...), attribute.String("status", "ok"|"failed")
	Chunks metric.Int64Counter

	// FallbackSegments counts segments that kept their pre-chunk text
	// because the response did not cover them.
	FallbackSegments metric.Int64Counter

	// OracleFailures counts chunk-level oracle failures (network errors,
	// timeouts, empty responses surfaced as errors).
	OracleFailures metric.Int64Counter
}

// oracleLatencyBuckets defines histogram boundaries (in seconds) sized for
// remote completion calls rather than sub-second RPC.
var oracleLatencyBuckets = []float64{
	0.5, 1, 2.5, 5, 10, 20, 30, 60, 120,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.OracleDuration, err = m.Float64Histogram("vttsrt.oracle.duration",
		metric.WithDescription("Latency of one oracle correction call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(oracleLatencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Chunks, err = m.Int64Counter("vttsrt.chunks",
		metric.WithDescription("Total chunks dispatched by pass and status."),
	); err != nil {
		return nil, err
	}
	if met.FallbackSegments, err = m.Int64Counter("vttsrt.fallback.segments",
		metric.WithDescription("Total segments that fell back to their pre-chunk text."),
	); err != nil {
		return nil, err
	}
	if met.OracleFailures, err = m.Int64Counter("vttsrt.oracle.failures",
		metric.WithDescription("Total chunk-level oracle failures."),
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

// RecordChunk records one dispatched chunk with the standard attribute set.
func (m *Metrics) RecordChunk(ctx context.Context, pass int, status string) {
	m.Chunks.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("pass", pass),
		attribute.String("status", status),
	))
}

package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the dashboard's metric instruments.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
	errorCount      metric.Int64Counter
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
}

// NewMetrics creates the instruments with the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	return newMetrics(mp.Meter(MeterName))
}

func newMetrics(meter metric.Meter) *Metrics {
	m := &Metrics{}

	// Instrument creation only fails on invalid parameters; fall back to an
	// undescribed instrument so recording never hits a nil.
	var err error

	m.requestDuration, err = meter.Float64Histogram(
		"inventrack.api.duration",
		metric.WithDescription("Duration of backend API calls in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.requestDuration, _ = meter.Float64Histogram("inventrack.api.duration")
	}

	m.requestCount, err = meter.Int64Counter(
		"inventrack.api.count",
		metric.WithDescription("Total number of backend API calls"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.requestCount, _ = meter.Int64Counter("inventrack.api.count")
	}

	m.errorCount, err = meter.Int64Counter(
		"inventrack.api.errors",
		metric.WithDescription("Total number of failed backend API calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.errorCount, _ = meter.Int64Counter("inventrack.api.errors")
	}

	m.cacheHits, err = meter.Int64Counter(
		"inventrack.cache.hits",
		metric.WithDescription("Collection cache hits"),
	)
	if err != nil {
		m.cacheHits, _ = meter.Int64Counter("inventrack.cache.hits")
	}

	m.cacheMisses, err = meter.Int64Counter(
		"inventrack.cache.misses",
		metric.WithDescription("Collection cache misses"),
	)
	if err != nil {
		m.cacheMisses, _ = meter.Int64Counter("inventrack.cache.misses")
	}

	return m
}

// RecordCall records a completed backend call.
func (m *Metrics) RecordCall(ctx context.Context, resource, operation string, statusCode int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(AttrResource, resource),
		attribute.String(AttrOperation, operation),
		attribute.Int("http.status_code", statusCode),
	)
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	m.requestCount.Add(ctx, 1, attrs)
}

// RecordError records a failed backend call.
func (m *Metrics) RecordError(ctx context.Context, resource, operation, errorType string) {
	m.errorCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrResource, resource),
		attribute.String(AttrOperation, operation),
		attribute.String("error.type", errorType),
	))
}

// RecordCacheLookup records a cache hit or miss for key.
func (m *Metrics) RecordCacheLookup(ctx context.Context, key string, hit bool) {
	attrs := metric.WithAttributes(attribute.String(AttrCacheKey, key))
	if hit {
		m.cacheHits.Add(ctx, 1, attrs)
		return
	}
	m.cacheMisses.Add(ctx, 1, attrs)
}

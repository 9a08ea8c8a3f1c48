package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys.
const (
	AttrResource    = "inventrack.resource"
	AttrOperation   = "inventrack.operation"
	AttrRequestID   = "inventrack.request_id"
	AttrResultCount = "inventrack.result_count"
	AttrCacheKey    = "inventrack.cache.key"
)

// Operations recorded on backend calls.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Tracer wraps an OpenTelemetry tracer with backend-call span helpers.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer using the given TracerProvider.
func NewTracer(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// StartCall starts a span for a call against a backend resource.
func (t *Tracer) StartCall(ctx context.Context, resource, operation string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "inventrack.api."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrResource, resource),
			attribute.String(AttrOperation, operation),
		),
	)
}

// StartCacheFill starts a span for filling a cache key from the backend.
func (t *Tracer) StartCacheFill(ctx context.Context, key string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "inventrack.cache.fill",
		trace.WithAttributes(attribute.String(AttrCacheKey, key)),
	)
}

// EndSpan ends the span, recording err if non-nil.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

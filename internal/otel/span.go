// Package otel provides tracing helpers shared by the sync passes, storage and transport.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used across spans.
const (
	AttrClusterUUID = attribute.Key("cluster.uuid")
	AttrJobUUID     = attribute.Key("job.uuid")
	AttrJobType     = attribute.Key("job.type")
	AttrNodeCount   = attribute.Key("nodes.count")
	AttrProfileURL  = attribute.Key("profile.url")
	AttrStream      = attribute.Key("messaging.stream")
)

// StartSpan starts a span on tracer, or returns the span already in ctx when
// tracer is nil.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed. The status text stays generic so that
// connection strings or SQL never end up in it; details go to the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}

// Package otel provides OpenTelemetry span helpers shared by the sync engine.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on sync spans
const (
	AttrRunID       = attribute.Key("sync.run_id")
	AttrPath        = attribute.Key("sync.path")
	AttrDestination = attribute.Key("sync.destination")
	AttrTrigger     = attribute.Key("sync.trigger")
	AttrRole        = attribute.Key("redundancy.role")
	AttrLaunched    = attribute.Key("sync.launched")
	AttrFailed      = attribute.Key("sync.failed")
	AttrAttempts    = attribute.Key("sync.attempts")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a no-op span
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

// RecordError records err on span and marks the span as failed with
// description. Paths stay out of the status; they are span attributes.
func RecordError(span trace.Span, err error, description string) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, description)
	}
}

// MarkFailed sets an error status without an error value
func MarkFailed(span trace.Span, description string) {
	if span != nil {
		span.SetStatus(codes.Error, description)
	}
}

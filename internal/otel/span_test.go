package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// newTestTracerProvider creates a tracer provider with in-memory exporter for testing.
func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, trace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func TestStartSpan_NilTracer(t *testing.T) {
	t.Parallel()

	resultCtx, span := StartSpan(context.Background(), nil, "sync.path")

	require.NotNil(t, resultCtx)
	require.NotNil(t, span)
	assert.False(t, span.SpanContext().IsValid(), "nil tracer should return no-op span")
	assert.NotPanics(t, func() { span.End() })
}

func TestStartSpan_ValidTracer(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)

	_, span := StartSpan(context.Background(), tp.Tracer("test-tracer"), "sync.path",
		trace.WithAttributes(AttrPath.String("/etc/a.conf"), AttrTrigger.String("periodic")),
	)
	require.True(t, span.SpanContext().IsValid())
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "sync.path", spans[0].Name)

	attrs := map[string]string{}
	for _, attr := range spans[0].Attributes {
		attrs[string(attr.Key)] = attr.Value.AsString()
	}
	assert.Equal(t, "/etc/a.conf", attrs["sync.path"])
	assert.Equal(t, "periodic", attrs["sync.trigger"])
}

func TestRecordError_NilSafety(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { RecordError(nil, errors.New("boom"), "transfer failed") })
	assert.NotPanics(t, func() { MarkFailed(nil, "retry abandoned") })

	exporter, tp := newTestTracerProvider(t)
	_, span := tp.Tracer("test-tracer").Start(context.Background(), "test")
	RecordError(span, nil, "transfer failed")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status.Code, "nil error should not set error status")
	assert.Empty(t, spans[0].Events)
}

func TestRecordError_RecordsError(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	_, span := tp.Tracer("test-tracer").Start(context.Background(), "sync.path")
	RecordError(span, errors.New("exit status 23"), "transfer failed")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "transfer failed", spans[0].Status.Description)

	var hasException bool
	for _, event := range spans[0].Events {
		if event.Name == "exception" {
			hasException = true
		}
	}
	assert.True(t, hasException, "should record exception event")
}

func TestMarkFailed(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	_, span := tp.Tracer("test-tracer").Start(context.Background(), "sync.full")
	MarkFailed(span, "full sync failed")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "full sync failed", spans[0].Status.Description)
}

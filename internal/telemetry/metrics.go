package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync engine meter
	SyncMetricsMeterName = "github.com/stacklok/data-sync/sync"
)

// SyncMetrics holds the OpenTelemetry instruments for the sync engine
type SyncMetrics struct {
	fullSyncDuration metric.Float64Histogram
	transfersTotal   metric.Int64Counter
	rulesEligible    metric.Int64Gauge
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	fullSyncDuration, err := meter.Float64Histogram(
		"data_sync_full_sync_duration_seconds",
		metric.WithDescription("Duration of full sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, err
	}

	transfersTotal, err := meter.Int64Counter(
		"data_sync_transfers_total",
		metric.WithDescription("Total number of path transfers"),
		metric.WithUnit("{transfer}"),
	)
	if err != nil {
		return nil, err
	}

	rulesEligible, err := meter.Int64Gauge(
		"data_sync_rules_eligible",
		metric.WithDescription("Number of rules eligible under the current role"),
		metric.WithUnit("{rule}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		fullSyncDuration: fullSyncDuration,
		transfersTotal:   transfersTotal,
		rulesEligible:    rulesEligible,
	}, nil
}

// RecordFullSync records the duration and outcome of a full sync run
func (m *SyncMetrics) RecordFullSync(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || m.fullSyncDuration == nil {
		return
	}

	m.fullSyncDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordTransfer counts one path transfer for the given trigger
func (m *SyncMetrics) RecordTransfer(ctx context.Context, trigger string, success bool) {
	if m == nil || m.transfersTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("trigger", trigger),
		attribute.Bool("success", success),
	}

	m.transfersTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEligibleRules records how many rules the unit acts on
func (m *SyncMetrics) RecordEligibleRules(ctx context.Context, role string, count int64) {
	if m == nil || m.rulesEligible == nil {
		return
	}

	m.rulesEligible.Record(ctx, count, metric.WithAttributes(attribute.String("role", role)))
}

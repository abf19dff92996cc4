package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/stacklok/data-sync/internal/otel"
	"github.com/stacklok/data-sync/internal/rules"
	"github.com/stacklok/data-sync/internal/telemetry"
	"github.com/stacklok/data-sync/internal/transfer"
)

// Trigger names what caused a path sync
type Trigger string

const (
	// TriggerFull is a path sync launched by a full-sync run
	TriggerFull Trigger = "full"

	// TriggerPeriodic is a path sync launched by the periodic scheduler
	TriggerPeriodic Trigger = "periodic"

	// TriggerImmediate is a path sync launched by change detection
	TriggerImmediate Trigger = "immediate"
)

type triggerKey struct{}

// WithTrigger tags ctx with the trigger of the path syncs run under it
func WithTrigger(ctx context.Context, trigger Trigger) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

// TriggerFromContext returns the trigger stored in ctx, TriggerFull by default
func TriggerFromContext(ctx context.Context) Trigger {
	if trigger, ok := ctx.Value(triggerKey{}).(Trigger); ok {
		return trigger
	}
	return TriggerFull
}

// Executor performs the transfer of a single rule
//
//go:generate mockgen -destination=mocks/mock_executor.go -package=mocks github.com/stacklok/data-sync/internal/sync Executor
type Executor interface {
	// SyncOne copies rule's path to its destination and reports success.
	// Failures are logged, never returned.
	SyncOne(ctx context.Context, rule rules.SyncRule) bool
}

// RetryPolicy decides whether a failed transfer is attempted again
type RetryPolicy interface {
	// Next returns the delay before the next attempt and whether to retry.
	// attempt is 1 for the first failure.
	Next(attempt int, err error) (time.Duration, bool)
}

// NoRetry never retries
type NoRetry struct{}

// Next always declines
func (NoRetry) Next(int, error) (time.Duration, bool) {
	return 0, false
}

// defaultExecutor is the default implementation of Executor
type defaultExecutor struct {
	transferer transfer.Transferer
	retry      RetryPolicy
	clock      clockwork.Clock
	metrics    *telemetry.SyncMetrics
	tracer     trace.Tracer
}

// ExecutorOption configures the executor
type ExecutorOption func(*defaultExecutor)

// WithRetryPolicy replaces the NoRetry default
func WithRetryPolicy(policy RetryPolicy) ExecutorOption {
	return func(e *defaultExecutor) {
		e.retry = policy
	}
}

// WithExecutorClock sets the clock used to wait between retries
func WithExecutorClock(clock clockwork.Clock) ExecutorOption {
	return func(e *defaultExecutor) {
		e.clock = clock
	}
}

// WithExecutorMetrics sets the metrics transfers are counted in
func WithExecutorMetrics(metrics *telemetry.SyncMetrics) ExecutorOption {
	return func(e *defaultExecutor) {
		e.metrics = metrics
	}
}

// WithExecutorTracerProvider sets where transfer spans are recorded
func WithExecutorTracerProvider(provider trace.TracerProvider) ExecutorOption {
	return func(e *defaultExecutor) {
		if provider != nil {
			e.tracer = provider.Tracer(telemetry.SyncTracerName)
		}
	}
}

// NewExecutor creates an Executor running transfers through t
func NewExecutor(t transfer.Transferer, opts ...ExecutorOption) Executor {
	e := &defaultExecutor{
		transferer: t,
		retry:      NoRetry{},
		clock:      clockwork.NewRealClock(),
		tracer:     noop.NewTracerProvider().Tracer(telemetry.SyncTracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SyncOne runs the transfer for rule. The transfer itself ignores
// cancellation of ctx so an in-flight copy is never cut short.
func (e *defaultExecutor) SyncOne(ctx context.Context, rule rules.SyncRule) bool {
	trigger := TriggerFromContext(ctx)
	src, dst := rule.Path, rule.Destination()

	ctx, span := otel.StartSpan(ctx, e.tracer, "sync.path",
		trace.WithAttributes(
			otel.AttrPath.String(src),
			otel.AttrDestination.String(dst),
			otel.AttrTrigger.String(string(trigger)),
		),
	)
	defer span.End()

	transferCtx := context.WithoutCancel(ctx)

	for attempt := 1; ; attempt++ {
		err := e.transferer.Transfer(transferCtx, src, dst)
		if err == nil {
			slog.Debug("Path synced",
				"path", src,
				"destination", dst,
				"trigger", trigger,
				"attempt", attempt)
			e.metrics.RecordTransfer(ctx, string(trigger), true)
			return true
		}

		delay, retry := e.retry.Next(attempt, err)
		if !retry || ctx.Err() != nil {
			slog.Error("Error syncing",
				"path", src,
				"destination", dst,
				"trigger", trigger,
				"attempt", attempt,
				"error", err)
			span.SetAttributes(otel.AttrAttempts.Int(attempt))
			otel.RecordError(span, err, "transfer failed")
			e.metrics.RecordTransfer(ctx, string(trigger), false)
			return false
		}

		slog.Warn("Path sync failed, retrying",
			"path", src,
			"attempt", attempt,
			"retry_in", delay,
			"error", err)

		select {
		case <-ctx.Done():
			slog.Warn("Retry abandoned on shutdown", "path", src, "attempt", attempt)
			otel.MarkFailed(span, "retry abandoned")
			e.metrics.RecordTransfer(ctx, string(trigger), false)
			return false
		case <-e.clock.After(delay):
		}
	}
}

package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/data-sync/internal/facts"
	"github.com/stacklok/data-sync/internal/otel"
	"github.com/stacklok/data-sync/internal/rules"
	"github.com/stacklok/data-sync/internal/status"
	"github.com/stacklok/data-sync/internal/telemetry"
)

// ErrRunInProgress is returned when a full sync is requested while one runs
var ErrRunInProgress = status.ErrInProgress

// Result summarizes a finished full-sync run
type Result struct {
	RunID     string                `json:"run_id"`
	Status    status.FullSyncStatus `json:"status"`
	Launched  int                   `json:"launched"`
	Failed    int                   `json:"failed"`
	StartedAt time.Time             `json:"started_at"`
	Duration  time.Duration         `json:"duration_ns"`
}

// Succeeded reports whether every launched rule succeeded
func (r *Result) Succeeded() bool {
	return r.Status == status.FullSyncCompleted
}

// Manager runs full syncs and owns the full-sync status
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/data-sync/internal/sync Manager
type Manager interface {
	// RunFullSync runs one full sync to completion. It fails with
	// ErrRunInProgress without side effects when a run is in progress.
	RunFullSync(ctx context.Context) (*Result, error)

	// TryStart moves the status to InProgress and runs the full sync in the
	// background. The returned channel yields the result once and is closed.
	TryStart(ctx context.Context) (<-chan *Result, error)

	// Status returns the current full-sync status without blocking
	Status() status.FullSyncStatus

	// Rules returns the configured rule list
	Rules() []rules.SyncRule
}

// defaultManager is the default implementation of Manager
type defaultManager struct {
	rules    []rules.SyncRule
	facts    facts.Provider
	executor Executor
	tracker  *status.Tracker
	writer   *status.Writer

	records     status.RecordStore
	maxParallel int
	clock       clockwork.Clock
	metrics     *telemetry.SyncMetrics
	tracer      trace.Tracer
}

// ManagerOption configures the manager
type ManagerOption func(*defaultManager)

// WithRecordStore persists a record of every finished run
func WithRecordStore(store status.RecordStore) ManagerOption {
	return func(m *defaultManager) {
		m.records = store
	}
}

// WithMaxParallel bounds how many transfers of a run execute at once.
// Zero or less means unbounded.
func WithMaxParallel(n int) ManagerOption {
	return func(m *defaultManager) {
		m.maxParallel = n
	}
}

// WithClock sets the clock used for run timestamps
func WithClock(clock clockwork.Clock) ManagerOption {
	return func(m *defaultManager) {
		m.clock = clock
	}
}

// WithSyncMetrics sets the metrics runs are recorded in
func WithSyncMetrics(metrics *telemetry.SyncMetrics) ManagerOption {
	return func(m *defaultManager) {
		m.metrics = metrics
	}
}

// WithTracerProvider sets where run spans are recorded
func WithTracerProvider(provider trace.TracerProvider) ManagerOption {
	return func(m *defaultManager) {
		if provider != nil {
			m.tracer = provider.Tracer(telemetry.SyncTracerName)
		}
	}
}

// NewManager creates a Manager over an immutable rule list. It claims the
// tracker's writer, so at most one Manager exists per tracker.
func NewManager(
	ruleList []rules.SyncRule,
	provider facts.Provider,
	executor Executor,
	tracker *status.Tracker,
	opts ...ManagerOption,
) (Manager, error) {
	writer, err := tracker.Claim()
	if err != nil {
		return nil, fmt.Errorf("failed to claim full sync status: %w", err)
	}

	m := &defaultManager{
		rules:    append([]rules.SyncRule(nil), ruleList...),
		facts:    provider,
		executor: executor,
		tracker:  tracker,
		writer:   writer,
		clock:    clockwork.NewRealClock(),
		tracer:   noop.NewTracerProvider().Tracer(telemetry.SyncTracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// RunFullSync runs a full sync in the calling goroutine
func (m *defaultManager) RunFullSync(ctx context.Context) (*Result, error) {
	started, err := m.begin()
	if err != nil {
		return nil, err
	}
	return m.run(ctx, started), nil
}

// TryStart begins a run synchronously and finishes it in the background
func (m *defaultManager) TryStart(ctx context.Context) (<-chan *Result, error) {
	started, err := m.begin()
	if err != nil {
		return nil, err
	}

	done := make(chan *Result, 1)
	go func() {
		defer close(done)
		done <- m.run(ctx, started)
	}()
	return done, nil
}

func (m *defaultManager) Status() status.FullSyncStatus {
	return m.tracker.Get()
}

func (m *defaultManager) Rules() []rules.SyncRule {
	return append([]rules.SyncRule(nil), m.rules...)
}

func (m *defaultManager) begin() (time.Time, error) {
	if err := m.writer.Begin(); err != nil {
		if errors.Is(err, status.ErrInProgress) {
			return time.Time{}, ErrRunInProgress
		}
		return time.Time{}, err
	}
	return m.clock.Now(), nil
}

// run performs steps after the status has moved to InProgress. The status
// always leaves InProgress, as Failed if run panics.
func (m *defaultManager) run(ctx context.Context, started time.Time) *Result {
	result := &Result{
		RunID:     uuid.NewString(),
		Status:    status.FullSyncFailed,
		StartedAt: started,
	}

	finished := false
	defer func() {
		if !finished {
			if _, err := m.writer.Finish(false); err != nil {
				slog.Error("Failed to finish full sync status", "run_id", result.RunID, "error", err)
			}
		}
	}()

	ctx, span := otel.StartSpan(WithTrigger(ctx, TriggerFull), m.tracer, "sync.full",
		trace.WithAttributes(otel.AttrRunID.String(result.RunID)))
	defer span.End()

	snapshot := m.facts.Facts()
	eligible := Eligible(m.rules, snapshot.Role)
	result.Launched = len(eligible)
	span.SetAttributes(otel.AttrRole.String(string(snapshot.Role)))
	m.metrics.RecordEligibleRules(ctx, string(snapshot.Role), int64(len(eligible)))

	slog.Info("Full sync started",
		"run_id", result.RunID,
		"role", snapshot.Role,
		"rules", len(m.rules),
		"eligible", len(eligible),
		"max_parallel", m.maxParallel)

	result.Failed = m.fanOut(ctx, eligible)

	success := result.Failed == 0
	final, err := m.writer.Finish(success)
	finished = true
	if err != nil {
		slog.Error("Failed to finish full sync status", "run_id", result.RunID, "error", err)
	}
	result.Status = final
	result.Duration = m.clock.Since(started)

	span.SetAttributes(
		otel.AttrLaunched.Int(result.Launched),
		otel.AttrFailed.Int(result.Failed),
	)
	if success {
		slog.Info("Full sync completed",
			"run_id", result.RunID,
			"launched", result.Launched,
			"duration", result.Duration)
	} else {
		otel.MarkFailed(span, "full sync failed")
		slog.Error("Full sync failed",
			"run_id", result.RunID,
			"launched", result.Launched,
			"failed", result.Failed,
			"duration", result.Duration)
	}

	m.metrics.RecordFullSync(ctx, result.Duration, success)
	m.saveRecord(ctx, result)

	return result
}

// fanOut launches one task per rule in order and collects exactly
// len(eligible) results from a completion channel. It returns the number
// of failed rules.
func (m *defaultManager) fanOut(ctx context.Context, eligible []rules.SyncRule) int {
	results := make(chan bool, len(eligible))

	var g errgroup.Group
	if m.maxParallel > 0 {
		g.SetLimit(m.maxParallel)
	}

	for _, rule := range eligible {
		g.Go(func() error {
			results <- m.executor.SyncOne(ctx, rule)
			return nil
		})
	}

	failed := 0
	for range len(eligible) {
		if !<-results {
			failed++
		}
	}
	// every task has sent, Wait only reaps the goroutines
	_ = g.Wait()

	return failed
}

func (m *defaultManager) saveRecord(ctx context.Context, result *Result) {
	if m.records == nil {
		return
	}

	record := &status.RunRecord{
		RunID:      result.RunID,
		Status:     result.Status,
		StartedAt:  result.StartedAt,
		FinishedAt: result.StartedAt.Add(result.Duration),
		Duration:   result.Duration.String(),
		Launched:   result.Launched,
		Failed:     result.Failed,
	}
	if err := m.records.SaveRecord(context.WithoutCancel(ctx), record); err != nil {
		slog.Warn("Failed to persist full sync record", "run_id", result.RunID, "error", err)
	}
}

package coordinator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/stacklok/data-sync/internal/facts"
	"github.com/stacklok/data-sync/internal/rules"
	pkgsync "github.com/stacklok/data-sync/internal/sync"
)

// Coordinator manages the background sync tasks of every eligible rule
type Coordinator interface {
	// Start registers the background tasks and blocks until ctx is cancelled
	// or Stop is called
	Start(ctx context.Context) error

	// Stop cancels every background task and waits for Start to return
	Stop() error
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	rules    []rules.SyncRule
	facts    facts.Provider
	executor pkgsync.Executor
	watcher  Watcher
	clock    clockwork.Clock

	// Lifecycle management
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithClock sets the clock periodic loops wait on
func WithClock(clock clockwork.Clock) Option {
	return func(c *defaultCoordinator) {
		c.clock = clock
	}
}

// WithWatcher sets the change detector for immediate rules
func WithWatcher(watcher Watcher) Option {
	return func(c *defaultCoordinator) {
		c.watcher = watcher
	}
}

// New creates a new coordinator with injected dependencies
func New(
	ruleList []rules.SyncRule,
	provider facts.Provider,
	executor pkgsync.Executor,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		rules:    ruleList,
		facts:    provider,
		executor: executor,
		watcher:  NoopWatcher{},
		clock:    clockwork.NewRealClock(),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start registers periodic and immediate tasks for the eligible rules
func (c *defaultCoordinator) Start(ctx context.Context) error {
	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()

	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		close(c.done)
		slog.Info("Background sync coordinator shutting down")
	}()

	role := c.facts.Facts().Role
	periodic, immediate := pkgsync.Partition(pkgsync.Eligible(c.rules, role))
	slog.Info("Starting background sync coordinator",
		"role", role,
		"periodic", len(periodic),
		"immediate", len(immediate))

	for _, rule := range periodic {
		slog.Debug("Registering periodic sync",
			"path", rule.Path,
			"interval", rule.Periodicity)
		wg.Go(func() {
			c.runPeriodic(coordCtx, rule)
		})
	}

	for _, rule := range immediate {
		wg.Go(func() {
			c.watch(coordCtx, rule)
		})
	}

	<-coordCtx.Done()
	slog.Info("Sync coordinator stopping")
	return nil
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		// Wait for coordinator to finish
		<-c.done
	}
	return nil
}

// runPeriodic syncs rule every rule.Periodicity until ctx is done
func (c *defaultCoordinator) runPeriodic(ctx context.Context, rule rules.SyncRule) {
	syncCtx := pkgsync.WithTrigger(ctx, pkgsync.TriggerPeriodic)
	for {
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(rule.Periodicity):
		}

		if c.executor.SyncOne(syncCtx, rule) {
			slog.Debug("Periodic sync succeeded", "path", rule.Path)
		} else {
			slog.Warn("Periodic sync failed, retrying next interval",
				"path", rule.Path,
				"interval", rule.Periodicity)
		}
	}
}

func (c *defaultCoordinator) watch(ctx context.Context, rule rules.SyncRule) {
	onChange := func(ctx context.Context) bool {
		return c.executor.SyncOne(pkgsync.WithTrigger(ctx, pkgsync.TriggerImmediate), rule)
	}
	if err := c.watcher.Watch(ctx, rule, onChange); err != nil {
		slog.Error("Change monitoring stopped",
			"path", rule.Path,
			"error", err)
	}
}

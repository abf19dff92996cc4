package coordinator

import (
	"context"

	"github.com/stacklok/data-sync/internal/rules"
)

// SyncFunc syncs the rule a Watcher was registered for
type SyncFunc func(ctx context.Context) bool

// Watcher detects changes to an immediate rule's path and calls sync for
// each one. Watch returns when ctx is done or monitoring cannot continue.
type Watcher interface {
	Watch(ctx context.Context, rule rules.SyncRule, sync SyncFunc) error
}

// NoopWatcher performs no observation and returns immediately.
// Immediate rules are therefore only synced by full syncs.
type NoopWatcher struct{}

// Watch returns nil without calling sync
func (NoopWatcher) Watch(context.Context, rules.SyncRule, SyncFunc) error {
	return nil
}

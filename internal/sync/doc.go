// Package sync is the orchestration core of data-syncd.
//
// # Core Interfaces
//
//   - Executor: transfers a single rule and reports success as a bool
//   - Manager: runs full syncs and is the only writer of the full-sync status
//   - RetryPolicy: decides whether a failed transfer is attempted again;
//     NoRetry is the default
//
// # Eligibility
//
// IsEligible decides whether this unit pushes a rule given its redundancy
// role:
//
//   - Bidirectional: always
//   - Active2Passive: only on the Active unit
//   - Passive2Active: only on the Passive unit
//
// Partition separates rules the periodic scheduler owns from those left to
// the immediate trigger.
//
// # Full Sync
//
// A run moves the status to InProgress, launches one goroutine per eligible
// rule in rule order and reads exactly one result per launched rule from a
// buffered completion channel. The run succeeds when every result is true;
// an empty eligible set succeeds vacuously. A second run cannot begin while
// one is InProgress.
//
// The sync/coordinator subpackage schedules periodic rules and registers the
// immediate trigger for the rest.
package sync

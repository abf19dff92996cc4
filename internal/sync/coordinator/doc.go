// Package coordinator schedules the background path syncs of data-syncd.
//
// After the startup full sync, the coordinator registers every eligible rule
// with a background task:
//
//   - Periodic rules get one loop each that waits the rule's interval and
//     then syncs the rule. Loops are independent of each other.
//   - Immediate rules are handed to a Watcher. NoopWatcher, the default,
//     observes nothing and returns at once.
//
// Eligibility is decided once, from the redundancy facts present when Start
// is called.
//
// # Lifecycle
//
//	c := coordinator.New(ruleList, provider, executor)
//	go c.Start(ctx)
//	...
//	c.Stop()
//
// Start blocks until ctx is cancelled or Stop is called, then waits for every
// loop to return. A loop checks for shutdown before each wait and the wait
// itself is interrupted by shutdown; a transfer already running is left to
// finish.
package coordinator

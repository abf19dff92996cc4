// Package status holds the full-sync status state machine and the persisted
// record of the last finished run.
package status

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrReadOnly is returned when an external caller tries to change the status
	ErrReadOnly = errors.New("full sync status is read-only")

	// ErrUnknownStatus is returned for values outside the four known statuses
	ErrUnknownStatus = errors.New("unknown full sync status")

	// ErrInvalidTransition is returned when a writer attempts an illegal move
	ErrInvalidTransition = errors.New("invalid full sync status transition")

	// ErrInProgress is returned by Begin while a run is already in progress
	ErrInProgress = errors.New("full sync already in progress")

	// ErrOwned is returned by Claim when the writer has already been handed out
	ErrOwned = errors.New("full sync status already has a writer")
)

// Tracker holds the current FullSyncStatus. Any number of goroutines may
// read it; only the single Writer obtained from Claim may change it.
type Tracker struct {
	state   atomic.Int32
	claimed atomic.Bool
}

// NewTracker returns a tracker in the NotStarted state
func NewTracker() *Tracker {
	return &Tracker{}
}

// Get returns the current status without blocking
func (t *Tracker) Get() FullSyncStatus {
	return allStatuses[t.state.Load()]
}

// Set is the external write path. Reasserting the current value is accepted
// and reports no change. Any other value is rejected with ErrReadOnly.
func (t *Tracker) Set(s FullSyncStatus) (bool, error) {
	if indexOf(s) < 0 {
		return false, ErrUnknownStatus
	}
	if s == t.Get() {
		return false, nil
	}
	return false, ErrReadOnly
}

// Claim hands out the only Writer for this tracker
func (t *Tracker) Claim() (*Writer, error) {
	if !t.claimed.CompareAndSwap(false, true) {
		return nil, ErrOwned
	}
	return &Writer{tracker: t}, nil
}

// Writer is the exclusive mutator of a Tracker
type Writer struct {
	tracker *Tracker
}

// Begin moves the tracker to InProgress. It fails with ErrInProgress when a
// run is already in progress, so two runs can never overlap.
func (w *Writer) Begin() error {
	for {
		cur := w.tracker.state.Load()
		if allStatuses[cur] == FullSyncInProgress {
			return ErrInProgress
		}
		if w.tracker.state.CompareAndSwap(cur, int32(indexOf(FullSyncInProgress))) {
			return nil
		}
	}
}

// Finish ends the current run as Completed or Failed and returns the new status
func (w *Writer) Finish(success bool) (FullSyncStatus, error) {
	to := FullSyncFailed
	if success {
		to = FullSyncCompleted
	}
	if !w.tracker.state.CompareAndSwap(int32(indexOf(FullSyncInProgress)), int32(indexOf(to))) {
		return w.tracker.Get(), ErrInvalidTransition
	}
	return to, nil
}

// Status returns the tracker's current status
func (w *Writer) Status() FullSyncStatus {
	return w.tracker.Get()
}

func indexOf(s FullSyncStatus) int {
	for i, status := range allStatuses {
		if status == s {
			return i
		}
	}
	return -1
}

package status

import (
	"fmt"
	"time"
)

// FullSyncStatus is the state of the full-sync state machine
type FullSyncStatus string

const (
	// FullSyncNotStarted means no full sync has run since process start
	FullSyncNotStarted FullSyncStatus = "NotStarted"

	// FullSyncInProgress means a full sync is running
	FullSyncInProgress FullSyncStatus = "InProgress"

	// FullSyncCompleted means the last full sync succeeded for every rule
	FullSyncCompleted FullSyncStatus = "Completed"

	// FullSyncFailed means at least one rule failed in the last full sync
	FullSyncFailed FullSyncStatus = "Failed"
)

// allStatuses is indexed by the tracker's internal state value
var allStatuses = []FullSyncStatus{
	FullSyncNotStarted,
	FullSyncInProgress,
	FullSyncCompleted,
	FullSyncFailed,
}

// ParseFullSyncStatus converts an external value into a FullSyncStatus
func ParseFullSyncStatus(s string) (FullSyncStatus, error) {
	for _, status := range allStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// ValidTransition reports whether the state machine may move from -> to
func ValidTransition(from, to FullSyncStatus) bool {
	switch to {
	case FullSyncInProgress:
		return from == FullSyncNotStarted || from == FullSyncCompleted || from == FullSyncFailed
	case FullSyncCompleted, FullSyncFailed:
		return from == FullSyncInProgress
	default:
		return false
	}
}

// Terminal reports whether s ends a run
func (s FullSyncStatus) Terminal() bool {
	return s == FullSyncCompleted || s == FullSyncFailed
}

// RunRecord summarizes one finished full-sync run
type RunRecord struct {
	// RunID identifies the run in logs and traces
	RunID string `json:"runId"`

	// Status is the terminal status of the run
	Status FullSyncStatus `json:"status"`

	// StartedAt is when the run entered InProgress
	StartedAt time.Time `json:"startedAt"`

	// FinishedAt is when the run left InProgress
	FinishedAt time.Time `json:"finishedAt"`

	// Duration is FinishedAt - StartedAt as a Go duration string
	Duration string `json:"duration"`

	// Launched is the number of eligible rules the run launched
	Launched int `json:"launched"`

	// Failed is the number of rules that reported failure
	Failed int `json:"failed"`
}

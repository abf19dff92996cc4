package v1

import "github.com/stacklok/data-sync/internal/status"

// Rejection kinds reported in error responses
const (
	KindSyncAlreadyInProgress = "SyncAlreadyInProgress"
	KindSiblingUnavailable    = "SiblingUnavailable"
	KindStatusReadOnly        = "StatusReadOnly"
	KindUnknownStatus         = "UnknownStatus"
)

// FullSyncStatusResponse carries the current full-sync status
type FullSyncStatusResponse struct {
	Status status.FullSyncStatus `json:"status" example:"InProgress"`
}

// SetFullSyncStatusRequest is the body of a status write
type SetFullSyncStatusRequest struct {
	Status string `json:"status" example:"Completed"`
}

// SetFullSyncStatusResponse reports whether a status write changed anything
type SetFullSyncStatusResponse struct {
	Changed bool `json:"changed"`
}

// RuleResponse is one configured rule and whether this unit acts on it
type RuleResponse struct {
	Path               string `json:"path"`
	DestinationPath    string `json:"destinationPath"`
	Description        string `json:"description,omitempty"`
	SyncDirection      string `json:"syncDirection"`
	SyncType           string `json:"syncType"`
	PeriodicitySeconds int64  `json:"periodicityInSec,omitempty"`
	Source             string `json:"source,omitempty"`
	Eligible           bool   `json:"eligible"`
}

// RulesResponse lists the configured rules
type RulesResponse struct {
	Rules []RuleResponse `json:"rules"`
	Total int            `json:"total"`
}

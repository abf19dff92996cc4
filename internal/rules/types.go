// Package rules defines the sync rule model and loads rule documents from disk.
package rules

import (
	"fmt"
	"time"
)

// Direction names which redundancy role(s) must push a rule
type Direction string

const (
	// DirectionBidirectional means both units push the rule
	DirectionBidirectional Direction = "Bidirectional"

	// DirectionActive2Passive means only the Active unit pushes the rule
	DirectionActive2Passive Direction = "Active2Passive"

	// DirectionPassive2Active means only the Passive unit pushes the rule
	DirectionPassive2Active Direction = "Passive2Active"
)

// SyncType names the trigger mechanism of a rule
type SyncType string

const (
	// SyncTypeImmediate rules are synced on change detection
	SyncTypeImmediate SyncType = "Immediate"

	// SyncTypePeriodic rules are synced on a fixed interval
	SyncTypePeriodic SyncType = "Periodic"
)

// SyncRule describes one configured file or directory to replicate.
// Rules are built once at startup and never mutated afterwards.
type SyncRule struct {
	// Path is the source filesystem path
	Path string `json:"path"`

	// DestinationPath is the destination path, empty means Path
	DestinationPath string `json:"destinationPath,omitempty"`

	// Description is a human readable label
	Description string `json:"description,omitempty"`

	// Direction selects which role pushes the rule
	Direction Direction `json:"direction"`

	// Type selects the trigger mechanism
	Type SyncType `json:"syncType"`

	// Periodicity is the resync interval, zero unless Type is Periodic
	Periodicity time.Duration `json:"periodicity,omitempty"`

	// Source is the rule document the rule was loaded from
	Source string `json:"source,omitempty"`
}

// Destination returns the destination path, defaulting to the source path
func (r SyncRule) Destination() string {
	if r.DestinationPath == "" {
		return r.Path
	}
	return r.DestinationPath
}

// IsPeriodic reports whether the periodic scheduler may run this rule.
// A Periodic rule without an interval is never scheduled.
func (r SyncRule) IsPeriodic() bool {
	return r.Type == SyncTypePeriodic && r.Periodicity > 0
}

// IsImmediate reports whether the rule belongs to the immediate trigger path.
// Periodic rules lacking an interval fall back to this path.
func (r SyncRule) IsImmediate() bool {
	return !r.IsPeriodic()
}

func (r SyncRule) String() string {
	return fmt.Sprintf("%s -> %s (%s, %s)", r.Path, r.Destination(), r.Direction, r.Type)
}

// ParseDirection converts a document value into a Direction
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionBidirectional, DirectionActive2Passive, DirectionPassive2Active:
		return d, nil
	default:
		return "", fmt.Errorf("unknown sync direction %q", s)
	}
}

// ParseSyncType converts a document value into a SyncType
func ParseSyncType(s string) (SyncType, error) {
	switch t := SyncType(s); t {
	case SyncTypeImmediate, SyncTypePeriodic:
		return t, nil
	default:
		return "", fmt.Errorf("unknown sync type %q", s)
	}
}

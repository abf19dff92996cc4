package sync

import (
	"log/slog"

	"github.com/stacklok/data-sync/internal/facts"
	"github.com/stacklok/data-sync/internal/rules"
)

// IsEligible reports whether a unit in role must push rule.
// Bidirectional rules are always eligible; directional rules only for the
// matching role. An unknown role is never eligible for directional rules.
func IsEligible(rule rules.SyncRule, role facts.Role) bool {
	switch rule.Direction {
	case rules.DirectionBidirectional:
		return true
	case rules.DirectionActive2Passive:
		return role == facts.RoleActive
	case rules.DirectionPassive2Active:
		return role == facts.RolePassive
	default:
		slog.Debug("Rule has unsupported sync direction",
			"path", rule.Path,
			"direction", rule.Direction)
		return false
	}
}

// Eligible returns the rules role must push, preserving order
func Eligible(ruleList []rules.SyncRule, role facts.Role) []rules.SyncRule {
	eligible := make([]rules.SyncRule, 0, len(ruleList))
	for _, rule := range ruleList {
		if IsEligible(rule, role) {
			eligible = append(eligible, rule)
		}
	}
	return eligible
}

// Partition splits rules into those the periodic scheduler runs and those
// left to the immediate trigger, preserving order
func Partition(ruleList []rules.SyncRule) (periodic, immediate []rules.SyncRule) {
	for _, rule := range ruleList {
		if rule.IsPeriodic() {
			periodic = append(periodic, rule)
		} else {
			immediate = append(immediate, rule)
		}
	}
	return periodic, immediate
}

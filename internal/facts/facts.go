// Package facts supplies the redundancy facts the sync engine acts on:
// this unit's role, whether redundancy is enabled and where the sibling is.
package facts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Role is the redundancy role of this unit
type Role string

const (
	// RoleActive is the unit currently serving
	RoleActive Role = "Active"

	// RolePassive is the standby unit
	RolePassive Role = "Passive"

	// RoleUnknown is used when the role could not be determined
	RoleUnknown Role = "Unknown"
)

// ParseRole maps a fact value to a Role. Unrecognized values map to RoleUnknown.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleActive:
		return RoleActive
	case RolePassive:
		return RolePassive
	default:
		return RoleUnknown
	}
}

// RedundancyContext is a snapshot of the redundancy facts
type RedundancyContext struct {
	Role              Role   `json:"role" yaml:"role"`
	RedundancyEnabled bool   `json:"redundancyEnabled" yaml:"redundancyEnabled"`
	SiblingAddress    string `json:"siblingAddress,omitempty" yaml:"siblingAddress,omitempty"`
	SiblingUser       string `json:"siblingUser,omitempty" yaml:"siblingUser,omitempty"`
}

// SiblingAvailable reports whether a sibling unit is reachable
func (c RedundancyContext) SiblingAvailable() bool {
	return c.SiblingAddress != ""
}

// SiblingTarget returns the remote shell target for the sibling, user@host
// when a user is known, empty when there is no sibling.
func (c RedundancyContext) SiblingTarget() string {
	if !c.SiblingAvailable() {
		return ""
	}
	if c.SiblingUser == "" {
		return c.SiblingAddress
	}
	return c.SiblingUser + "@" + c.SiblingAddress
}

// Provider supplies redundancy facts
//
//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks github.com/stacklok/data-sync/internal/facts Provider
type Provider interface {
	// Refresh fetches the facts from their source
	Refresh(ctx context.Context) error
	// Facts returns the most recently fetched snapshot
	Facts() RedundancyContext
}

const (
	// DefaultFetchTimeout bounds the retries of the startup fetch
	DefaultFetchTimeout = 30 * time.Second
)

// FetchWithRetry refreshes the provider, retrying with exponential backoff
// until it succeeds or maxElapsed passes. A zero maxElapsed uses
// DefaultFetchTimeout.
func FetchWithRetry(ctx context.Context, p Provider, maxElapsed time.Duration) (RedundancyContext, error) {
	if maxElapsed <= 0 {
		maxElapsed = DefaultFetchTimeout
	}

	attempt := 0
	operation := func() (RedundancyContext, error) {
		attempt++
		if err := p.Refresh(ctx); err != nil {
			return RedundancyContext{}, err
		}
		return p.Facts(), nil
	}

	notify := func(err error, next time.Duration) {
		slog.Warn("Failed to fetch redundancy facts, retrying",
			"attempt", attempt,
			"retry_in", next,
			"error", err)
	}

	facts, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(notify),
	)
	if err != nil {
		return RedundancyContext{}, fmt.Errorf("failed to fetch redundancy facts after %d attempts: %w", attempt, err)
	}

	slog.Info("Redundancy facts fetched",
		"role", facts.Role,
		"redundancy_enabled", facts.RedundancyEnabled,
		"sibling_address", facts.SiblingAddress)

	return facts, nil
}

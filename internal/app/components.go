package app

import (
	"github.com/stacklok/data-sync/internal/control"
	"github.com/stacklok/data-sync/internal/facts"
	"github.com/stacklok/data-sync/internal/rules"
	"github.com/stacklok/data-sync/internal/status"
	pkgsync "github.com/stacklok/data-sync/internal/sync"
	"github.com/stacklok/data-sync/internal/sync/coordinator"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Rules is the rule list loaded at startup
	Rules []rules.SyncRule

	// Facts supplies the redundancy facts
	Facts facts.Provider

	// Tracker holds the full-sync status
	Tracker *status.Tracker

	// SyncManager runs full syncs
	SyncManager pkgsync.Manager

	// SyncCoordinator manages background synchronization
	SyncCoordinator coordinator.Coordinator

	// Control implements the control operations
	Control control.Service
}

// Package app provides application lifecycle management for data-syncd.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/stacklok/data-sync/internal/config"
	"github.com/stacklok/data-sync/internal/facts"
	pkgsync "github.com/stacklok/data-sync/internal/sync"
)

// DataSyncApp encapsulates all components needed to run the daemon.
// It provides lifecycle management and graceful shutdown capabilities.
type DataSyncApp struct {
	config     *config.Config
	components *AppComponents
	redundancy facts.RedundancyContext
	httpServer *http.Server
	lock       *flock.Flock

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
	background sync.WaitGroup
	closeOnce  sync.Once
}

// Start runs the startup full sync, registers the background syncs and
// serves the control surface. It blocks until the HTTP server stops.
func (app *DataSyncApp) Start() error {
	app.background.Go(app.runBackground)

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// runBackground performs the startup full sync and then hands the rules
// to the coordinator. The coordinator only starts once the full sync has
// finished so startup work never overlaps.
func (app *DataSyncApp) runBackground() {
	if app.redundancy.RedundancyEnabled {
		if _, err := app.components.SyncManager.RunFullSync(app.ctx); err != nil {
			slog.Error("Startup full sync could not run", "error", err)
		}
	} else {
		slog.Info("Redundancy disabled, skipping startup full sync")
	}

	if app.ctx.Err() != nil {
		return
	}
	if err := app.components.SyncCoordinator.Start(app.ctx); err != nil {
		slog.Error("Sync coordinator failed", "error", err)
	}
}

// RunOnce runs a single full sync in the calling goroutine regardless of
// the redundancy-enabled fact
func (app *DataSyncApp) RunOnce(ctx context.Context) (*pkgsync.Result, error) {
	return app.components.SyncManager.RunFullSync(ctx)
}

// Stop gracefully stops the application with the given timeout.
// It stops the sync coordinator and then shuts down the HTTP server.
func (app *DataSyncApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	shutdownErr := app.httpServer.Shutdown(shutdownCtx)
	app.background.Wait()
	app.Close()

	if shutdownErr != nil {
		return fmt.Errorf("server forced to shutdown: %w", shutdownErr)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// Close releases the state directory lock. It is safe to call more than once.
func (app *DataSyncApp) Close() {
	app.closeOnce.Do(func() {
		if app.cancelFunc != nil {
			app.cancelFunc()
		}
		if app.lock != nil {
			if err := app.lock.Unlock(); err != nil {
				slog.Warn("Failed to release state directory lock", "error", err)
			}
		}
	})
}

// GetConfig returns the application configuration
func (app *DataSyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *DataSyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the wired application components
func (app *DataSyncApp) Components() *AppComponents {
	return app.components
}

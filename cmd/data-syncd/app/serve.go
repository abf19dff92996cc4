package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/data-sync/internal/app"
	"github.com/stacklok/data-sync/internal/telemetry"
	"github.com/stacklok/data-sync/internal/versions"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync daemon",
		Long: `Run the sync daemon.

At startup the rules directory is read and the redundancy facts are fetched.
When redundancy is enabled a full sync of every eligible rule runs first.
Periodic rules are then synced on their interval and the HTTP control
surface is served until SIGINT or SIGTERM.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", "", "Address to listen on, overrides listenAddress")
	if err := viper.BindPFlag("address", cmd.Flags().Lookup("address")); err != nil {
		slog.Error("Error binding address flag", "error", err)
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	info := versions.GetVersionInfo()
	slog.Info("Starting data-syncd",
		"version", info.Version,
		"commit", info.Commit,
		"build_date", info.BuildDate)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	opts := []app.DataSyncAppOptions{
		app.WithConfig(cfg),
		app.WithMeterProvider(tel.MeterProvider()),
		app.WithTracerProvider(tel.TracerProvider()),
	}
	if handler := tel.MetricsHandler(); handler != nil {
		opts = append(opts, app.WithMetricsHandler(handler))
	}
	if address := viper.GetString("address"); address != "" {
		opts = append(opts, app.WithAddress(address))
	}

	daemon, err := app.NewDataSyncApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- daemon.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serveErr:
		if stopErr := daemon.Stop(defaultGracefulTimeout); stopErr != nil {
			slog.Error("Failed to stop application", "error", stopErr)
		}
		return err
	}

	if err := daemon.Stop(defaultGracefulTimeout); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

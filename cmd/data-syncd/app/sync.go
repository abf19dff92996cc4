package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacklok/data-sync/internal/app"
)

// errFullSyncFailed makes the sync command exit non-zero
var errFullSyncFailed = errors.New("full sync failed")

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one full sync and exit",
		Long: `Run one full sync of every rule eligible for this unit's role and exit.

The run ignores whether redundancy is enabled. The command exits non-zero
when any rule fails. The result is printed as JSON on stdout.`,
		RunE: runSync,
	}
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	daemon, err := app.NewDataSyncApp(ctx, app.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer daemon.Close()

	result, err := daemon.RunOnce(ctx)
	if err != nil {
		return err
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format result: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(output)); err != nil {
		return err
	}

	if !result.Succeeded() {
		return fmt.Errorf("%w: %d of %d rules failed", errFullSyncFailed, result.Failed, result.Launched)
	}
	return nil
}

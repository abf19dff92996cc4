package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacklok/data-sync/internal/rules"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [rules-dir]",
		Short: "Check the settings file and rule documents",
		Long: `Check the settings file and every rule document in the rules directory.

The rules directory defaults to the configured one. Each document that would
be skipped at startup is reported and the command exits non-zero.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := cfg.GetRulesDir()
	if len(args) == 1 {
		dir = args[0]
	}

	loaded, err := rules.NewStore(dir).Load(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, skipped := range loaded.Skipped {
		if _, err := fmt.Fprintf(out, "INVALID %s: %v\n", skipped.File, skipped.Err); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(out, "%d rules loaded from %s, %d documents invalid\n",
		len(loaded.Rules), dir, len(loaded.Skipped)); err != nil {
		return err
	}

	if len(loaded.Skipped) > 0 {
		return errors.New("invalid rule documents found")
	}
	return nil
}

package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/nodesync/database"
)

func newMigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Migrate the database down",
		Long: `Migrate the database schema down by reverting migrations.
WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  nodesync migrate down --config config.yaml --num-steps 1 --yes

  # Migrate down all the way (WARNING: destroys all data)
  nodesync migrate down --config config.yaml --yes`,
		RunE: runMigrateDown,
	}
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	flags, err := readMigrationFlags(cmd)
	if err != nil {
		return err
	}

	connString, err := flags.cfg.Database.GetMigrationConnectionString()
	if err != nil {
		return fmt.Errorf("failed to get migration connection string: %w", err)
	}

	if !flags.yes {
		prompt := "WARNING: This will migrate down ALL steps and may result in complete data loss. Continue?"
		if flags.numSteps > 0 {
			prompt = fmt.Sprintf("WARNING: This will migrate down %d step(s) and may result in data loss. Continue?", flags.numSteps)
		}
		if !confirm(cmd, prompt) {
			slog.Info("Migration cancelled")
			return fmt.Errorf("migration cancelled by user")
		}
	}

	if flags.numSteps == 0 {
		slog.Warn("Migrating down all steps - this will remove all schema!")
	} else {
		slog.Info("Migrating down", "steps", flags.numSteps)
	}
	if err := database.MigrateDown(connString, flags.numSteps); err != nil {
		return err
	}

	logMigrationVersion(connString)
	return nil
}

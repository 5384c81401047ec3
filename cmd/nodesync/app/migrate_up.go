package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/nodesync/database"
)

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply pending database migrations to bring the schema up to date.
Connection parameters are read from the config file. The migration user is
used when one is configured.`,
		RunE: runMigrateUp,
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	flags, err := readMigrationFlags(cmd)
	if err != nil {
		return err
	}
	db := flags.cfg.Database

	connString, err := db.GetMigrationConnectionString()
	if err != nil {
		return fmt.Errorf("failed to get migration connection string: %w", err)
	}

	if !flags.yes {
		prompt := fmt.Sprintf("Apply migrations to %s@%s:%d/%s?",
			db.GetMigrationUser(), db.Host, db.Port, db.Database)
		if !confirm(cmd, prompt) {
			slog.Info("Migration cancelled by user")
			return nil
		}
	}

	slog.Info("Applying database migrations", "steps", flags.numSteps)
	if err := database.MigrateUp(connString, flags.numSteps); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logMigrationVersion(connString)
	return nil
}

package database

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/golang-migrate/migrate/v4"
)

// MigrateUp applies all pending migrations, or numSteps of them when numSteps > 0.
func MigrateUp(connString string, numSteps uint) error {
	m, err := NewFromConnectionString(connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer closeMigrator(m)

	return run(m, numSteps, 1)
}

// MigrateDown reverts numSteps migrations, or all of them when numSteps is 0.
func MigrateDown(connString string, numSteps uint) error {
	m, err := NewFromConnectionString(connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer closeMigrator(m)

	return run(m, numSteps, -1)
}

// GetVersion returns the current schema version and whether it is dirty.
// A database without any applied migration reports version 0.
func GetVersion(connString string) (uint, bool, error) {
	m, err := NewFromConnectionString(connString)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrator: %w", err)
	}
	defer closeMigrator(m)

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

func run(m Migrator, numSteps uint, direction int) error {
	var err error
	switch {
	case numSteps == 0 && direction > 0:
		err = m.Up()
	case numSteps == 0:
		err = m.Down()
	default:
		if numSteps > math.MaxInt {
			return fmt.Errorf("number of steps exceeds maximum allowed value")
		}
		err = m.Steps(direction * int(numSteps)) // #nosec G115 -- overflow checked above
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("No migrations to apply")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func closeMigrator(m Migrator) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		slog.Warn("Failed to close migrator", "source_error", srcErr, "database_error", dbErr)
	}
}

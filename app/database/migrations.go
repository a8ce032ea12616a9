package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type MigrationStatus struct {
	Version uint
	// Applied is false when the schema was already current.
	Applied bool
}

// RunMigrations brings the key-value schema up to date. A database left dirty
// by an interrupted migration is refused rather than migrated further.
func RunMigrations(db *DB) (MigrationStatus, error) {
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if version, dirty, err := m.Version(); err == nil && dirty {
		return MigrationStatus{Version: version}, fmt.Errorf("database is dirty at migration version %d", version)
	}

	status := MigrationStatus{Applied: true}
	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return MigrationStatus{}, fmt.Errorf("failed to run migrations: %w", err)
		}
		status.Applied = false
	}

	version, _, err := m.Version()
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to get migration version: %w", err)
	}
	status.Version = version

	return status, nil
}

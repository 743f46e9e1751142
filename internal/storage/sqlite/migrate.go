package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// The migration files are compiled into the binary so the service does not
// depend on a migrations directory next to it at runtime.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateUp brings the schema to the latest version.
//
// It is idempotent: migrate.ErrNoChange means the database is already
// current and is treated as success. The first migration uses
// CREATE TABLE IF NOT EXISTS, so a personas table created before versioning
// was introduced is adopted without error.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrateUp: open source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migrateUp: database driver: %w", err)
	}

	// m.Close is deliberately not called: it would close db, which the
	// caller still owns.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migrateUp: init: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrateUp: up: %w", err)
	}

	return nil
}

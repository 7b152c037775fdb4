package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// newMigrationProvider builds a goose provider over the embedded migrations.
// goose's sqlite3 dialect only controls SQL generation, so it works with the
// modernc driver registered as "sqlite".
func newMigrationProvider(db *sql.DB) (*goose.Provider, error) {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return goose.NewProvider(goose.DialectSQLite3, db, migrations)
}

// MigrateDB applies pending trace schema migrations while holding the
// migration lock for dbPath.
func MigrateDB(ctx context.Context, db *sql.DB, dbPath string) error {
	release, err := acquireMigrationLock(dbPath)
	if err != nil {
		return fmt.Errorf("migration lock: %w", err)
	}
	defer release()

	provider, err := newMigrationProvider(db)
	if err != nil {
		return err
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied schema version and the newest embedded
// one. A database that was never migrated reports current as 0.
func SchemaVersion(ctx context.Context, db *sql.DB) (current, latest int64, err error) {
	provider, err := newMigrationProvider(db)
	if err != nil {
		return 0, 0, err
	}
	for _, src := range provider.ListSources() {
		latest = max(latest, src.Version)
	}
	if v, verr := provider.GetDBVersion(ctx); verr == nil {
		current = v
	}
	return current, latest, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"github.com/dotcommander/tracekit/internal/app"
)

const (
	// defaultBusyTimeoutMS is how long a writer waits on a locked trace store
	// before SQLite reports SQLITE_BUSY.
	defaultBusyTimeoutMS = 5000
	busyTimeoutEnv       = "TRACEKIT_BUSY_TIMEOUT_MS"
)

// InitDB opens the trace store at the resolved database path.
func InitDB() (*sql.DB, error) {
	dbPath, err := app.GetDBPath()
	if err != nil {
		return nil, err
	}
	return InitDBWithPath(dbPath)
}

// InitDBWithPath opens the trace store at dbPath without a deadline.
func InitDBWithPath(dbPath string) (*sql.DB, error) {
	return Open(context.Background(), dbPath)
}

// Open opens (creating if needed) a WAL-mode SQLite trace store at dbPath and
// brings its schema up to date. Pragmas and migrations are retried while the
// file is locked by another tracekit process.
func Open(ctx context.Context, dbPath string) (db *sql.DB, err error) {
	if _, err := app.EnsureDBDir(dbPath); err != nil {
		return nil, err
	}

	db, err = sql.Open("sqlite", normalizeSQLiteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, db.Close())
			db = nil
		}
	}()

	// One connection: the CLI and watcher write serially, and pragmas are
	// per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range connectionPragmas(busyTimeoutMS()) {
		if err := RetryWithBackoff(ctx, func() error {
			_, execErr := db.ExecContext(ctx, pragma)
			return execErr
		}); err != nil {
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := RetryWithBackoff(ctx, func() error { return MigrateDB(ctx, db, dbPath) }); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// connectionPragmas lists the pragmas applied on open. busy_timeout is first
// so the WAL switch waits on locks held by a concurrent ingest or watch.
func connectionPragmas(busyTimeout int) []string {
	return []string{
		"PRAGMA busy_timeout=" + strconv.Itoa(busyTimeout),
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA journal_mode=WAL",
	}
}

func busyTimeoutMS() int {
	if v, err := strconv.Atoi(os.Getenv(busyTimeoutEnv)); err == nil && v > 0 {
		return v
	}
	return defaultBusyTimeoutMS
}

// normalizeSQLiteDSN maps a plain path to a read-write-create file: URI, which
// modernc.org/sqlite needs to create the database. file: DSNs pass through.
func normalizeSQLiteDSN(dbPath string) string {
	switch {
	case strings.HasPrefix(dbPath, "file:"):
		return dbPath
	case dbPath == ":memory:":
		return "file::memory:?cache=shared"
	default:
		return "file:" + dbPath + "?mode=rwc"
	}
}

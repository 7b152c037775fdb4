package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDBWithPath(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInitDBWithPath_CreatesTraceSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "traces.db")

	db, err := InitDBWithPath(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	require.NoError(t, err, "database file should exist")

	var name string
	require.NoError(t, db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='traces'",
	).Scan(&name))

	var journal string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journal))
	assert.Equal(t, "wal", journal)

	_, err = os.Stat(path + migrationLockSuffix)
	assert.NoError(t, err, "migration lock file is left for later opens")
}

func TestSchemaVersion(t *testing.T) {
	ctx := context.Background()

	t.Run("migrated database is current", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reopen.db")
		db, err := InitDBWithPath(path)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		// Reopening runs migrations again and must be a no-op.
		db, err = InitDBWithPath(path)
		require.NoError(t, err)
		defer db.Close()

		current, latest, err := SchemaVersion(ctx, db)
		require.NoError(t, err)
		assert.EqualValues(t, 1, latest)
		assert.Equal(t, latest, current)
	})

	t.Run("fresh database reports zero", func(t *testing.T) {
		db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "raw.db"))
		require.NoError(t, err)
		defer db.Close()

		current, latest, err := SchemaVersion(ctx, db)
		require.NoError(t, err)
		assert.Zero(t, current)
		assert.EqualValues(t, 1, latest)
	})
}

func TestNormalizeSQLiteDSN(t *testing.T) {
	tests := map[string]string{
		"/tmp/x.db":              "file:/tmp/x.db?mode=rwc",
		":memory:":               "file::memory:?cache=shared",
		"file:custom.db?mode=ro": "file:custom.db?mode=ro",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeSQLiteDSN(in), in)
	}
}

func TestBusyTimeoutFromEnv(t *testing.T) {
	t.Setenv(busyTimeoutEnv, "")
	assert.Equal(t, defaultBusyTimeoutMS, busyTimeoutMS())

	t.Setenv(busyTimeoutEnv, "250")
	assert.Equal(t, 250, busyTimeoutMS())
	assert.Equal(t, "PRAGMA busy_timeout=250", connectionPragmas(busyTimeoutMS())[0])

	t.Setenv(busyTimeoutEnv, "-3")
	assert.Equal(t, defaultBusyTimeoutMS, busyTimeoutMS())
}

func TestOpen_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	db, err := Open(ctx, filepath.Join(t.TempDir(), "canceled.db"))
	require.Error(t, err)
	assert.Nil(t, db)
}

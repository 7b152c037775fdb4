package actions

import (
	"database/sql"
	"testing"

	"github.com/dotcommander/tracekit/internal/store"
)

// setupTestDB opens a migrated database in a temp dir that is closed on cleanup.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.InitDBWithPath(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

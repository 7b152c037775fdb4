package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// migrationLockSuffix names the advisory lock file kept next to the database.
const migrationLockSuffix = ".migrate.lock"

// acquireMigrationLock serialises schema migration between tracekit processes
// sharing dbPath, e.g. a long-running watch and a one-shot ingest. It blocks
// until the lock is free. In-memory and file: URI databases have no stable
// sibling path and are not locked.
func acquireMigrationLock(dbPath string) (release func(), err error) {
	if dbPath == "" || strings.Contains(dbPath, ":memory:") || strings.HasPrefix(dbPath, "file:") {
		return func() {}, nil
	}

	lockPath := dbPath + migrationLockSuffix
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir for %s: %w", lockPath, err)
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644) //nolint:gosec // G304: lockPath derived from trusted dbPath
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", lockPath, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("acquire lock %s: %w", lockPath, err)
	}

	return func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
	}, nil
}

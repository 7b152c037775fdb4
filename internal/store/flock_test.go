package store

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireMigrationLock_SkipsMemory(t *testing.T) {
	for _, p := range []string{":memory:", "file::memory:?cache=shared", ""} {
		release, err := acquireMigrationLock(p)
		require.NoError(t, err)
		release()
	}
}

func TestAcquireMigrationLock_Serialises(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "traces.db")

	release, err := acquireMigrationLock(dbPath)
	require.NoError(t, err)
	require.FileExists(t, dbPath+migrationLockSuffix)

	var acquired atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		second, err := acquireMigrationLock(dbPath)
		if err != nil {
			return
		}
		acquired.Store(true)
		second()
	}()

	time.Sleep(50 * time.Millisecond)
	require.False(t, acquired.Load())

	release()
	wg.Wait()
	require.True(t, acquired.Load())
}

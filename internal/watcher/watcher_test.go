package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/georgekorob/patterns-project/internal/domain"
	"github.com/georgekorob/patterns-project/internal/infrastructure/sqlite"
	"github.com/georgekorob/patterns-project/internal/watcher"
)

func startWatcher(t *testing.T, dbPath string) <-chan struct{} {
	t.Helper()
	w, err := watcher.New(watcher.Config{DBPath: dbPath, Debounce: 50 * time.Millisecond}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err)
	return onChange
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.sqlite")
	require.NoError(t, os.WriteFile(dbPath, []byte("test"), 0644))

	onChange := startWatcher(t, dbPath)

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(dbPath, []byte(fmt.Sprintf("test%d", i)), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-onChange:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "catalog.sqlite")
	otherPath := filepath.Join(dir, "catalog.sqlite.bak")
	require.NoError(t, os.WriteFile(dbPath, []byte("db"), 0644))
	require.NoError(t, os.WriteFile(otherPath, []byte("initial"), 0644))

	onChange := startWatcher(t, dbPath)

	require.NoError(t, os.WriteFile(otherPath, []byte("other content"), 0644))

	select {
	case <-onChange:
		t.Fatal("should not notify for the backup file")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_WatchesWALFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "catalog.sqlite")
	require.NoError(t, os.WriteFile(dbPath, []byte("db"), 0644))

	onChange := startWatcher(t, dbPath)

	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("wal data"), 0644))

	select {
	case <-onChange:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for WAL file write")
	}
}

func TestWatcher_NotifiesOnCommit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.sqlite")
	db, err := sqlite.NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	onChange := startWatcher(t, dbPath)

	unit := db.NewUnit()
	require.NoError(t, domain.NewCategory("Sport").MarkNew(unit))
	require.NoError(t, unit.Commit(context.Background()))

	select {
	case <-onChange:
	case <-time.After(time.Second):
		t.Fatal("expected notification after a commit")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.sqlite")
	w, err := watcher.New(watcher.DefaultConfig(dbPath), nil)
	require.NoError(t, err)

	_, err = w.Start()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = w.Stop()
		_ = w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestWatcher_StartFailsForMissingDirectory(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig(filepath.Join(t.TempDir(), "missing", "catalog.sqlite")), nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	_, err = w.Start()
	require.ErrorContains(t, err, "watching directory")
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/srv/catalog.sqlite")
	require.Equal(t, "/srv/catalog.sqlite", cfg.DBPath)
	require.Equal(t, 100*time.Millisecond, cfg.Debounce)
}

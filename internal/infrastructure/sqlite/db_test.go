package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/georgekorob/patterns-project/internal/domain"
	"github.com/georgekorob/patterns-project/internal/pubsub"
	"github.com/georgekorob/patterns-project/internal/uow"
)

func openTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "catalog.sqlite"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDB_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	db, err := NewDB(dbPath)
	require.NoError(t, err, "NewDB should succeed even with nested non-existent directories")
	defer db.Close()

	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
	require.True(t, info.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0700), info.Mode().Perm(), "Directory should have 0700 permissions")
	}
}

func TestNewDB_RunsMigrations(t *testing.T) {
	db := openTestDB(t)

	for _, schema := range CatalogSchemas() {
		var name string
		err := db.conn.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", schema.Table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist after migrations", schema.Table)
	}

	var version int
	require.NoError(t, db.conn.QueryRow("SELECT version FROM schema_migrations").Scan(&version))
	require.Equal(t, 1, version)
}

func TestNewDB_PreMigrationBackup(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db1, err := NewDB(dbPath)
	require.NoError(t, err)
	_, err = db1.conn.Exec("INSERT INTO category (name) VALUES (?)", "Programmers")
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	_, err = os.Stat(dbPath + ".bak")
	require.True(t, os.IsNotExist(err), "first open has nothing to back up")

	db2, err := NewDB(dbPath)
	require.NoError(t, err, "reopening an existing database should succeed")
	defer db2.Close()

	info, err := os.Stat(dbPath + ".bak")
	require.NoError(t, err, "Backup file should exist after second NewDB")
	require.Greater(t, info.Size(), int64(0))

	var count int
	require.NoError(t, db2.conn.QueryRow("SELECT COUNT(*) FROM category").Scan(&count))
	require.Equal(t, 1, count, "migrations are not re-applied")
}

func TestNewDB_Pragmas(t *testing.T) {
	db := openTestDB(t)

	var journalMode string
	require.NoError(t, db.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	require.Equal(t, "wal", journalMode)

	var foreignKeys int
	require.NoError(t, db.conn.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	require.Equal(t, 1, foreignKeys)

	var busyTimeout int
	require.NoError(t, db.conn.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	require.Equal(t, 5000, busyTimeout)
}

func TestNewDB_ModerncDriver(t *testing.T) {
	db := openTestDB(t, WithDriver(DriverModernc))
	require.Equal(t, DriverModernc, db.Driver())

	unit := db.NewUnit()
	category := domain.NewCategory("Spirit")
	require.NoError(t, category.MarkNew(unit))
	require.NoError(t, unit.Commit(context.Background()))
	require.Positive(t, category.ID())

	m, err := db.Registry().Get(domain.KindCategory)
	require.NoError(t, err)
	found, err := m.FindByID(context.Background(), category.ID())
	require.NoError(t, err)
	require.Equal(t, "Spirit", found.(*domain.Category).Name)
}

func TestNewDB_InvalidPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	_, err := NewDB(filepath.Join(blocker, "catalog.sqlite"))
	require.ErrorContains(t, err, "failed to create database directory")
}

func TestParseDriver(t *testing.T) {
	tests := []struct {
		in      string
		want    Driver
		wantErr bool
	}{
		{in: "", want: DriverNcruces},
		{in: "ncruces", want: DriverNcruces},
		{in: "modernc", want: DriverModernc},
		{in: "mattn", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDriver(tt.in)
		if tt.wantErr {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}

func TestDB_Close(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	require.Error(t, db.conn.Ping(), "Ping should fail after Close")
}

func TestDB_CurrentUnit(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Current()
	require.ErrorIs(t, err, ErrNoCurrentUnit)

	first := db.NewUnit()
	current, err := db.Current()
	require.NoError(t, err)
	require.Same(t, first, current)

	second := db.NewUnit()
	require.NotSame(t, first, second)
	current, err = db.Current()
	require.NoError(t, err)
	require.Same(t, second, current, "NewUnit replaces the current unit")
}

func TestDB_RegistryHasEveryKind(t *testing.T) {
	db := openTestDB(t)

	kinds := []domain.Kind{
		domain.KindTeacher, domain.KindStudent, domain.KindCourse, domain.KindCategory,
		domain.KindCourseCategory, domain.KindCategoryCategory,
		domain.KindStudentCourse, domain.KindTeacherCourse,
	}
	for _, kind := range kinds {
		m, err := db.Registry().Get(kind)
		require.NoError(t, err, "kind %s", kind)
		require.Equal(t, string(kind), m.Table())
	}
}

func TestDB_UnitsPublishToEvents(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := pubsub.NewListener(ctx, db.Events())

	unit := db.NewUnit()
	teacher := domain.NewTeacher("John", "Wick")
	require.NoError(t, teacher.MarkNew(unit))
	require.NoError(t, unit.Commit(ctx))

	event, ok := listener.TryNext()
	require.True(t, ok)
	require.Equal(t, pubsub.CreatedEvent, event.Type)
	require.Equal(t, uow.Change{Unit: unit.ID(), Kind: domain.KindTeacher, ID: teacher.ID()}, event.Payload)

	event, ok = listener.TryNext()
	require.True(t, ok)
	require.Equal(t, pubsub.CommittedEvent, event.Type)
}

func TestDB_ForeignKeysCascadeEdges(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	unit := db.NewUnit()
	category := domain.NewCategory("Sport")
	course, err := domain.NewCourse(domain.CourseRecord, "Run", "/site_link/")
	require.NoError(t, err)
	require.NoError(t, category.MarkNew(unit))
	require.NoError(t, course.MarkNew(unit))
	require.NoError(t, domain.Link(course, category).MarkNew(unit))
	require.NoError(t, unit.Commit(ctx))

	unit = db.NewUnit()
	require.NoError(t, course.MarkRemoved(unit))
	require.NoError(t, unit.Commit(ctx))

	edges, err := db.Registry().Get(domain.KindCourseCategory)
	require.NoError(t, err)
	n, err := edges.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n, "edges of a deleted course are removed with it")
}

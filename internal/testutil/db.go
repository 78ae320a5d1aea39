// Package testutil provides catalog database fixtures for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/georgekorob/patterns-project/internal/infrastructure/sqlite"
)

// NewTestDB opens a migrated catalog database in a fresh temp directory.
// The database is closed when the test ends.
func NewTestDB(t *testing.T, opts ...sqlite.Option) *sqlite.DB {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "catalog.sqlite"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

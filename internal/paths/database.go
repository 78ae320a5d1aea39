// Package paths provides path resolution utilities.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultDatabaseFile is the file name used when a directory is given.
const DefaultDatabaseFile = "catalog.sqlite"

// ResolveDatabase resolves the catalog database file from user input.
//
// Input normalization:
//   - "" -> "catalog.sqlite"
//   - "~/data/catalog.sqlite" -> "$HOME/data/catalog.sqlite"
//   - "/path/to/dir" (an existing directory) -> "/path/to/dir/catalog.sqlite"
//   - "/path/to/dir/" -> "/path/to/dir/catalog.sqlite"
//   - anything else is cleaned and returned as a file path
func ResolveDatabase(path string) string {
	if path == "" {
		return DefaultDatabaseFile
	}
	path = expandHome(path)

	if strings.HasSuffix(path, string(filepath.Separator)) {
		return filepath.Join(path, DefaultDatabaseFile)
	}
	path = filepath.Clean(path)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, DefaultDatabaseFile)
	}
	return path
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

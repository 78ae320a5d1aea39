// Package migrations embeds the SQL migration files for the catalog
// database.
package migrations

import "embed"

// FS holds the numbered up/down migration files.
//
//go:embed *.sql
var FS embed.FS

package migrations

import "embed"

// FS contains embedded SQLite migrations for inventory grants.
//
//go:embed *.sql
var FS embed.FS

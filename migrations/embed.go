// Package migrations embeds the PostgreSQL schema applied at startup
package migrations

import "embed"

// FS holds every *.sql migration, applied in name order
//
//go:embed *.sql
var FS embed.FS

// Package migrations embeds the schema migration files for the sqlite
// driver. The schema mirrors the managed backend's tables.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

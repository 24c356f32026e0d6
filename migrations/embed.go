// Package migrations embeds the SQL schema migrations shipped with the binary.
package migrations

import "embed"

// FS holds every NNN_name.sql migration
//
//go:embed *.sql
var FS embed.FS

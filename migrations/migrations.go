// Package migrations embeds the SQL schema for the link registry.
package migrations

import "embed"

// FS holds the ordered *.sql files.
//
//go:embed *.sql
var FS embed.FS

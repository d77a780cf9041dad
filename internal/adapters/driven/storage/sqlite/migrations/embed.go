// Package migrations embeds the numbered SQL migrations of the key-value store.
package migrations

import "embed"

// FS contains every NNN_name.up.sql file, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS

// Package migrations embeds the gateway's SQL migration files.
package migrations

import "embed"

// FS contains the Postgres migrations, *_up.sql and *_down.sql pairs
// applied in lexical order.
//
//go:embed *.sql
var FS embed.FS

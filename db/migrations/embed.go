// Package migrations holds the SQL schema applied by the migrator.
package migrations

import "embed"

// FS contains every *.sql migration, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS

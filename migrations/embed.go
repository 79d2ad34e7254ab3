// Package migrations embeds the SQL schema migrations so the migrate
// binary ships them in a single artifact.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

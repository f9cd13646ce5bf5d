// Package migrations holds the goose SQL migrations, embedded so the migrate
// binary can run without the source tree.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

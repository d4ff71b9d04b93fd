// Package migrations embeds the SQL schema migrations for the checkout service.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

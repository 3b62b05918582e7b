// Package migrations embeds the tokenstore schema migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS

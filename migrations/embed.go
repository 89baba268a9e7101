// Package migrations embeds the PostgreSQL schema for the server, tests and tooling.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

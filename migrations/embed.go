// Package migrations embeds the PostgreSQL schema migrations. Each
// NNNN_name.sql file may have a matching NNNN_name_rollback.sql.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

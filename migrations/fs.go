// Package migrations embeds the schema migration files applied at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Files lists the migrations in application order.
var Files = []string{
	"001_shard_catalog.sql",
	"002_entities.sql",
	"003_trades.sql",
}

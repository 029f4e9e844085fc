// Package migrations embeds the SQL schema for the optional durable orphan
// sink, read by golang-migrate via the iofs source driver.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Package postgres embeds the relational schema applied at startup.
package postgres

import _ "embed"

//go:embed schema.sql
var Schema string

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package migrations

import "embed"

// FS contains embedded SQLite migrations for the room and word bank store.
//
//go:embed *.sql
var FS embed.FS

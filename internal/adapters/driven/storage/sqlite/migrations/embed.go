// Package migrations holds the versioned schema of the relational store.
package migrations

import "embed"

// FS holds the *.up.sql files, applied in name order.
//
//go:embed *.sql
var FS embed.FS

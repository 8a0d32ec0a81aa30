//go:build !cgo

package ld_api

// If cgo is not enabled, we will use the modernc.org/sqlite non-cgo sqlite
// driver. It is slower than the sqlite3 cgo driver.

import (
	_ "modernc.org/sqlite"
)

const whichSQLiteDriver = "sqlite"

// Imports run in a transaction, so the journal is kept (in memory) for rollbacks
const sqlitePragmas = `
PRAGMA journal_mode = MEMORY;
PRAGMA synchronous = OFF;
`

//go:build cgo

package ld_api

// If cgo is enabled, we will use the mattn cgo sqlite3 driver. It is faster
// than the modernc sqlite driver.

import (
	_ "github.com/mattn/go-sqlite3"
)

const whichSQLiteDriver = "sqlite3"

// No connection settings are needed for the cgo driver
const sqlitePragmas = ""

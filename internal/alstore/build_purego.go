//go:build purego || !sqlite_cgo
// +build purego !sqlite_cgo

package alstore

// This file is compiled whenever the sqlite_cgo tag is absent (or the purego
// tag is set), whether or not CGO is enabled. It uses a pure Go SQLite
// implementation.
//
// Build command:
//   CGO_ENABLED=0 go build -tags "purego" ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use.
	DriverName = "sqlite"

	// BuildMode describes the current build configuration.
	BuildMode = "purego"
)

// Package database manages the SQLite store that backs EstateHub Core's
// durable local state (the persisted session).
//
// It provides connection lifecycle management with the pragmas SQLite
// needs for a single-writer workload, plus an embedded-migration runner
// so the schema travels inside the binary.
package database

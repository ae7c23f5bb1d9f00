// Package database provides SQLite-based storage for valuation history.
//
// This package implements the ReportDB, which keeps every saved valuation
// report keyed by the payload hash it was produced from, so that repeat
// valuations of the same browser can be listed and compared over time.
//
// The database is a single file opened through modernc.org/sqlite, a CGO-free
// driver, with WAL journaling enabled by default.
package database

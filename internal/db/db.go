// Package db owns the embedded SQLite store: connection setup, the
// authoritative schema, and additive column migrations.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (creating if needed) the pulse database at the given path and
// brings the schema up to date. The returned handle is the single store
// dependency injected into every repository - there is no package-level
// connection, so initialization happens exactly once, explicitly, at
// process start.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps readers off the single writer's back; the busy timeout
	// queues concurrent mutation attempts instead of failing them.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := InitSchema(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return conn, nil
}

// InitSchema creates all tables and indexes, then applies pending additive
// migrations. Safe to call on every startup: every statement is guarded by
// IF NOT EXISTS or a column-presence check.
func InitSchema(conn *sql.DB) error {
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := applyMigrations(conn); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

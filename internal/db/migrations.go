package db

import (
	"database/sql"
	"fmt"
)

// columnMigration adds one column to an existing table when it is missing.
// Migrations are strictly additive: columns are never dropped or renamed,
// so databases created by any prior version keep working.
type columnMigration struct {
	Table      string
	Column     string
	Definition string
}

// pendingMigrations lists columns added after the first released schema.
// A fresh install gets them from SchemaSQL; an older database gets them here.
var pendingMigrations = []columnMigration{
	{"runs", "triggered_by", "TEXT"},
	{"runs", "started_at", "TEXT"},
	{"runs", "completed_at", "TEXT"},
	{"runs", "error_message", "TEXT"},
	{"reviews", "raw_data", "TEXT"},
}

func applyMigrations(conn *sql.DB) error {
	for _, m := range pendingMigrations {
		present, err := columnExists(conn, m.Table, m.Column)
		if err != nil {
			return err
		}
		if present {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Definition)
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to add column %s.%s: %w", m.Table, m.Column, err)
		}
	}
	return nil
}

func columnExists(conn *sql.DB, table, column string) (bool, error) {
	rows, err := conn.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			typ        string
			notNull    int
			defaultVal sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &primaryKey); err != nil {
			return false, fmt.Errorf("failed to scan table_info row: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

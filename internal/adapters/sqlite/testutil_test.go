// Package sqlite_test contains integration tests for SQLite repositories.
//
// All test setup loads the authoritative schema via db.GetSchemaSQL(), so a
// repository referencing a column that does not exist fails immediately
// instead of drifting against a hand-written test schema.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ItRachii/weekly-app-review-pulse/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// A second pooled connection would open a second, empty in-memory
	// database, so pin the pool to one connection.
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedReview inserts a test review directly.
func seedReview(t *testing.T, conn *sql.DB, platform, text, day string) {
	t.Helper()
	_, err := conn.Exec(
		"INSERT INTO reviews (platform, rating, title, review_text, day) VALUES (?, 3, '', ?, ?)",
		platform, text, day,
	)
	if err != nil {
		t.Fatalf("failed to seed review: %v", err)
	}
}

// seedCoverage inserts a coverage fact directly.
func seedCoverage(t *testing.T, conn *sql.DB, platform, day string) {
	t.Helper()
	_, err := conn.Exec("INSERT INTO scrape_coverage (platform, day) VALUES (?, ?)", platform, day)
	if err != nil {
		t.Fatalf("failed to seed coverage: %v", err)
	}
}

// seedRun inserts a run row directly with the given status.
func seedRun(t *testing.T, conn *sql.DB, id, status string) {
	t.Helper()
	_, err := conn.Exec(
		`INSERT INTO runs (run_id, status, trigger_source, start_day, end_day, triggered_at)
		 VALUES (?, ?, 'manual', '2026-02-09', '2026-02-16', '2026-02-16T09:30:00Z')`,
		id, status,
	)
	if err != nil {
		t.Fatalf("failed to seed run: %v", err)
	}
}

// countRows returns the row count of a table.
func countRows(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()
	var count int
	if err := conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return count
}

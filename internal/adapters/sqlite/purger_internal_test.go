package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/db"
)

// White-box test for the all-or-nothing guarantee: a failure after the
// deletes but before commit must leave every relation exactly as it was.
func TestPurgeRollsBackOnFailure(t *testing.T) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if _, err := conn.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	mustExec := func(query string, args ...any) {
		t.Helper()
		if _, err := conn.Exec(query, args...); err != nil {
			t.Fatal(err)
		}
	}
	mustExec("INSERT INTO reviews (platform, rating, review_text, day) VALUES ('android', 2, 'laggy', '2026-02-09')")
	mustExec("INSERT INTO scrape_coverage (platform, day) VALUES ('android', '2026-02-09')")
	mustExec(`INSERT INTO runs (run_id, status, trigger_source, start_day, end_day, triggered_at)
		 VALUES ('RUN-1', 'succeeded', 'manual', '2026-02-09', '2026-02-09', '2026-02-09T10:00:00Z')`)

	purger := NewStorePurger(conn)
	purger.beforeCommit = func(*sql.Tx) error {
		return errors.New("simulated deletion failure")
	}

	err = purger.PurgeAll(context.Background())
	var integrity *pipeline.StoreIntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("PurgeAll() error = %v, want StoreIntegrityError", err)
	}

	// No partial purge: all three relations keep their rows.
	for _, table := range []string{"reviews", "scrape_coverage", "runs"} {
		var count int
		if err := conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Errorf("%s has %d rows after failed purge, want 1", table, count)
		}
	}
}

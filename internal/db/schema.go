package db

// SchemaSQL is the complete modern schema for fresh installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All repository
// tests load it via GetSchemaSQL(), so a repository referencing a column that
// is missing here fails immediately with "no such column" instead of drifting
// silently.
//
// Keep in sync with applyMigrations: a fresh install and a migrated older
// database must end up with identical columns.
const SchemaSQL = `
-- Reviews (deduplicated, append-only review facts)
CREATE TABLE IF NOT EXISTS reviews (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	platform TEXT NOT NULL CHECK(platform IN ('android', 'ios')),
	rating INTEGER NOT NULL CHECK(rating BETWEEN 1 AND 5),
	title TEXT,
	review_text TEXT NOT NULL,
	day TEXT NOT NULL,
	raw_data TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(platform, review_text, day)
);

CREATE INDEX IF NOT EXISTS idx_reviews_day ON reviews (day);

-- Scrape coverage (incremental fetch tracker; a row means the unit was
-- fetched, even if it yielded zero reviews)
CREATE TABLE IF NOT EXISTS scrape_coverage (
	platform TEXT NOT NULL CHECK(platform IN ('android', 'ios')),
	day TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (platform, day)
);

-- Run ledger (one row per pipeline execution)
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	status TEXT NOT NULL CHECK(status IN ('triggered', 'running', 'succeeded', 'failed')) DEFAULT 'triggered',
	trigger_source TEXT NOT NULL CHECK(trigger_source IN ('scheduled', 'manual', 'api')) DEFAULT 'manual',
	triggered_by TEXT,
	start_day TEXT NOT NULL,
	end_day TEXT NOT NULL,
	triggered_at TEXT NOT NULL,
	started_at TEXT,
	completed_at TEXT,
	reviews_processed INTEGER NOT NULL DEFAULT 0,
	themes_identified INTEGER NOT NULL DEFAULT 0,
	error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_triggered_at ON runs (triggered_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs (status);
`

// GetSchemaSQL returns the authoritative schema SQL for test setup.
func GetSchemaSQL() string {
	return SchemaSQL
}

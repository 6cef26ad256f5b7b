package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

// CoverageRepository implements secondary.CoverageRepository with SQLite.
type CoverageRepository struct {
	db *sql.DB
}

// NewCoverageRepository creates a new SQLite coverage repository.
func NewCoverageRepository(db *sql.DB) *CoverageRepository {
	return &CoverageRepository{db: db}
}

// CoveredDays returns the covered days for a platform in the closed range.
func (r *CoverageRepository) CoveredDays(ctx context.Context, platform, startDay, endDay string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT day FROM scrape_coverage WHERE platform = ? AND day >= ? AND day <= ?",
		platform, startDay, endDay,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query coverage: %w", err)
	}
	defer rows.Close()

	covered := make(map[string]bool)
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan coverage day: %w", err)
		}
		covered[day] = true
	}
	return covered, rows.Err()
}

// MarkCovered records that (platform, day) has been fetched. Re-marking an
// existing unit is a silent no-op: the fact "fetched, possibly empty" is
// already recorded.
func (r *CoverageRepository) MarkCovered(ctx context.Context, platform, day string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO scrape_coverage (platform, day) VALUES (?, ?)",
		platform, day,
	)
	if err != nil {
		return fmt.Errorf("failed to mark coverage for %s/%s: %w", platform, day, err)
	}
	return nil
}

// Ensure CoverageRepository implements the interface
var _ secondary.CoverageRepository = (*CoverageRepository)(nil)

// Package sqlite contains SQLite implementations of the repository
// interfaces. The store is single-writer: mutating operations open
// immediate transactions so concurrent writers queue at the database
// instead of interleaving.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

// ReviewRepository implements secondary.ReviewRepository with SQLite.
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new SQLite review repository.
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Ingest inserts records one batch per transaction. Duplicate keys on
// (platform, review_text, day) are swallowed by INSERT OR IGNORE - that
// no-op is the dedup mechanism, and such records are excluded from the
// returned count. Any other violation aborts the batch.
func (r *ReviewRepository) Ingest(ctx context.Context, records []secondary.ReviewRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin ingest transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO reviews (platform, rating, title, review_text, day, raw_data)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare ingest statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		var title sql.NullString
		if rec.Title != "" {
			title = sql.NullString{String: rec.Title, Valid: true}
		}

		result, err := stmt.ExecContext(ctx, rec.Platform, rec.Rating, title, rec.Text, rec.Day, rec.Raw)
		if err != nil {
			return 0, &pipeline.StoreIntegrityError{Op: "ingest", Err: err}
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ingest: %w", err)
	}
	return inserted, nil
}

// ListByDayRange retrieves reviews in the closed day range, oldest first.
func (r *ReviewRepository) ListByDayRange(ctx context.Context, startDay, endDay string) ([]*secondary.ReviewRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT platform, rating, title, review_text, day, raw_data
		 FROM reviews WHERE day >= ? AND day <= ?
		 ORDER BY day ASC, id ASC`,
		startDay, endDay,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*secondary.ReviewRecord
	for rows.Next() {
		var (
			title sql.NullString
			raw   sql.NullString
		)
		record := &secondary.ReviewRecord{}
		if err := rows.Scan(&record.Platform, &record.Rating, &title, &record.Text, &record.Day, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		record.Title = title.String
		record.Raw = raw.String
		reviews = append(reviews, record)
	}
	return reviews, rows.Err()
}

// Count returns the total number of stored reviews.
func (r *ReviewRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviews").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

// Ensure ReviewRepository implements the interface
var _ secondary.ReviewRepository = (*ReviewRepository)(nil)

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/run"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

// StorePurger implements secondary.StorePurger with SQLite.
//
// All three relations are wiped in a single transaction: either every
// deletion commits or none does. The active-run guard runs inside the same
// transaction, so a run triggered between the check and the deletes cannot
// slip through.
type StorePurger struct {
	db *sql.DB

	// beforeCommit is a test hook invoked after the deletes but before
	// commit, to exercise the rollback path.
	beforeCommit func(*sql.Tx) error
}

// NewStorePurger creates a new SQLite store purger.
func NewStorePurger(db *sql.DB) *StorePurger {
	return &StorePurger{db: db}
}

// PurgeAll deletes every review, coverage fact, and run as one unit.
func (p *StorePurger) PurgeAll(ctx context.Context) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin purge transaction: %w", err)
	}
	defer tx.Rollback()

	var active int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM runs WHERE status IN (?, ?)",
		string(run.StatusTriggered), string(run.StatusRunning),
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("failed to check active runs: %w", err)
	}
	if active > 0 {
		return pipeline.ErrPurgeBlocked
	}

	for _, table := range []string{"reviews", "scrape_coverage", "runs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return &pipeline.StoreIntegrityError{
				Op:  "purge " + table,
				Err: err,
			}
		}
	}

	if p.beforeCommit != nil {
		if err := p.beforeCommit(tx); err != nil {
			return &pipeline.StoreIntegrityError{Op: "purge", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit purge: %w", err)
	}
	return nil
}

// Ensure StorePurger implements the interface
var _ secondary.StorePurger = (*StorePurger)(nil)

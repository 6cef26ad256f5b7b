// Package secondary defines the secondary ports (driven adapters) for the
// application. These are the interfaces through which the application drives
// external systems.
package secondary

import (
	"context"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/run"
)

// ReviewRecord represents a review as stored in persistence.
// Records are immutable facts: created by ingestion, never updated, removed
// only by full purge.
type ReviewRecord struct {
	Platform string
	Rating   int
	Title    string
	Text     string
	Day      string // calendar date, YYYY-MM-DD
	Raw      string // opaque source payload for audit
}

// ReviewRepository defines the secondary port for review persistence.
type ReviewRepository interface {
	// Ingest inserts the given records, swallowing duplicate-key conflicts
	// on (platform, text, day). Returns the number actually inserted;
	// records already present are excluded from the count.
	Ingest(ctx context.Context, records []ReviewRecord) (int, error)

	// ListByDayRange retrieves reviews whose day falls in the closed range.
	ListByDayRange(ctx context.Context, startDay, endDay string) ([]*ReviewRecord, error)

	// Count returns the total number of stored reviews.
	Count(ctx context.Context) (int, error)
}

// CoverageRepository defines the secondary port for the incremental fetch
// tracker. A coverage fact records that (platform, day) has been fetched,
// independent of how many reviews the fetch yielded.
type CoverageRepository interface {
	// CoveredDays returns the set of covered days for a platform within
	// the closed range, keyed by YYYY-MM-DD.
	CoveredDays(ctx context.Context, platform, startDay, endDay string) (map[string]bool, error)

	// MarkCovered records a coverage fact. Idempotent: marking an already
	// covered unit is a silent no-op.
	MarkCovered(ctx context.Context, platform, day string) error
}

// RunRecord represents a pipeline run as stored in the ledger.
type RunRecord struct {
	ID               string
	Status           string
	TriggerSource    string
	TriggeredBy      string
	StartDay         string
	EndDay           string
	TriggeredAt      string // RFC3339 UTC
	StartedAt        string // empty until the run starts
	CompletedAt      string // empty until the run reaches a terminal state
	ReviewsProcessed int
	ThemesIdentified int
	ErrorMessage     string
}

// RunFilters contains filter options for querying the run ledger.
type RunFilters struct {
	Status string
	Limit  int
}

// RunRepository defines the secondary port for the run ledger. All status
// transitions are guarded so illegal moves surface as integrity errors
// instead of silently corrupting the ledger.
type RunRepository interface {
	// Create persists a new run in triggered state. The check against
	// existing active runs and the insert happen atomically; if another
	// run is in triggered or running, Create returns pipeline.ErrPipelineBusy
	// and leaves no state behind.
	Create(ctx context.Context, record *RunRecord) error

	// Start transitions triggered -> running, recording the start timestamp.
	Start(ctx context.Context, id string, result run.TransitionResult) error

	// Complete transitions running -> succeeded, recording the completion
	// timestamp and final counts.
	Complete(ctx context.Context, id string, result run.TransitionResult, counts run.Counts) error

	// Fail transitions running -> failed (or triggered -> failed if the
	// run never started), recording the error message.
	Fail(ctx context.Context, id string, result run.TransitionResult) error

	// GetByID retrieves a run by its identifier.
	GetByID(ctx context.Context, id string) (*RunRecord, error)

	// List retrieves runs matching the given filters, newest first.
	List(ctx context.Context, filters RunFilters) ([]*RunRecord, error)

	// FindActive returns the run currently holding the single-flight slot,
	// or nil if no run is in triggered or running.
	FindActive(ctx context.Context) (*RunRecord, error)

	// FindCompletedForRange returns the most recent succeeded run for the
	// requested day range, or nil. The key is the canonical range key
	// produced by run.RangeKey. Used for trigger idempotency.
	FindCompletedForRange(ctx context.Context, rangeKey string) (*RunRecord, error)

	// ReconcileOrphans sweeps runs left in a non-terminal state by an
	// unclean process termination, marking them failed. Returns the number
	// of runs reconciled. Called once at process start.
	ReconcileOrphans(ctx context.Context) (int, error)
}

// StorePurger defines the secondary port for the all-or-nothing wipe of
// reviews, coverage, and runs. The three deletions commit as one unit; the
// active-run guard is evaluated inside the same transaction.
type StorePurger interface {
	// PurgeAll deletes every review, coverage fact, and run. Returns
	// pipeline.ErrPurgeBlocked without side effects if a run is active.
	PurgeAll(ctx context.Context) error
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/run"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

// RunRepository implements secondary.RunRepository with SQLite.
//
// Create is the single-flight enforcement point: the active-run check and
// the insert happen under one transaction, serialized by a process-local
// mutex so two concurrent triggers cannot both observe "no active run".
type RunRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create persists a new run in triggered state, rejecting the insert with
// pipeline.ErrPipelineBusy if any run is currently triggered or running.
func (r *RunRepository) Create(ctx context.Context, record *secondary.RunRecord) error {
	if record.ID == "" {
		return fmt.Errorf("run ID must be pre-populated by service layer")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin create transaction: %w", err)
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
		return pipeline.ErrPipelineBusy
	}

	var triggeredBy sql.NullString
	if record.TriggeredBy != "" {
		triggeredBy = sql.NullString{String: record.TriggeredBy, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, status, trigger_source, triggered_by, start_day, end_day, triggered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, string(run.InitialStatus()), record.TriggerSource, triggeredBy,
		record.StartDay, record.EndDay, record.TriggeredAt,
	)
	if err != nil {
		return &pipeline.StoreIntegrityError{Op: "create run", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run creation: %w", err)
	}
	record.Status = string(run.InitialStatus())
	return nil
}

// Start transitions triggered -> running. Observing any other state is a
// programming error and surfaces as a StoreIntegrityError.
func (r *RunRepository) Start(ctx context.Context, id string, result run.TransitionResult) error {
	if result.StartedAt == nil {
		return fmt.Errorf("start transition requires a start timestamp")
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE runs SET status = ?, started_at = ? WHERE run_id = ? AND status = ?",
		string(result.NewStatus), result.StartedAt.UTC().Format(time.RFC3339),
		id, string(run.StatusTriggered),
	)
	if err != nil {
		return fmt.Errorf("failed to start run %s: %w", id, err)
	}
	return r.requireTransition(ctx, res, "start", id, result.NewStatus)
}

// Complete transitions running -> succeeded, recording final counts.
func (r *RunRepository) Complete(ctx context.Context, id string, result run.TransitionResult, counts run.Counts) error {
	if result.CompletedAt == nil {
		return fmt.Errorf("complete transition requires a completion timestamp")
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, reviews_processed = ?, themes_identified = ?
		 WHERE run_id = ? AND status = ?`,
		string(result.NewStatus), result.CompletedAt.UTC().Format(time.RFC3339),
		counts.ReviewsProcessed, counts.ThemesIdentified,
		id, string(run.StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("failed to complete run %s: %w", id, err)
	}
	return r.requireTransition(ctx, res, "complete", id, result.NewStatus)
}

// Fail transitions running -> failed, or triggered -> failed when the run
// never started.
func (r *RunRepository) Fail(ctx context.Context, id string, result run.TransitionResult) error {
	if result.CompletedAt == nil {
		return fmt.Errorf("fail transition requires a completion timestamp")
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error_message = ?
		 WHERE run_id = ? AND status IN (?, ?)`,
		string(result.NewStatus), result.CompletedAt.UTC().Format(time.RFC3339),
		result.ErrorMessage,
		id, string(run.StatusTriggered), string(run.StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("failed to fail run %s: %w", id, err)
	}
	return r.requireTransition(ctx, res, "fail", id, result.NewStatus)
}

// requireTransition converts a zero-row guarded UPDATE into an integrity
// error, re-reading the row to say why the move was refused. Terminal rows
// are immutable, so this also protects succeeded/failed runs from being
// recycled.
func (r *RunRepository) requireTransition(ctx context.Context, res sql.Result, op, id string, to run.Status) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected != 0 {
		return nil
	}

	var current string
	err = r.db.QueryRowContext(ctx,
		"SELECT status FROM runs WHERE run_id = ?", id).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		return &pipeline.StoreIntegrityError{
			Op:  op,
			Err: fmt.Errorf("run %s is not in the ledger", id),
		}
	case err != nil:
		return &pipeline.StoreIntegrityError{Op: op, Err: err}
	case !run.CanTransition(run.Status(current), to):
		return &pipeline.StoreIntegrityError{
			Op:  op,
			Err: fmt.Errorf("illegal transition %s -> %s for run %s", current, to, id),
		}
	default:
		return &pipeline.StoreIntegrityError{
			Op:  op,
			Err: fmt.Errorf("run %s changed state concurrently", id),
		}
	}
}

const runColumns = `run_id, status, trigger_source, triggered_by, start_day, end_day,
	triggered_at, started_at, completed_at, reviews_processed, themes_identified, error_message`

// GetByID retrieves a run by its identifier.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*secondary.RunRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE run_id = ?", id)

	record, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, pipeline.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return record, nil
}

// List retrieves runs matching the given filters, newest first.
func (r *RunRepository) List(ctx context.Context, filters secondary.RunFilters) ([]*secondary.RunRecord, error) {
	query := "SELECT " + runColumns + " FROM runs"
	args := []any{}

	if filters.Status != "" {
		query += " WHERE status = ?"
		args = append(args, filters.Status)
	}
	query += " ORDER BY triggered_at DESC, run_id DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []*secondary.RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// FindActive returns the run holding the single-flight slot, or nil.
func (r *RunRepository) FindActive(ctx context.Context) (*secondary.RunRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE status IN (?, ?) LIMIT 1",
		string(run.StatusTriggered), string(run.StatusRunning),
	)

	record, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active run: %w", err)
	}
	return record, nil
}

// FindCompletedForRange returns the most recent succeeded run for the given
// range key (as produced by run.RangeKey), or nil.
func (r *RunRepository) FindCompletedForRange(ctx context.Context, rangeKey string) (*secondary.RunRecord, error) {
	startDay, endDay, ok := strings.Cut(rangeKey, "..")
	if !ok {
		return nil, fmt.Errorf("malformed range key %q", rangeKey)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs
		 WHERE start_day = ? AND end_day = ? AND status = ?
		 ORDER BY triggered_at DESC LIMIT 1`,
		startDay, endDay, string(run.StatusSucceeded),
	)

	record, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find completed run for range: %w", err)
	}
	return record, nil
}

// ReconcileOrphans marks every non-terminal run as failed. No process other
// than this one may own a run, so any active row found at startup was left
// behind by an unclean termination.
func (r *RunRepository) ReconcileOrphans(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error_message = ?
		 WHERE status IN (?, ?)`,
		string(run.StatusFailed), time.Now().UTC().Format(time.RFC3339),
		"reconciled at startup: process terminated while run was active",
		string(run.StatusTriggered), string(run.StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile orphaned runs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(affected), nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*secondary.RunRecord, error) {
	var (
		triggeredBy sql.NullString
		startedAt   sql.NullString
		completedAt sql.NullString
		errMsg      sql.NullString
	)

	record := &secondary.RunRecord{}
	err := row.Scan(
		&record.ID, &record.Status, &record.TriggerSource, &triggeredBy,
		&record.StartDay, &record.EndDay, &record.TriggeredAt,
		&startedAt, &completedAt,
		&record.ReviewsProcessed, &record.ThemesIdentified, &errMsg,
	)
	if err != nil {
		return nil, err
	}

	record.TriggeredBy = triggeredBy.String
	record.StartedAt = startedAt.String
	record.CompletedAt = completedAt.String
	record.ErrorMessage = errMsg.String
	return record, nil
}

// Ensure RunRepository implements the interface
var _ secondary.RunRepository = (*RunRepository)(nil)

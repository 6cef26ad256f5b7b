package sqlite_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ItRachii/weekly-app-review-pulse/internal/adapters/sqlite"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/run"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

func newRunRecord(id string) *secondary.RunRecord {
	return &secondary.RunRecord{
		ID:            id,
		TriggerSource: "manual",
		TriggeredBy:   "tester",
		StartDay:      "2026-02-09",
		EndDay:        "2026-02-16",
		TriggeredAt:   "2026-02-16T09:30:00Z",
	}
}

func TestCreateRun(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()

	record := newRunRecord("RUN-1")
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if record.Status != string(run.StatusTriggered) {
		t.Errorf("created run status = %q, want triggered", record.Status)
	}

	got, err := repo.GetByID(ctx, "RUN-1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Status != "triggered" || got.TriggeredBy != "tester" {
		t.Errorf("GetByID() = %+v, want triggered by tester", got)
	}
}

func TestCreateRejectsWhileActive(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()

	for _, status := range []string{"triggered", "running"} {
		t.Run("active "+status, func(t *testing.T) {
			if _, err := conn.Exec("DELETE FROM runs"); err != nil {
				t.Fatal(err)
			}
			seedRun(t, conn, "RUN-ACTIVE", status)

			err := repo.Create(ctx, newRunRecord("RUN-NEW"))
			if !errors.Is(err, pipeline.ErrPipelineBusy) {
				t.Errorf("Create() error = %v, want ErrPipelineBusy", err)
			}
			// The rejected create must leave no state behind.
			if got := countRows(t, conn, "runs"); got != 1 {
				t.Errorf("runs table has %d rows, want 1", got)
			}
		})
	}
}

func TestCreateAllowedAfterTerminal(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()

	seedRun(t, conn, "RUN-DONE", "succeeded")
	seedRun(t, conn, "RUN-BAD", "failed")

	if err := repo.Create(ctx, newRunRecord("RUN-NEW")); err != nil {
		t.Fatalf("Create() after terminal runs error: %v", err)
	}
}

func TestConcurrentCreateAdmitsExactlyOne(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, newRunRecord(runID(i)))
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
		} else if !errors.Is(err, pipeline.ErrPipelineBusy) {
			t.Errorf("unexpected create error: %v", err)
		}
	}
	if admitted != 1 {
		t.Errorf("admitted %d concurrent creates, want exactly 1", admitted)
	}
	if got := countRows(t, conn, "runs"); got != 1 {
		t.Errorf("runs table has %d rows, want 1", got)
	}
}

func runID(i int) string {
	return "RUN-CONCURRENT-" + string(rune('A'+i))
}

func TestLifecycleTransitions(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()
	now := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	if err := repo.Create(ctx, newRunRecord("RUN-1")); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := repo.Start(ctx, "RUN-1", run.ApplyStart(now)); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	counts := run.Counts{ReviewsProcessed: 42, ThemesIdentified: 3}
	if err := repo.Complete(ctx, "RUN-1", run.ApplyComplete(now.Add(time.Minute)), counts); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	got, err := repo.GetByID(ctx, "RUN-1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Status != "succeeded" {
		t.Errorf("status = %q, want succeeded", got.Status)
	}
	if got.StartedAt == "" || got.CompletedAt == "" {
		t.Errorf("timestamps missing: started=%q completed=%q", got.StartedAt, got.CompletedAt)
	}
	if got.ReviewsProcessed != 42 || got.ThemesIdentified != 3 {
		t.Errorf("counts = %d/%d, want 42/3", got.ReviewsProcessed, got.ThemesIdentified)
	}
}

func TestIllegalTransitionsAreIntegrityErrors(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC()

	tests := []struct {
		name   string
		status string
		op     func(id string) error
	}{
		{"start from running", "running", func(id string) error {
			return repo.Start(ctx, id, run.ApplyStart(now))
		}},
		{"start from succeeded", "succeeded", func(id string) error {
			return repo.Start(ctx, id, run.ApplyStart(now))
		}},
		{"complete from triggered", "triggered", func(id string) error {
			return repo.Complete(ctx, id, run.ApplyComplete(now), run.Counts{})
		}},
		{"complete from failed", "failed", func(id string) error {
			return repo.Complete(ctx, id, run.ApplyComplete(now), run.Counts{})
		}},
		{"fail from succeeded", "succeeded", func(id string) error {
			return repo.Fail(ctx, id, run.ApplyFail("boom", now))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := conn.Exec("DELETE FROM runs"); err != nil {
				t.Fatal(err)
			}
			seedRun(t, conn, "RUN-X", tt.status)

			err := tt.op("RUN-X")
			var integrity *pipeline.StoreIntegrityError
			if !errors.As(err, &integrity) {
				t.Errorf("error = %v, want StoreIntegrityError", err)
			} else if !strings.Contains(integrity.Error(), "illegal transition") {
				t.Errorf("error = %v, want an illegal-transition explanation", integrity)
			}

			// The row must be untouched by the rejected transition.
			got, gerr := repo.GetByID(ctx, "RUN-X")
			if gerr != nil {
				t.Fatalf("GetByID() error: %v", gerr)
			}
			if got.Status != tt.status {
				t.Errorf("status changed to %q, want %q", got.Status, tt.status)
			}
		})
	}
}

func TestTransitionOnMissingRun(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)

	err := repo.Start(context.Background(), "RUN-GHOST", run.ApplyStart(time.Now().UTC()))
	var integrity *pipeline.StoreIntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("Start() error = %v, want StoreIntegrityError", err)
	}
	if !strings.Contains(integrity.Error(), "not in the ledger") {
		t.Errorf("error = %v, want a missing-run explanation", integrity)
	}
}

func TestFailFromTriggered(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()

	// A run that never started can still be failed.
	seedRun(t, conn, "RUN-1", "triggered")
	if err := repo.Fail(ctx, "RUN-1", run.ApplyFail("guard panic", time.Now().UTC())); err != nil {
		t.Fatalf("Fail() from triggered error: %v", err)
	}

	got, err := repo.GetByID(ctx, "RUN-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "failed" || got.ErrorMessage != "guard panic" {
		t.Errorf("run = %+v, want failed with message", got)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)

	_, err := repo.GetByID(context.Background(), "RUN-MISSING")
	if !errors.Is(err, pipeline.ErrRunNotFound) {
		t.Errorf("GetByID() error = %v, want ErrRunNotFound", err)
	}
}

func TestFindActive(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()

	active, err := repo.FindActive(ctx)
	if err != nil {
		t.Fatalf("FindActive() error: %v", err)
	}
	if active != nil {
		t.Errorf("FindActive() = %+v, want nil", active)
	}

	seedRun(t, conn, "RUN-OLD", "succeeded")
	seedRun(t, conn, "RUN-LIVE", "running")

	active, err = repo.FindActive(ctx)
	if err != nil {
		t.Fatalf("FindActive() error: %v", err)
	}
	if active == nil || active.ID != "RUN-LIVE" {
		t.Errorf("FindActive() = %+v, want RUN-LIVE", active)
	}
}

func TestFindCompletedForRange(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()

	seedRun(t, conn, "RUN-FAILED", "failed")

	// A failed run for the range does not satisfy idempotency.
	got, err := repo.FindCompletedForRange(ctx, "2026-02-09..2026-02-16")
	if err != nil {
		t.Fatalf("FindCompletedForRange() error: %v", err)
	}
	if got != nil {
		t.Errorf("FindCompletedForRange() = %+v, want nil for failed run", got)
	}

	seedRun(t, conn, "RUN-OK", "succeeded")
	got, err = repo.FindCompletedForRange(ctx, "2026-02-09..2026-02-16")
	if err != nil {
		t.Fatalf("FindCompletedForRange() error: %v", err)
	}
	if got == nil || got.ID != "RUN-OK" {
		t.Errorf("FindCompletedForRange() = %+v, want RUN-OK", got)
	}

	// A different range does not match.
	got, err = repo.FindCompletedForRange(ctx, "2026-02-01..2026-02-08")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("FindCompletedForRange() for other range = %+v, want nil", got)
	}
}

func TestListRuns(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()

	seedRun(t, conn, "RUN-A", "succeeded")
	seedRun(t, conn, "RUN-B", "failed")
	seedRun(t, conn, "RUN-C", "succeeded")

	all, err := repo.List(ctx, secondary.RunFilters{})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() returned %d runs, want 3", len(all))
	}

	failed, err := repo.List(ctx, secondary.RunFilters{Status: "failed"})
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 || failed[0].ID != "RUN-B" {
		t.Errorf("List(failed) = %+v, want RUN-B only", failed)
	}

	limited, err := repo.List(ctx, secondary.RunFilters{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("List(limit=2) returned %d runs, want 2", len(limited))
	}
}

func TestReconcileOrphans(t *testing.T) {
	conn := setupTestDB(t)
	repo := sqlite.NewRunRepository(conn)
	ctx := context.Background()

	seedRun(t, conn, "RUN-ORPHAN-1", "running")
	seedRun(t, conn, "RUN-ORPHAN-2", "triggered")
	seedRun(t, conn, "RUN-DONE", "succeeded")

	swept, err := repo.ReconcileOrphans(ctx)
	if err != nil {
		t.Fatalf("ReconcileOrphans() error: %v", err)
	}
	if swept != 2 {
		t.Errorf("ReconcileOrphans() = %d, want 2", swept)
	}

	for _, id := range []string{"RUN-ORPHAN-1", "RUN-ORPHAN-2"} {
		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != "failed" || got.ErrorMessage == "" || got.CompletedAt == "" {
			t.Errorf("orphan %s = %+v, want failed with message and completion time", id, got)
		}
	}

	done, err := repo.GetByID(ctx, "RUN-DONE")
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != "succeeded" {
		t.Errorf("terminal run swept to %q, want succeeded untouched", done.Status)
	}
}

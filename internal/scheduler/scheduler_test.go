package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/run"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/primary"
)

type recordingPipeline struct {
	mu       sync.Mutex
	requests []primary.TriggerRequest
	err      error
}

func (p *recordingPipeline) Trigger(ctx context.Context, req primary.TriggerRequest) (*primary.TriggerResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return &primary.TriggerResponse{Run: &primary.Run{ID: "scheduled-run"}}, nil
}

func (p *recordingPipeline) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *recordingPipeline) GetRun(ctx context.Context, id string) (*primary.Run, error) {
	return nil, pipeline.ErrRunNotFound
}

func (p *recordingPipeline) ListRuns(ctx context.Context, filters primary.RunFilters) ([]*primary.Run, error) {
	return nil, nil
}

func TestMaybeFireBeforeHourDoesNothing(t *testing.T) {
	p := &recordingPipeline{}
	s := New(p, 3, nil)
	s.now = func() time.Time {
		return time.Date(2026, 2, 16, 1, 0, 0, 0, time.UTC)
	}

	s.maybeFire(context.Background())
	if len(p.requests) != 0 {
		t.Fatalf("triggered %d runs before fire hour, want 0", len(p.requests))
	}
}

func TestMaybeFireTriggersTrailingWeek(t *testing.T) {
	p := &recordingPipeline{}
	s := New(p, 3, nil)
	s.now = func() time.Time {
		return time.Date(2026, 2, 16, 4, 0, 0, 0, time.UTC)
	}

	s.maybeFire(context.Background())
	if len(p.requests) != 1 {
		t.Fatalf("triggered %d runs, want 1", len(p.requests))
	}
	req := p.requests[0]
	if req.TriggerSource != string(run.SourceScheduled) {
		t.Errorf("trigger source = %s, want scheduled", req.TriggerSource)
	}
	if got := req.EndDate.Format(run.DayFormat); got != "2026-02-15" {
		t.Errorf("end date = %s, want 2026-02-15", got)
	}
	if got := req.StartDate.Format(run.DayFormat); got != "2026-02-09" {
		t.Errorf("start date = %s, want 2026-02-09", got)
	}
	if req.Force {
		t.Error("scheduled runs must respect the idempotency check")
	}
}

func TestMaybeFireSurvivesBusyPipeline(t *testing.T) {
	p := &recordingPipeline{err: pipeline.ErrPipelineBusy}
	s := New(p, 3, nil)
	s.now = func() time.Time {
		return time.Date(2026, 2, 16, 4, 0, 0, 0, time.UTC)
	}

	// Busy rejections are routine; the next tick retries.
	s.maybeFire(context.Background())
	s.maybeFire(context.Background())
	if len(p.requests) != 2 {
		t.Fatalf("triggered %d attempts, want 2", len(p.requests))
	}
}

func TestStartStop(t *testing.T) {
	p := &recordingPipeline{}
	s := New(p, 23, nil)
	s.interval = 10 * time.Millisecond
	s.now = func() time.Time {
		return time.Date(2026, 2, 16, 1, 0, 0, 0, time.UTC)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	s.Start(ctx) // second start is a no-op
	time.Sleep(30 * time.Millisecond)
	s.Stop()
	s.Stop() // second stop is a no-op
}

func TestStopWhileTicking(t *testing.T) {
	p := &recordingPipeline{}
	s := New(p, 0, nil) // fire hour already reached, every tick triggers
	s.interval = time.Millisecond
	s.now = func() time.Time {
		return time.Date(2026, 2, 16, 4, 0, 0, 0, time.UTC)
	}

	s.Start(context.Background())
	time.Sleep(15 * time.Millisecond)
	s.Stop()
	s.Stop()

	// Let any tick dispatched before Stop drain.
	time.Sleep(10 * time.Millisecond)
	fired := p.count()
	if fired == 0 {
		t.Fatal("expected at least one tick before Stop")
	}

	time.Sleep(15 * time.Millisecond)
	if got := p.count(); got != fired {
		t.Errorf("ticks continued after Stop: %d -> %d", fired, got)
	}
}

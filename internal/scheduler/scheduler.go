// Package scheduler drives the automatic weekly trigger in serve mode.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/run"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/primary"
)

// Scheduler checks once an hour whether the daily fire hour has been reached
// and triggers a trailing-week run when it has. The idempotency check in the
// service keeps repeated fires over an already-covered range free.
type Scheduler struct {
	pipeline primary.PipelineService
	hourUTC  int
	interval time.Duration
	log      *zap.SugaredLogger
	now      func() time.Time

	// stop is created once in New and only ever closed, so the tick
	// goroutine can select on it without synchronization.
	stop      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// New builds a scheduler that fires daily at the given UTC hour.
func New(pipelineSvc primary.PipelineService, hourUTC int, logger *zap.SugaredLogger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Scheduler{
		pipeline: pipelineSvc,
		hourUTC:  hourUTC,
		interval: time.Hour,
		log:      logger.Named("scheduler"),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Start launches the tick loop. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(s.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					s.maybeFire(ctx)
				case <-ctx.Done():
					return
				case <-s.stop:
					return
				}
			}
		}()
		s.log.Infow("scheduler started", "hour_utc", s.hourUTC)
	})
}

// Stop halts the tick loop. Safe to call repeatedly and concurrently with
// in-flight ticks.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// maybeFire triggers the trailing-week run once the fire hour is reached.
// The service's completed-range short circuit makes extra fires harmless.
func (s *Scheduler) maybeFire(ctx context.Context) {
	now := s.now().UTC()
	if now.Hour() < s.hourUTC {
		return
	}

	end := now.AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -6)

	resp, err := s.pipeline.Trigger(ctx, primary.TriggerRequest{
		StartDate:     start,
		EndDate:       end,
		TriggerSource: string(run.SourceScheduled),
		TriggeredBy:   "scheduler",
	})
	switch {
	case errors.Is(err, pipeline.ErrPipelineBusy):
		s.log.Debugw("scheduled trigger skipped, pipeline busy")
	case err != nil:
		s.log.Errorw("scheduled trigger failed", "error", err)
	case resp.ShortCircuited:
		// Range already reported; nothing to do until the window moves.
	default:
		s.log.Infow("scheduled run admitted", "run_id", resp.Run.ID,
			"start", resp.Run.StartDay, "end", resp.Run.EndDay)
	}
}

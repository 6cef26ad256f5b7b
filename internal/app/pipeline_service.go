// Package app implements the primary ports: run orchestration, the ledger
// read path, and destructive maintenance.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/coverage"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/review"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/run"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/theme"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/primary"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

// PipelineDeps wires every driven adapter into the orchestrator.
type PipelineDeps struct {
	RunRepo      secondary.RunRepository
	ReviewRepo   secondary.ReviewRepository
	CoverageRepo secondary.CoverageRepository
	Sources      []secondary.ReviewSource
	Clusterer    secondary.ThemeClusterer
	Renderer     secondary.ReportRenderer
	Sender       secondary.ReportSender
	Artifacts    secondary.ArtifactStore
	Recipient    string
	Logger       *zap.SugaredLogger
}

// PipelineServiceImpl implements primary.PipelineService.
//
// Each admitted trigger runs as one unit of work on its own goroutine; the
// single-flight bound is enforced by the ledger's atomic check-and-insert,
// not by pool sizing.
type PipelineServiceImpl struct {
	runRepo      secondary.RunRepository
	reviewRepo   secondary.ReviewRepository
	coverageRepo secondary.CoverageRepository
	sources      []secondary.ReviewSource
	clusterer    secondary.ThemeClusterer
	renderer     secondary.ReportRenderer
	sender       secondary.ReportSender
	artifacts    secondary.ArtifactStore
	recipient    string
	log          *zap.SugaredLogger

	now      func() time.Time
	runAsync bool
	workers  sync.WaitGroup
}

// NewPipelineService creates a new PipelineService with injected dependencies.
func NewPipelineService(deps PipelineDeps) *PipelineServiceImpl {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &PipelineServiceImpl{
		runRepo:      deps.RunRepo,
		reviewRepo:   deps.ReviewRepo,
		coverageRepo: deps.CoverageRepo,
		sources:      deps.Sources,
		clusterer:    deps.Clusterer,
		renderer:     deps.Renderer,
		sender:       deps.Sender,
		artifacts:    deps.Artifacts,
		recipient:    deps.Recipient,
		log:          logger.Named("pipeline"),
		now:          time.Now,
		runAsync:     true,
	}
}

// ReconcileStartup sweeps runs orphaned by an unclean process termination
// into failed state. Must be called once at process start, before the first
// trigger is accepted.
func (s *PipelineServiceImpl) ReconcileStartup(ctx context.Context) (int, error) {
	swept, err := s.runRepo.ReconcileOrphans(ctx)
	if err != nil {
		return 0, fmt.Errorf("startup reconciliation failed: %w", err)
	}
	if swept > 0 {
		s.log.Warnw("reconciled orphaned runs to failed", "count", swept)
	}
	return swept, nil
}

// Trigger admits a pipeline run. Guard and idempotency rejections surface
// synchronously; everything after the run is admitted is recorded in the
// ledger instead of being returned to the caller.
func (s *PipelineServiceImpl) Trigger(ctx context.Context, req primary.TriggerRequest) (*primary.TriggerResponse, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end date %s before start date %s",
			pipeline.ErrInvalidTrigger,
			req.EndDate.Format(run.DayFormat), req.StartDate.Format(run.DayFormat))
	}

	source := run.TriggerSource(req.TriggerSource)
	switch source {
	case run.SourceScheduled, run.SourceManual, run.SourceAPI:
	case "":
		source = run.SourceManual
	default:
		return nil, fmt.Errorf("%w: unknown trigger source %q",
			pipeline.ErrInvalidTrigger, req.TriggerSource)
	}

	// Readable fast-path rejection. The ledger's atomic check-and-insert in
	// Create still backstops the single-flight rule against races.
	active, err := s.runRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("active run lookup failed: %w", err)
	}
	activeID := ""
	if active != nil {
		activeID = active.ID
	}
	if guard := run.CanAdmit(activeID); !guard.Allowed {
		s.log.Infow("trigger rejected", "reason", guard.Reason)
		return nil, pipeline.ErrPipelineBusy
	}

	startDay := req.StartDate.Format(run.DayFormat)
	endDay := req.EndDate.Format(run.DayFormat)

	if !req.Force {
		prior, err := s.runRepo.FindCompletedForRange(ctx, run.RangeKey(req.StartDate, req.EndDate))
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if prior != nil {
			s.log.Infow("trigger short-circuited by completed run",
				"run_id", prior.ID, "start", startDay, "end", endDay)
			return &primary.TriggerResponse{Run: recordToRun(prior), ShortCircuited: true}, nil
		}
	}

	triggeredAt := s.now().UTC()
	record := &secondary.RunRecord{
		ID:            run.BuildRunID(source, req.StartDate, req.EndDate, triggeredAt),
		Status:        string(run.InitialStatus()),
		TriggerSource: string(source),
		TriggeredBy:   req.TriggeredBy,
		StartDay:      startDay,
		EndDay:        endDay,
		TriggeredAt:   triggeredAt.Format(time.RFC3339),
	}

	if err := s.runRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	s.log.Infow("run admitted", "run_id", record.ID, "source", source, "start", startDay, "end", endDay)

	if s.runAsync {
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			// The trigger caller's context ends with the request;
			// the run's lifetime does not.
			s.execute(context.Background(), record.ID, startDay, endDay)
		}()
	} else {
		s.execute(ctx, record.ID, startDay, endDay)
	}

	return &primary.TriggerResponse{Run: recordToRun(record)}, nil
}

// Wait blocks until every in-flight run worker has finished. Used by the
// one-shot CLI path and by graceful shutdown.
func (s *PipelineServiceImpl) Wait() {
	s.workers.Wait()
}

// execute drives one run through the stage sequence, guaranteeing a
// terminal ledger state for every exit path this process can observe.
func (s *PipelineServiceImpl) execute(ctx context.Context, runID, startDay, endDay string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("run panicked", "run_id", runID, "panic", r)
			s.failRun(ctx, runID, fmt.Sprintf("panic: %v", r))
		}
	}()

	if err := s.runStages(ctx, runID, startDay, endDay); err != nil {
		s.log.Errorw("run failed", "run_id", runID, "error", err)
		s.failRun(ctx, runID, err.Error())
	}
}

func (s *PipelineServiceImpl) failRun(ctx context.Context, runID, message string) {
	if err := s.runRepo.Fail(ctx, runID, run.ApplyFail(message, s.now().UTC())); err != nil {
		s.log.Errorw("failed to record run failure", "run_id", runID, "error", err)
	}
}

func (s *PipelineServiceImpl) runStages(ctx context.Context, runID, startDay, endDay string) error {
	if err := s.runRepo.Start(ctx, runID, run.ApplyStart(s.now().UTC())); err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}

	inserted, rawFetched, err := s.fetchAndIngest(ctx, startDay, endDay)
	if err != nil {
		return err
	}

	reviews, err := s.reviewRepo.ListByDayRange(ctx, startDay, endDay)
	if err != nil {
		return fmt.Errorf("failed to load reviews for range: %w", err)
	}
	if len(reviews) == 0 {
		return fmt.Errorf("no reviews available for %s..%s", startDay, endDay)
	}

	themes := s.clusterOrDegrade(ctx, runID, reviews)

	if s.artifacts != nil {
		if _, err := s.artifacts.SaveRawReviews(runID, rawFetched); err != nil {
			return fmt.Errorf("failed to save raw reviews artifact: %w", err)
		}
		if _, err := s.artifacts.SaveAnalysis(runID, themes); err != nil {
			return fmt.Errorf("failed to save analysis artifact: %w", err)
		}
	}

	meta := secondary.ReportMeta{
		RunID:       runID,
		StartDay:    startDay,
		EndDay:      endDay,
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
		ReviewCount: len(reviews),
	}

	note, err := s.renderer.RenderNote(themes, meta)
	if err != nil {
		return fmt.Errorf("failed to render pulse note: %w", err)
	}
	html, err := s.renderer.RenderEmail(themes, meta)
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	if s.artifacts != nil {
		if _, err := s.artifacts.SaveNote(runID, note); err != nil {
			return fmt.Errorf("failed to save pulse note: %w", err)
		}
		if _, err := s.artifacts.SaveEmail(runID, html); err != nil {
			return fmt.Errorf("failed to save email body: %w", err)
		}
	}

	s.deliver(ctx, runID, startDay, endDay, html)

	counts := run.Counts{ReviewsProcessed: inserted, ThemesIdentified: len(themes)}
	if err := s.runRepo.Complete(ctx, runID, run.ApplyComplete(s.now().UTC()), counts); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	s.log.Infow("run succeeded", "run_id", runID,
		"reviews_processed", counts.ReviewsProcessed, "themes", counts.ThemesIdentified)
	return nil
}

// fetchAndIngest walks each platform's coverage gap, fetching only missing
// units. A unit is marked covered strictly after its ingest commits, so a
// failure mid-fetch leaves the unit uncovered and retryable. Per-unit fetch
// failures skip the unit without failing the run.
func (s *PipelineServiceImpl) fetchAndIngest(ctx context.Context, startDay, endDay string) (int, []secondary.RawReview, error) {
	start, err := time.Parse(run.DayFormat, startDay)
	if err != nil {
		return 0, nil, fmt.Errorf("bad start day %q: %w", startDay, err)
	}
	end, err := time.Parse(run.DayFormat, endDay)
	if err != nil {
		return 0, nil, fmt.Errorf("bad end day %q: %w", endDay, err)
	}

	inserted := 0
	var rawFetched []secondary.RawReview

	for _, source := range s.sources {
		platform := source.Platform()

		covered, err := s.coverageRepo.CoveredDays(ctx, string(platform), startDay, endDay)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to load coverage for %s: %w", platform, err)
		}

		for _, day := range coverage.MissingDays(start, end, covered) {
			raws, err := source.FetchDay(ctx, day)
			if err != nil {
				// Unit stays uncovered; the next overlapping
				// trigger retries it.
				s.log.Warnw("fetch failed, unit left uncovered",
					"platform", platform, "day", day, "error", err)
				continue
			}

			records := prepareRecords(platform, day, raws)
			n, err := s.reviewRepo.Ingest(ctx, records)
			if err != nil {
				return 0, nil, fmt.Errorf("failed to ingest %s/%s: %w", platform, day, err)
			}
			inserted += n

			if err := s.coverageRepo.MarkCovered(ctx, string(platform), day); err != nil {
				return 0, nil, fmt.Errorf("failed to mark coverage %s/%s: %w", platform, day, err)
			}
			rawFetched = append(rawFetched, raws...)
		}
	}
	return inserted, rawFetched, nil
}

// prepareRecords normalizes, scrubs, and validates fetched reviews.
// Records that end up empty after cleaning, or fail validation, are dropped.
func prepareRecords(platform review.Platform, day string, raws []secondary.RawReview) []secondary.ReviewRecord {
	records := make([]secondary.ReviewRecord, 0, len(raws))
	for _, raw := range raws {
		r := review.Review{
			Platform: platform,
			Rating:   raw.Rating,
			Title:    review.Clean(raw.Title),
			Text:     review.Clean(raw.Text),
			Day:      day,
			Raw:      raw.Raw,
		}
		if err := r.Validate(); err != nil {
			continue
		}
		records = append(records, secondary.ReviewRecord{
			Platform: string(r.Platform),
			Rating:   r.Rating,
			Title:    r.Title,
			Text:     r.Text,
			Day:      r.Day,
			Raw:      r.Raw,
		})
	}
	return records
}

// clusterOrDegrade applies the best-effort clustering policy: any clusterer
// failure degrades the run to an empty-themes result instead of failing it.
func (s *PipelineServiceImpl) clusterOrDegrade(ctx context.Context, runID string, reviews []*secondary.ReviewRecord) []theme.Theme {
	if s.clusterer == nil {
		return nil
	}
	themes, err := s.clusterer.Cluster(ctx, reviews)
	if err != nil {
		var unavailable *pipeline.ModelUnavailableError
		if errors.As(err, &unavailable) {
			s.log.Warnw("clustering model unavailable, degrading to empty themes",
				"run_id", runID, "error", err)
		} else {
			s.log.Warnw("clustering failed, degrading to empty themes",
				"run_id", runID, "error", err)
		}
		return nil
	}
	return theme.Clamp(themes)
}

// deliver sends the rendered report. Delivery is decoupled from report
// generation: a failure is logged, never propagated to the run status.
func (s *PipelineServiceImpl) deliver(ctx context.Context, runID, startDay, endDay, html string) {
	if s.sender == nil || s.recipient == "" {
		return
	}
	subject := fmt.Sprintf("Weekly App Review Pulse - %s to %s", startDay, endDay)
	ack, err := s.sender.Send(ctx, subject, html, s.recipient)
	if err != nil {
		s.log.Errorw("report delivery failed", "run_id", runID,
			"recipient", s.recipient, "error", err)
		return
	}
	s.log.Infow("report delivered", "run_id", runID, "message_id", ack.MessageID)
}

// GetRun returns a run by identifier.
func (s *PipelineServiceImpl) GetRun(ctx context.Context, id string) (*primary.Run, error) {
	record, err := s.runRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordToRun(record), nil
}

// CountReviews reports the total number of stored reviews, for the status
// surfaces.
func (s *PipelineServiceImpl) CountReviews(ctx context.Context) (int, error) {
	return s.reviewRepo.Count(ctx)
}

// ListRuns returns runs newest first.
func (s *PipelineServiceImpl) ListRuns(ctx context.Context, filters primary.RunFilters) ([]*primary.Run, error) {
	records, err := s.runRepo.List(ctx, secondary.RunFilters{
		Status: filters.Status,
		Limit:  filters.Limit,
	})
	if err != nil {
		return nil, err
	}

	runs := make([]*primary.Run, len(records))
	for i, record := range records {
		runs[i] = recordToRun(record)
	}
	return runs, nil
}

func recordToRun(record *secondary.RunRecord) *primary.Run {
	return &primary.Run{
		ID:               record.ID,
		Status:           record.Status,
		TriggerSource:    record.TriggerSource,
		TriggeredBy:      record.TriggeredBy,
		StartDay:         record.StartDay,
		EndDay:           record.EndDay,
		TriggeredAt:      record.TriggeredAt,
		StartedAt:        record.StartedAt,
		CompletedAt:      record.CompletedAt,
		ReviewsProcessed: record.ReviewsProcessed,
		ThemesIdentified: record.ThemesIdentified,
		ErrorMessage:     record.ErrorMessage,
	}
}

// Ensure PipelineServiceImpl implements the interface
var _ primary.PipelineService = (*PipelineServiceImpl)(nil)

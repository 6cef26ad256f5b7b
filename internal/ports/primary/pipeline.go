// Package primary defines the primary ports (driving adapters) for the
// application. CLI commands and HTTP handlers talk to the core through
// these interfaces.
package primary

import (
	"context"
	"time"
)

// Run is the caller-facing view of a ledger record.
type Run struct {
	ID               string `json:"run_id"`
	Status           string `json:"status"`
	TriggerSource    string `json:"trigger_source"`
	TriggeredBy      string `json:"triggered_by,omitempty"`
	StartDay         string `json:"start_date"`
	EndDay           string `json:"end_date"`
	TriggeredAt      string `json:"triggered_at"`
	StartedAt        string `json:"started_at,omitempty"`
	CompletedAt      string `json:"completed_at,omitempty"`
	ReviewsProcessed int    `json:"reviews_processed"`
	ThemesIdentified int    `json:"themes_identified"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

// TriggerRequest asks for a pipeline execution over a closed date range.
type TriggerRequest struct {
	StartDate     time.Time
	EndDate       time.Time
	TriggerSource string // scheduled | manual | api
	TriggeredBy   string // principal that requested the run
	Force         bool   // bypass the completed-range idempotency check
}

// TriggerResponse reports the admitted run, or the prior run when the
// request short-circuited against an already completed range.
type TriggerResponse struct {
	Run            *Run
	ShortCircuited bool // true when a prior terminal run was returned
}

// RunFilters narrows ListRuns output.
type RunFilters struct {
	Status string
	Limit  int
}

// PipelineService is the primary port for run orchestration and the
// ledger's read path.
type PipelineService interface {
	// Trigger admits a run (or rejects it with pipeline.ErrPipelineBusy)
	// and executes the pipeline on a background worker. The call returns
	// as soon as the run is admitted; progress is observable via GetRun.
	Trigger(ctx context.Context, req TriggerRequest) (*TriggerResponse, error)

	// GetRun returns a run by identifier, or pipeline.ErrRunNotFound.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context, filters RunFilters) ([]*Run, error)
}

// PurgeRequest asks for the all-or-nothing wipe of all pipeline state.
type PurgeRequest struct {
	ConfirmToken string // must equal the purge confirmation token
}

// PurgeResponse reports what the purge removed. Warnings carry best-effort
// cleanup failures (artifact files, log truncation) that did not roll back
// the store mutation.
type PurgeResponse struct {
	Warnings []string
}

// MaintenanceService is the primary port for destructive administration.
type MaintenanceService interface {
	// Purge wipes reviews, coverage, and runs atomically, then removes
	// artifacts and truncates logs best-effort. Refused with
	// pipeline.ErrPurgeBlocked while a run is active.
	Purge(ctx context.Context, req PurgeRequest) (*PurgeResponse, error)
}

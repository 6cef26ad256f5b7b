package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/run"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/primary"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

// MaintenanceDeps wires the destructive-maintenance collaborators.
type MaintenanceDeps struct {
	Purger    secondary.StorePurger
	Runs      secondary.RunRepository
	Artifacts secondary.ArtifactStore
	LogPath   string
	Logger    *zap.SugaredLogger
}

// MaintenanceServiceImpl implements primary.MaintenanceService.
type MaintenanceServiceImpl struct {
	purger    secondary.StorePurger
	runs      secondary.RunRepository
	artifacts secondary.ArtifactStore
	logPath   string
	log       *zap.SugaredLogger
}

// NewMaintenanceService creates a new MaintenanceService with injected
// dependencies.
func NewMaintenanceService(deps MaintenanceDeps) *MaintenanceServiceImpl {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &MaintenanceServiceImpl{
		purger:    deps.Purger,
		runs:      deps.Runs,
		artifacts: deps.Artifacts,
		logPath:   deps.LogPath,
		log:       logger.Named("maintenance"),
	}
}

// Purge wipes the store in one transaction, then cleans up artifacts and the
// log file best-effort. Store cleanup is all-or-nothing; filesystem cleanup
// failures come back as warnings on a successful response.
func (s *MaintenanceServiceImpl) Purge(ctx context.Context, req primary.PurgeRequest) (*primary.PurgeResponse, error) {
	if guard := run.CanConfirmPurge(req.ConfirmToken); !guard.Allowed {
		return nil, guard.Error()
	}

	// Readable fast-path refusal. The purger re-evaluates the active-run
	// guard inside its own transaction.
	active, err := s.runs.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("active run lookup failed: %w", err)
	}
	activeID := ""
	if active != nil {
		activeID = active.ID
	}
	if guard := run.CanPurge(activeID); !guard.Allowed {
		s.log.Warnw("purge refused", "reason", guard.Reason)
		return nil, pipeline.ErrPurgeBlocked
	}

	if err := s.purger.PurgeAll(ctx); err != nil {
		return nil, err
	}
	s.log.Warnw("store purged")

	var warnings []string
	if s.artifacts != nil {
		if err := s.artifacts.RemoveAll(); err != nil {
			warnings = append(warnings, fmt.Sprintf("artifact cleanup incomplete: %v", err))
			s.log.Warnw("artifact cleanup incomplete", "error", err)
		}
	}
	if s.logPath != "" {
		if err := os.Truncate(s.logPath, 0); err != nil && !os.IsNotExist(err) {
			warnings = append(warnings, fmt.Sprintf("log truncation failed: %v", err))
			s.log.Warnw("log truncation failed", "path", s.logPath, "error", err)
		}
	}

	return &primary.PurgeResponse{Warnings: warnings}, nil
}

var _ primary.MaintenanceService = (*MaintenanceServiceImpl)(nil)

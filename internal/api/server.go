// Package api exposes the pipeline over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/run"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/primary"
	"github.com/ItRachii/weekly-app-review-pulse/internal/version"
)

// Server wraps the HTTP surface over the primary ports.
type Server struct {
	pipeline    primary.PipelineService
	maintenance primary.MaintenanceService
	log         *zap.SugaredLogger
	now         func() time.Time
}

// NewServer builds the HTTP layer over the given services.
func NewServer(pipelineSvc primary.PipelineService, maintenanceSvc primary.MaintenanceService, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		pipeline:    pipelineSvc,
		maintenance: maintenanceSvc,
		log:         logger.Named("api"),
		now:         time.Now,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.health)
	router.POST("/trigger", s.trigger)
	router.GET("/runs", s.listRuns)
	router.GET("/runs/:id", s.getRun)
	router.POST("/purge", s.purge)

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "weekly-app-review-pulse",
		"version": version.String(),
	})
}

type triggerBody struct {
	StartDate   string `json:"start_date"` // YYYY-MM-DD, optional
	EndDate     string `json:"end_date"`   // YYYY-MM-DD, optional
	Force       bool   `json:"force"`
	TriggeredBy string `json:"triggered_by"`
}

// trigger admits a run over the requested range. When no range is given it
// covers the trailing seven days ending yesterday, matching the weekly
// report cadence.
func (s *Server) trigger(c *gin.Context) {
	var body triggerBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	end := s.now().UTC().AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -6)
	var err error
	if body.EndDate != "" {
		if end, err = time.Parse(run.DayFormat, body.EndDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date, want YYYY-MM-DD"})
			return
		}
		start = end.AddDate(0, 0, -6)
	}
	if body.StartDate != "" {
		if start, err = time.Parse(run.DayFormat, body.StartDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date, want YYYY-MM-DD"})
			return
		}
	}

	triggeredBy := body.TriggeredBy
	if triggeredBy == "" {
		triggeredBy = c.ClientIP()
	}

	resp, err := s.pipeline.Trigger(c.Request.Context(), primary.TriggerRequest{
		StartDate:     start,
		EndDate:       end,
		TriggerSource: string(run.SourceAPI),
		TriggeredBy:   triggeredBy,
		Force:         body.Force,
	})
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrPipelineBusy):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, pipeline.ErrInvalidTrigger):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			s.log.Errorw("trigger failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to trigger pipeline"})
		}
		return
	}

	if resp.ShortCircuited {
		c.JSON(http.StatusOK, gin.H{
			"message": "range already covered by a completed run",
			"run":     resp.Run,
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message": "pipeline triggered",
		"run":     resp.Run,
	})
}

func (s *Server) listRuns(c *gin.Context) {
	filters := primary.RunFilters{Status: c.Query("status")}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filters.Limit = n
	}

	runs, err := s.pipeline.ListRuns(c.Request.Context(), filters)
	if err != nil {
		s.log.Errorw("list runs failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []*primary.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) getRun(c *gin.Context) {
	runView, err := s.pipeline.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pipeline.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		s.log.Errorw("get run failed", "run_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}
	c.JSON(http.StatusOK, runView)
}

type purgeBody struct {
	Confirm string `json:"confirm"`
}

func (s *Server) purge(c *gin.Context) {
	var body purgeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := s.maintenance.Purge(c.Request.Context(), primary.PurgeRequest{ConfirmToken: body.Confirm})
	if err != nil {
		if errors.Is(err, pipeline.ErrPurgeBlocked) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	warnings := resp.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "all pipeline data purged",
		"warnings": warnings,
	})
}

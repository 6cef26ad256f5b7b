// Package wire assembles the application graph. Construction is explicit:
// New builds every adapter and service from configuration and hands back one
// App value, so tests and commands can build isolated instances.
package wire

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/ItRachii/weekly-app-review-pulse/internal/adapters/appstore"
	"github.com/ItRachii/weekly-app-review-pulse/internal/adapters/filesystem"
	"github.com/ItRachii/weekly-app-review-pulse/internal/adapters/llm"
	"github.com/ItRachii/weekly-app-review-pulse/internal/adapters/playstore"
	"github.com/ItRachii/weekly-app-review-pulse/internal/adapters/report"
	"github.com/ItRachii/weekly-app-review-pulse/internal/adapters/smtp"
	sqliteadapter "github.com/ItRachii/weekly-app-review-pulse/internal/adapters/sqlite"
	"github.com/ItRachii/weekly-app-review-pulse/internal/app"
	"github.com/ItRachii/weekly-app-review-pulse/internal/config"
	"github.com/ItRachii/weekly-app-review-pulse/internal/db"
	"github.com/ItRachii/weekly-app-review-pulse/internal/logging"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

// App is the assembled application.
type App struct {
	Config      config.Config
	Logger      *zap.SugaredLogger
	Pipeline    *app.PipelineServiceImpl
	Maintenance *app.MaintenanceServiceImpl

	database *sql.DB
}

// New builds the full application from configuration, opens the store, and
// sweeps runs orphaned by a previous unclean shutdown.
func New(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Log.Mode, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	renderer, err := report.NewRenderer(cfg.Report.AppName)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	var sources []secondary.ReviewSource
	if cfg.Apps.Android.PackageName != "" {
		sources = append(sources, playstore.NewSource(playstore.Config{
			PackageName: cfg.Apps.Android.PackageName,
			Lang:        cfg.Apps.Android.Lang,
			Country:     cfg.Apps.Android.Country,
		}, logger))
	}
	if cfg.Apps.IOS.AppID != "" {
		sources = append(sources, appstore.NewSource(appstore.Config{
			AppID:   cfg.Apps.IOS.AppID,
			Country: cfg.Apps.IOS.Country,
		}, logger))
	}

	artifacts := filesystem.NewArtifactStore(cfg.Data.Dir)
	purger := sqliteadapter.NewStorePurger(database)
	runRepo := sqliteadapter.NewRunRepository(database)

	pipeline := app.NewPipelineService(app.PipelineDeps{
		RunRepo:      runRepo,
		ReviewRepo:   sqliteadapter.NewReviewRepository(database),
		CoverageRepo: sqliteadapter.NewCoverageRepository(database),
		Sources:      sources,
		Clusterer: llm.NewClusterer(llm.Config{
			Endpoint: cfg.LLM.Endpoint,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
		}, logger),
		Renderer: renderer,
		Sender: smtp.NewSender(smtp.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, logger),
		Artifacts: artifacts,
		Recipient: cfg.Report.Recipient,
		Logger:    logger,
	})

	maintenance := app.NewMaintenanceService(app.MaintenanceDeps{
		Purger:    purger,
		Runs:      runRepo,
		Artifacts: artifacts,
		LogPath:   cfg.Log.File,
		Logger:    logger,
	})

	if _, err := pipeline.ReconcileStartup(context.Background()); err != nil {
		database.Close()
		return nil, err
	}

	return &App{
		Config:      cfg,
		Logger:      logger,
		Pipeline:    pipeline,
		Maintenance: maintenance,
		database:    database,
	}, nil
}

// Close waits for in-flight runs and releases the store.
func (a *App) Close() error {
	a.Pipeline.Wait()
	_ = a.Logger.Sync()
	return a.database.Close()
}

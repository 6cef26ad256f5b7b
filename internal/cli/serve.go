package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ItRachii/weekly-app-review-pulse/internal/api"
	"github.com/ItRachii/weekly-app-review-pulse/internal/scheduler"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and the weekly scheduler, if enabled)",
		Long: `Start the HTTP API for triggering runs and inspecting the ledger.
When scheduler.enabled is set in the configuration, a background loop
triggers the trailing-week run once per day.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if app.Config.Scheduler.Enabled {
				sched := scheduler.New(app.Pipeline, app.Config.Scheduler.HourUTC, app.Logger)
				sched.Start(ctx)
				defer sched.Stop()
			}

			server := &http.Server{
				Addr:    app.Config.Server.ListenAddr,
				Handler: api.NewServer(app.Pipeline, app.Maintenance, app.Logger).Router(),
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()
			fmt.Printf("✓ Listening on %s\n", app.Config.Server.ListenAddr)

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
			case <-ctx.Done():
				fmt.Println("Shutting down...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown failed: %w", err)
				}
			}
			return nil
		},
	}

	return cmd
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/run"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/primary"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the pipeline's current state",
		Long: `Display whether a run is in flight and how the most recent
runs ended. This answers "is the weekly report on track?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := context.Background()
			runs, err := app.Pipeline.ListRuns(ctx, primary.RunFilters{Limit: 5})
			if err != nil {
				return fmt.Errorf("failed to load runs: %w", err)
			}
			total, err := app.Pipeline.CountReviews(ctx)
			if err != nil {
				return fmt.Errorf("failed to count reviews: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println("Pulse Status - Idle")
				fmt.Println()
				fmt.Printf("Reviews stored: %d\n", total)
				fmt.Println("No runs recorded yet. Trigger the first one:")
				fmt.Println("  pulse trigger")
				return nil
			}

			var active *primary.Run
			for _, r := range runs {
				if run.Status(r.Status).IsActive() {
					active = r
					break
				}
			}

			if active != nil {
				fmt.Println("Pulse Status - Run In Flight")
				fmt.Println()
				fmt.Printf("  %s [%s] %s to %s\n",
					active.ID, colorizeStatus(active.Status), active.StartDay, active.EndDay)
			} else {
				fmt.Println("Pulse Status - Idle")
			}
			fmt.Println()
			fmt.Printf("Reviews stored: %d\n", total)
			fmt.Println()
			fmt.Println("Recent runs:")
			for _, r := range runs {
				fmt.Printf("  %s [%s] %s to %s", r.ID, colorizeStatus(r.Status), r.StartDay, r.EndDay)
				if r.Status == string(run.StatusSucceeded) {
					fmt.Printf(" - %d reviews, %d themes", r.ReviewsProcessed, r.ThemesIdentified)
				}
				fmt.Println()
			}
			return nil
		},
	}

	return cmd
}

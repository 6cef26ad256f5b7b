package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/run"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/primary"
)

// TriggerCmd returns the trigger command
func TriggerCmd() *cobra.Command {
	var (
		startFlag string
		endFlag   string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Run the scrape-to-report pipeline",
		Long: `Run the full pipeline: scrape the uncovered days in the date range,
cluster the reviews into themes, and deliver the weekly pulse report.

Without flags the range is the trailing seven days ending yesterday.

Examples:
  pulse trigger
  pulse trigger --start 2026-02-09 --end 2026-02-15
  pulse trigger --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			end := time.Now().UTC().AddDate(0, 0, -1)
			start := end.AddDate(0, 0, -6)
			var err error
			if endFlag != "" {
				if end, err = time.Parse(run.DayFormat, endFlag); err != nil {
					return fmt.Errorf("invalid --end %q, want YYYY-MM-DD", endFlag)
				}
				start = end.AddDate(0, 0, -6)
			}
			if startFlag != "" {
				if start, err = time.Parse(run.DayFormat, startFlag); err != nil {
					return fmt.Errorf("invalid --start %q, want YYYY-MM-DD", startFlag)
				}
			}

			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := context.Background()
			resp, err := app.Pipeline.Trigger(ctx, primary.TriggerRequest{
				StartDate:     start,
				EndDate:       end,
				TriggerSource: string(run.SourceManual),
				TriggeredBy:   "cli",
				Force:         force,
			})
			if err != nil {
				return fmt.Errorf("failed to trigger pipeline: %w", err)
			}

			if resp.ShortCircuited {
				fmt.Printf("Range %s to %s already covered by run %s (succeeded).\n",
					resp.Run.StartDay, resp.Run.EndDay, resp.Run.ID)
				fmt.Println("Use --force to run it again.")
				return nil
			}

			fmt.Printf("✓ Triggered run %s (%s to %s)\n", resp.Run.ID, resp.Run.StartDay, resp.Run.EndDay)

			// One-shot invocation: block until the worker finishes, then
			// report the terminal state.
			app.Pipeline.Wait()

			final, err := app.Pipeline.GetRun(ctx, resp.Run.ID)
			if err != nil {
				return fmt.Errorf("failed to load run result: %w", err)
			}
			printRunResult(final)
			if final.Status == string(run.StatusFailed) {
				return fmt.Errorf("run %s failed", final.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startFlag, "start", "", "range start day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "range end day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&force, "force", false, "run even if the range already has a succeeded run")

	return cmd
}

func printRunResult(r *primary.Run) {
	fmt.Println()
	fmt.Printf("Run:    %s\n", r.ID)
	fmt.Printf("Status: %s\n", colorizeStatus(r.Status))
	fmt.Printf("Range:  %s to %s\n", r.StartDay, r.EndDay)
	if r.Status == string(run.StatusSucceeded) {
		fmt.Printf("Result: %d reviews processed, %d themes identified\n",
			r.ReviewsProcessed, r.ThemesIdentified)
	}
	if r.ErrorMessage != "" {
		fmt.Printf("Error:  %s\n", r.ErrorMessage)
	}
}

func colorizeStatus(status string) string {
	switch run.Status(status) {
	case run.StatusSucceeded:
		return color.New(color.FgGreen).Sprint(status)
	case run.StatusFailed:
		return color.New(color.FgRed).Sprint(status)
	case run.StatusRunning:
		return color.New(color.FgCyan).Sprint(status)
	case run.StatusTriggered:
		return color.New(color.FgYellow).Sprint(status)
	default:
		return status
	}
}

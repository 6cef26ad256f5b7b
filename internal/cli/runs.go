package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/primary"
)

// RunsCmd returns the runs command
func RunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run ledger",
	}

	cmd.AddCommand(runsListCmd())
	cmd.AddCommand(runsShowCmd())

	return cmd
}

func runsListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()

			runs, err := app.Pipeline.ListRuns(context.Background(), primary.RunFilters{
				Status: status,
				Limit:  limit,
			})
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println("No runs found.")
				fmt.Println()
				fmt.Println("Trigger your first run:")
				fmt.Println("  pulse trigger")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "RUN\tSTATUS\tRANGE\tSOURCE\tREVIEWS\tTHEMES")
			fmt.Fprintln(w, "---\t------\t-----\t------\t-------\t------")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s..%s\t%s\t%d\t%d\n",
					r.ID, colorizeStatus(r.Status), r.StartDay, r.EndDay,
					r.TriggerSource, r.ReviewsProcessed, r.ThemesIdentified)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (triggered|running|succeeded|failed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show (0 for all)")

	return cmd
}

func runsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one run in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()

			r, err := app.Pipeline.GetRun(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load run: %w", err)
			}

			fmt.Printf("Run:          %s\n", r.ID)
			fmt.Printf("Status:       %s\n", colorizeStatus(r.Status))
			fmt.Printf("Range:        %s to %s\n", r.StartDay, r.EndDay)
			fmt.Printf("Source:       %s", r.TriggerSource)
			if r.TriggeredBy != "" {
				fmt.Printf(" (by %s)", r.TriggeredBy)
			}
			fmt.Println()
			fmt.Printf("Triggered at: %s\n", r.TriggeredAt)
			if r.StartedAt != "" {
				fmt.Printf("Started at:   %s\n", r.StartedAt)
			}
			if r.CompletedAt != "" {
				fmt.Printf("Completed at: %s\n", r.CompletedAt)
			}
			fmt.Printf("Reviews:      %d\n", r.ReviewsProcessed)
			fmt.Printf("Themes:       %d\n", r.ThemesIdentified)
			if r.ErrorMessage != "" {
				fmt.Printf("Error:        %s\n", r.ErrorMessage)
			}
			return nil
		},
	}

	return cmd
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/primary"
)

// PurgeCmd returns the purge command
func PurgeCmd() *cobra.Command {
	var confirm string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete ALL reviews, coverage facts, runs, and artifacts",
		Long: `Wipe every review, coverage fact, and ledger entry in one transaction,
then remove artifact files and truncate the log.

The store wipe is all-or-nothing and refused while a run is active.
Type the confirmation word when prompted, or pass it with --confirm.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := confirm
			if token == "" {
				fmt.Print(color.New(color.FgRed).Sprint("This deletes all pipeline data. "))
				fmt.Print(`Type "delete" to continue: `)
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return fmt.Errorf("failed to read confirmation: %w", err)
				}
				token = strings.TrimSpace(line)
			}

			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.Maintenance.Purge(context.Background(), primary.PurgeRequest{
				ConfirmToken: token,
			})
			if err != nil {
				return fmt.Errorf("purge refused: %w", err)
			}

			fmt.Println("✓ All pipeline data purged")
			for _, warning := range resp.Warnings {
				fmt.Printf("  warning: %s\n", warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&confirm, "confirm", "", `confirmation word ("delete") to skip the prompt`)

	return cmd
}

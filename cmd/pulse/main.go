package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ItRachii/weekly-app-review-pulse/internal/cli"
	"github.com/ItRachii/weekly-app-review-pulse/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "pulse",
		Short:   "pulse - weekly app review pulse pipeline",
		Version: version.String(),
		Long: `pulse scrapes App Store and Play Store reviews, clusters them into
themes, and delivers a weekly executive pulse report. It tracks scrape
coverage so repeated runs only fetch what is missing.`,
	}

	cli.RegisterGlobalFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(cli.TriggerCmd())
	rootCmd.AddCommand(cli.RunsCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.PurgeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Package cli implements the pulse command line surface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ItRachii/weekly-app-review-pulse/internal/config"
	"github.com/ItRachii/weekly-app-review-pulse/internal/wire"
)

// configPath is bound to the global --config flag on the root command.
var configPath string

// RegisterGlobalFlags binds the flags shared by every subcommand.
func RegisterGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&configPath, "config", "",
		"path to the YAML configuration file (default $PULSE_CONFIG)")
}

// loadApp builds the full application for a command invocation.
// The caller owns the returned App and must Close it.
func loadApp() (*wire.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return wire.New(cfg)
}

// Package cli implements the cellar command tree.
package cli

import (
	"cellar/internal/config"
	"cellar/internal/state"
	"cellar/internal/utils"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Version information - set via ldflags during build.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Command line flags
var verbose bool

// settings holds the process-wide configuration loaded before any
// subcommand runs.
var settings *config.Settings

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "cellar",
	Short:   "A concurrent package pipeline for formulae and casks",
	Long:    `Cellar plans, downloads, and installs packages from local tap definitions, fetching every artifact concurrently while a status monitor follows along on the terminal.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.SetVerbose(verbose)

		var err error
		settings, err = config.LoadSettings()
		if err != nil {
			settings = config.DefaultSettings()
		}

		if err := config.EnsureDirs(); err != nil {
			fmt.Fprintf(os.Stderr, "Error preparing directories: %v\n", err)
			os.Exit(1)
		}

		// Debug logging and the receipt database are process-wide;
		// configure them once here.
		utils.ConfigureDebug(config.GetLogsDir())
		utils.CleanupLogs(settings.General.LogRetentionCount)
		state.Configure(filepath.Join(config.GetStateDir(), "cellar.db"))
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It is the single entry point used by main.
func Execute() {
	defer state.CloseDB()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logging")
}

// tapsDir resolves the active taps directory, honoring the settings
// override.
func tapsDir() string {
	if settings != nil && settings.General.TapsDir != "" {
		return utils.EnsureAbsPath(settings.General.TapsDir)
	}
	return config.GetTapsDir()
}

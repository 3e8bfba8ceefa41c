// Package cli provides the command-line interface for coldferry.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/soracast/coldferry/internal/config"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configFile string

	// Global config and logger, set up in PersistentPreRunE
	cfg         config.Config
	logger      *slog.Logger
	closeLogger func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "coldferry",
	Short: "Batch transfer of delivered data files into cold storage",
	Long: `Coldferry archives delivered data files in bulk.

It walks a delivery manifest (Shift-JIS CSV), downloads each file from the
distribution API, uploads it to the archive bucket under a key derived from
the delivery id and period, and removes the local copy once the upload
lands. Failures are isolated per record: one bad row never stops the batch.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// Load config from environment, then overlay the config file
		cfg = config.Load()
		if configFile != "" {
			fc, err := config.LoadFile(configFile)
			if err != nil {
				return err
			}
			cfg.Merge(fc)
		}

		if verbose && cfg.LogLevel > slog.LevelDebug {
			cfg.LogLevel = slog.LevelDebug
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		var base *slog.Logger
		base, closeLogger = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		logger = base.With("run_id", uuid.New().String()[:8]) // Short ID for convenience

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Close the log file
		if closeLogger != nil {
			if err := closeLogger(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
}

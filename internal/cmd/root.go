package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/andthens/BluePrint/internal/config"
	"github.com/spf13/cobra"
)

var (
	logLevel string

	// Populated before any subcommand runs.
	cfg    config.Config
	logger *slog.Logger
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "blueprint",
	Short: "BluePrint - Siebel repository change reports",
	Long: `BluePrint turns a Siebel repository export (.sif / .xml) into a report
of the objects it contains, optionally restricted to recent changes, one
author, or a comment keyword.

Configuration comes from the environment (PORT, OUTPUT_DIR, REPORT_TTL, ...);
flags override it for the command they belong to.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		// report may write the document itself to stdout.
		var out io.Writer = os.Stdout
		if cmd.Name() == "report" {
			out = os.Stderr
		}
		logger = cfg.NewLogger(out)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"readonly-sim/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "readonly-sim",
	Short: "Read-only agent state reporting simulator",
	Long:  "readonly-sim drives passively simulated agents through a building and publishes their throttled state reports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		// Reports go to STDOUT, logs to STDERR.
		slog.SetDefault(logging.New(os.Stderr, level))
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(dashboardCmd)
}

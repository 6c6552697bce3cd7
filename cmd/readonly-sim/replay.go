package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"readonly-sim/internal/building"
	"readonly-sim/internal/config"
	"readonly-sim/internal/logging"
	"readonly-sim/internal/sim"
)

var (
	replayInput      string
	replayConfigPath string
	replaySchemaPath string
	replayPrintOnly  bool
	replayJSON       bool
	replayLogFile    string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay recorded pose samples through fresh agents",
	Long:  "replay feeds pose samples recorded by simulate --record into newly initialised agents and publishes their reports.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg, err := config.Load(replayConfigPath, replaySchemaPath)
		if err != nil {
			return err
		}
		b, err := building.FromConfig(cfg.Building)
		if err != nil {
			return err
		}

		runID := uuid.New().String()
		pub, _, cleanup, err := newPublisher(outputOptions{RunID: runID, PrintOnly: replayPrintOnly, JSON: replayJSON, LogFile: replayLogFile})
		if err != nil {
			return err
		}
		defer cleanup()

		log := slog.Default()
		agents, err := sim.BuildAgents(cfg, b, pub, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		n, err := sim.ReplaySampleFile(logging.NewContext(ctx, log), replayInput, agents)
		if err != nil {
			return err
		}
		log.Info("replay finished", "run_id", runID, "reports", n)
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to recorded pose samples")
	replayCmd.Flags().StringVar(&replayConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	replayCmd.Flags().StringVar(&replaySchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print state reports to STDOUT instead of writing to DB")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "Print JSON lines even when STDOUT is a terminal")
	replayCmd.Flags().StringVar(&replayLogFile, "log-file", "", "Path to export state reports (JSONL, .zst to compress)")
	replayCmd.MarkFlagRequired("input")
}

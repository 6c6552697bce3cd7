package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"readonly-sim/internal/admin"
	"readonly-sim/internal/config"
	"readonly-sim/internal/logging"
	"readonly-sim/internal/scenario"
	"readonly-sim/internal/sim"
	"readonly-sim/internal/transport/ws"
)

var (
	simPrintOnly  bool
	simJSON       bool
	simConfigPath string
	simSchemaPath string
	simTick       time.Duration
	simLogFile    string
	simRecordFile string
	simAdminAddr  string
	simScenario   string
	simTUI        bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time agent simulator",
	Long:  "simulate moves agents along their configured trajectories and publishes throttled state reports.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}

		tickInterval := simTick
		if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return err
			}
			tickInterval = d
		}

		log := slog.Default()
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		// The hub and TUI are created before the simulator they deliver destinations to.
		var target atomic.Pointer[sim.Simulator]
		setDest := func(agent, dest string) bool {
			s := target.Load()
			return s != nil && s.SetDestination(agent, dest)
		}
		hub, err := ws.NewHub(ws.SinkFunc(setDest), log)
		if err != nil {
			return err
		}

		names := make([]string, len(cfg.Agents))
		for i, a := range cfg.Agents {
			names[i] = a.Name
		}
		runID := uuid.New().String()
		pub, recorder, cleanup, err := newPublisher(outputOptions{
			RunID:          runID,
			PrintOnly:      simPrintOnly,
			JSON:           simJSON,
			TUI:            simTUI,
			LogFile:        simLogFile,
			RecordFile:     simRecordFile,
			Agents:         names,
			SetDestination: setDest,
		}, hub)
		if err != nil {
			return err
		}
		defer cleanup()

		opts := []sim.Option{sim.WithLogger(log), sim.WithRunID(runID)}
		if recorder != nil {
			opts = append(opts, sim.WithRecorder(recorder))
		}
		if simScenario != "" {
			sc, err := scenario.Load(simScenario)
			if err != nil {
				return err
			}
			log.Info("scenario loaded", "name", sc.Name, "events", len(sc.Events))
			opts = append(opts, sim.WithScenario(sc))
		}
		simulator, err := sim.NewSimulator(cfg, pub, tickInterval, opts...)
		if err != nil {
			return err
		}
		target.Store(simulator)

		if simAdminAddr != "" {
			srv := admin.NewServer(simulator, hub.Handler())
			go func() {
				log.Info("admin server listening", "addr", simAdminAddr)
				if err := srv.Start(ctx, simAdminAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("admin server failed", "err", err)
					stop()
				}
			}()
		}

		simulator.Run(ctx)
		log.Info("agent simulation stopped", "run_id", runID)
		return nil
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print state reports to STDOUT instead of writing to DB")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Show an interactive agent table when STDOUT is a terminal (logs still go to STDERR)")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "Print JSON lines even when STDOUT is a terminal")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	simulateCmd.Flags().DurationVar(&simTick, "tick", 100*time.Millisecond, "Wall-clock tick interval (e.g. 100ms, 1s)")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export state reports (JSONL, .zst to compress)")
	simulateCmd.Flags().StringVar(&simRecordFile, "record", "", "Path to record pose samples for replay (JSONL, .zst to compress)")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", "Path to a scenario YAML of timed destination changes")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin-addr", ":8080", "Admin HTTP and websocket listen address (empty to disable)")
}

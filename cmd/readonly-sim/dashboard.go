package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"readonly-sim/internal/dashboard"
	"readonly-sim/internal/sim"
)

var (
	dashOutDir string
	dashTable  string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render the Grafana dashboard for the agent state table",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := dashboard.ParamsFromEnv(dashTable)
		if err != nil {
			return err
		}
		path, err := dashboard.Render(dashOutDir, p)
		if err != nil {
			return err
		}
		slog.Info("dashboard written", "path", path, "table", dashTable)
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashOutDir, "out", "build", "Output directory")
	dashboardCmd.Flags().StringVar(&dashTable, "table", sim.DefaultStateTable, "GreptimeDB state table")
}

package main

import (
	"os"

	"golang.org/x/term"

	"readonly-sim/internal/agent"
	"readonly-sim/internal/sim"
)

// outputOptions selects where state reports and samples go.
type outputOptions struct {
	RunID      string
	PrintOnly  bool
	JSON       bool
	TUI        bool
	LogFile    string
	RecordFile string
	// Agents and SetDestination feed the TUI.
	Agents         []string
	SetDestination sim.DestinationFunc
}

// newPublisher sets up state-report publishers based on flags and env vars.
// It returns the publisher, a sample recorder when RecordFile is set, and a
// cleanup function to close any resources.
func newPublisher(o outputOptions, extra ...agent.Publisher) (agent.Publisher, sim.SampleRecorder, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	base, err := basePublisher(o)
	if err != nil {
		return nil, nil, nil, err
	}
	if tw, ok := base.(*sim.TUIWriter); ok {
		closers = append(closers, tw.Close)
	}
	pubs := append([]agent.Publisher{base}, extra...)

	var recorder sim.SampleRecorder
	if o.LogFile != "" || o.RecordFile != "" {
		fw, err := sim.NewFileWriter(o.LogFile, o.RecordFile)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		closers = append(closers, fw.Close)
		if o.RecordFile != "" {
			recorder = fw
		}
		if o.LogFile != "" {
			pubs = append(pubs, fw)
		}
	}
	if len(pubs) == 1 {
		return base, recorder, cleanup, nil
	}
	return sim.NewMultiWriter(pubs...), recorder, cleanup, nil
}

// basePublisher chooses the TUI, STDOUT or GreptimeDB based on flags and env vars.
func basePublisher(o outputOptions) (agent.Publisher, error) {
	tty := term.IsTerminal(int(os.Stdout.Fd()))
	if o.TUI && tty {
		return sim.NewTUIWriter(o.Agents, o.SetDestination), nil
	}
	if o.PrintOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		if !o.JSON && tty {
			return sim.NewColorStdoutWriter(), nil
		}
		return sim.NewJSONStdoutWriter(), nil
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	table := os.Getenv("GREPTIMEDB_TABLE")
	return sim.NewGreptimeDBWriter(endpoint, database, table, o.RunID)
}

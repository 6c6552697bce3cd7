// Simulator driving read-only agents along scripted trajectories
package sim

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"readonly-sim/internal/agent"
	"readonly-sim/internal/building"
	"readonly-sim/internal/config"
	"readonly-sim/internal/scenario"
	"readonly-sim/internal/state"
)

// SampleRecorder stores the pose samples fed to agents so a run can be replayed.
type SampleRecorder interface {
	RecordSample(state.Sample) error
}

type simAgent struct {
	agent      *agent.Agent
	trajectory Trajectory
}

// Simulator owns the motion of every agent and ticks them on a shared
// simulation clock. It plays the part of the physics simulator the agents
// are embedded in.
type Simulator struct {
	runID        string
	agents       []*simAgent
	byName       map[string]*simAgent
	building     *building.Levels
	recorder     SampleRecorder
	scenario     *scenario.Runner
	tickInterval time.Duration
	step         float64
	log          *slog.Logger

	// stepMu serializes ticks. recMu orders recorded samples against
	// destination changes so a replay sees them in the same order. mu guards
	// the fields below and is never held while publishing.
	stepMu sync.Mutex
	recMu  sync.Mutex
	mu     sync.Mutex
	ticks  uint64
	latest map[string]state.Record
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger handed to the simulator and its agents.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

// WithRecorder records every pose sample fed to an agent.
func WithRecorder(r SampleRecorder) Option {
	return func(s *Simulator) { s.recorder = r }
}

// WithScenario applies the scenario's destination changes as sim time reaches them.
func WithScenario(sc *scenario.Scenario) Option {
	return func(s *Simulator) { s.scenario = scenario.NewRunner(sc) }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(s *Simulator) { s.runID = id }
}

// NewSimulator builds the building model and initialises one agent per
// config entry. Agent configuration errors are returned unchanged.
func NewSimulator(cfg *config.SimulationConfig, pub agent.Publisher, tickInterval time.Duration, opts ...Option) (*Simulator, error) {
	s := &Simulator{
		runID:        uuid.New().String(),
		byName:       make(map[string]*simAgent),
		tickInterval: tickInterval,
		step:         cfg.Step(),
		log:          slog.Default(),
		latest:       make(map[string]state.Record),
	}
	for _, o := range opts {
		o(s)
	}

	b, err := building.FromConfig(cfg.Building)
	if err != nil {
		return nil, err
	}
	s.building = b

	agents, err := BuildAgents(cfg, b, pub, s.log)
	if err != nil {
		return nil, err
	}
	for i, a := range agents {
		sa := &simAgent{agent: a, trajectory: NewTrajectory(cfg.Agents[i].Trajectory)}
		s.agents = append(s.agents, sa)
		s.byName[a.Name()] = sa
	}
	s.log.Info("simulator ready", "run_id", s.runID, "agents", len(s.agents), "levels", b.Names(), "step_s", s.step)
	return s, nil
}

// BuildAgents initialises the configured agents against a building model,
// all publishing to pub. Agent names must be unique.
func BuildAgents(cfg *config.SimulationConfig, model building.Model, pub agent.Publisher, log *slog.Logger) ([]*agent.Agent, error) {
	seen := make(map[string]struct{}, len(cfg.Agents))
	agents := make([]*agent.Agent, 0, len(cfg.Agents))
	for _, ac := range cfg.Agents {
		if _, dup := seen[ac.Name]; dup {
			return nil, fmt.Errorf("duplicate agent %q", ac.Name)
		}
		seen[ac.Name] = struct{}{}
		a, err := agent.New(ac.Name, agent.Options{
			Destination: ac.Destination,
			UpdateRate:  ac.UpdateRate,
			Publisher:   pub,
			Logger:      log,
		}, model)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}

// RunID identifies this simulator run in published data.
func (s *Simulator) RunID() string {
	return s.runID
}

// SimTime returns the simulation time of the next tick.
func (s *Simulator) SimTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.ticks) * s.step
}

// Agents returns the agent names in configuration order.
func (s *Simulator) Agents() []string {
	names := make([]string, len(s.agents))
	for i, sa := range s.agents {
		names[i] = sa.agent.Name()
	}
	return names
}

// SetDestination forwards an inbound destination message to the named agent.
// It reports false for unknown agents and may be called from any goroutine.
func (s *Simulator) SetDestination(name, dest string) bool {
	sa, ok := s.byName[name]
	if !ok {
		return false
	}
	s.recMu.Lock()
	defer s.recMu.Unlock()
	sa.agent.SetDestination(dest)
	if s.recorder != nil {
		if err := s.recorder.RecordSample(state.DestinationSample(name, s.SimTime(), dest)); err != nil {
			s.log.Error("record destination failed", "agent", name, "err", err)
		}
	}
	return true
}

// Destination returns the current destination intent of the named agent.
func (s *Simulator) Destination(name string) (string, bool) {
	sa, ok := s.byName[name]
	if !ok {
		return "", false
	}
	return sa.agent.Destination(), true
}

// Latest returns the most recent report of each agent that has reported,
// sorted by agent name.
func (s *Simulator) Latest() []state.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]state.Record, 0, len(s.latest))
	for _, r := range s.latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LatestFor returns the most recent report of one agent.
func (s *Simulator) LatestFor(name string) (state.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.latest[name]
	return r, ok
}

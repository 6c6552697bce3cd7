package sim

import (
	"context"
	"log/slog"
	"time"

	"readonly-sim/internal/logging"
	"readonly-sim/internal/state"
)

// Run starts the simulation loop and stops when the context is done.
func (s *Simulator) Run(ctx context.Context) {
	log := s.logger(ctx)
	log.Info("starting simulator", "tick_interval", s.tickInterval, "step_s", s.step)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Step(ctx)
		case <-ctx.Done():
			args := []any{"sim_time", s.SimTime()}
			if s.scenario != nil {
				args = append(args, "scenario_remaining", s.scenario.Remaining())
			}
			log.Info("stopping simulator", args...)
			return
		}
	}
}

func (s *Simulator) logger(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, s.log)
}

// Step samples every agent's pose at the current simulation time, lets the
// agents report, then advances the clock by one step. It returns the reports
// emitted during the tick.
func (s *Simulator) Step(ctx context.Context) []state.Record {
	log := s.logger(ctx)

	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	now := s.SimTime()
	if s.scenario != nil {
		for _, ev := range s.scenario.Due(now) {
			if !s.SetDestination(ev.Agent, ev.Destination) {
				log.Warn("scenario event for unknown agent", "agent", ev.Agent, "at", ev.At)
				continue
			}
			log.Info("scenario destination", "agent", ev.Agent, "destination", ev.Destination, "sim_time", now)
		}
	}
	var emitted []state.Record
	for _, sa := range s.agents {
		name := sa.agent.Name()
		pose := sa.trajectory.PoseAt(now)

		s.recMu.Lock()
		if s.recorder != nil {
			if err := s.recorder.RecordSample(state.Sample{Agent: name, SimTime: now, Pose: pose}); err != nil {
				log.Error("record sample failed", "agent", name, "err", err)
			}
		}
		rec, ok := sa.agent.OnUpdate(pose, now)
		s.recMu.Unlock()
		if !ok {
			continue
		}

		s.mu.Lock()
		s.latest[name] = rec
		s.mu.Unlock()
		sa.agent.Report(rec)
		emitted = append(emitted, rec)
	}

	s.mu.Lock()
	s.ticks++
	s.mu.Unlock()
	if len(emitted) > 0 {
		log.Debug("tick", "sim_time", now, "reports", len(emitted))
	}
	return emitted
}

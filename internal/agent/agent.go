// Package agent reports the state of a robot whose motion is owned by an
// external simulator. Each tick the simulator hands over a pose; the agent
// decides whether a report is due, tags it with the building level and the
// last destination it was told about, and hands it to a publisher.
package agent

import (
	"log/slog"
	"math"

	"readonly-sim/internal/building"
	"readonly-sim/internal/state"
)

// DefaultUpdateThreshold is the report period used when no rate is configured.
const DefaultUpdateThreshold = 0.5

// Publisher accepts outbound state records. Delivery is best effort.
type Publisher interface {
	Publish(state.Record) error
}

// Options are the optional settings read once at initialisation.
type Options struct {
	// Destination is the initial destination intent.
	Destination string
	// UpdateRate is the maximum number of reports per simulated second.
	// Nil selects DefaultUpdateThreshold.
	UpdateRate *float64
	Publisher  Publisher
	Logger     *slog.Logger
}

// Agent is one read-only agent. OnUpdate and Update must be called from a
// single goroutine; SetDestination may be called from any goroutine.
type Agent struct {
	name        string
	building    building.Model
	destination *Destination
	throttle    *Throttle
	publisher   Publisher
	log         *slog.Logger
}

// New initialises an agent. It fails with a *ConfigurationError when name is
// empty or the update rate is not a positive finite number.
func New(name string, opts Options, model building.Model) (*Agent, error) {
	if name == "" {
		return nil, &ConfigurationError{Field: "name", Reason: "must not be empty"}
	}
	threshold := DefaultUpdateThreshold
	if opts.UpdateRate != nil {
		rate := *opts.UpdateRate
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
			return nil, &ConfigurationError{Agent: name, Field: "update_rate", Reason: "must be a positive number of reports per second"}
		}
		threshold = 1 / rate
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("agent", name)

	a := &Agent{
		name:        name,
		building:    model,
		destination: NewDestination(opts.Destination),
		throttle:    NewThrottle(threshold),
		publisher:   opts.Publisher,
		log:         log,
	}
	log.Info("setting initial destination", "destination", opts.Destination)
	log.Info("setting update threshold", "threshold_s", threshold)
	return a, nil
}

// Name returns the identity used in every report.
func (a *Agent) Name() string {
	return a.name
}

// UpdateThreshold returns the minimum simulation time between reports.
func (a *Agent) UpdateThreshold() float64 {
	return a.throttle.Threshold()
}

// SetDestination replaces the destination intent. It is the inbound message
// handler and is safe to call concurrently with OnUpdate.
func (a *Agent) SetDestination(dest string) {
	a.destination.Set(dest)
	a.log.Debug("destination updated", "destination", dest)
}

// Destination returns the current destination intent.
func (a *Agent) Destination() string {
	return a.destination.Get()
}

// OnUpdate takes one pose sample at simTime and returns the report to emit,
// if one is due.
func (a *Agent) OnUpdate(pose state.Pose, simTime float64) (state.Record, bool) {
	seq, ok := a.throttle.Admit(simTime)
	if !ok {
		return state.Record{}, false
	}
	return state.Record{
		Name:        a.name,
		Pose:        pose,
		Level:       ResolveLevel(a.building, pose.Position.Z),
		Destination: a.destination.Get(),
		Seq:         seq,
		SimTime:     simTime,
	}, true
}

// Update runs OnUpdate and hands an emitted report to the publisher.
// Publish failures are logged and dropped.
func (a *Agent) Update(pose state.Pose, simTime float64) (state.Record, bool) {
	rec, ok := a.OnUpdate(pose, simTime)
	if ok {
		a.Report(rec)
	}
	return rec, ok
}

// Report hands rec to the publisher, if any. Failures are logged and dropped.
func (a *Agent) Report(rec state.Record) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(rec); err != nil {
		a.log.Debug("publish failed", "seq", rec.Seq, "err", err)
	}
}

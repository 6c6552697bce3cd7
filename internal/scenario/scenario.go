// Package scenario schedules inbound destination changes against simulation time.
package scenario

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is an ordered list of destination changes.
type Scenario struct {
	Name        string  `yaml:"name,omitempty"`
	Description string  `yaml:"description,omitempty"`
	Events      []Event `yaml:"events"`
}

// Event sets an agent's destination once simulation time reaches At.
type Event struct {
	At          float64 `yaml:"at"`
	Agent       string  `yaml:"agent"`
	Destination string  `yaml:"destination"`
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks every event and sorts them by time, keeping file order for ties.
func (s *Scenario) Validate() error {
	for i, ev := range s.Events {
		if ev.Agent == "" {
			return fmt.Errorf("event %d: agent is required", i)
		}
		if math.IsNaN(ev.At) || math.IsInf(ev.At, 0) || ev.At < 0 {
			return fmt.Errorf("event %d: invalid time %v", i, ev.At)
		}
	}
	sort.SliceStable(s.Events, func(i, j int) bool { return s.Events[i].At < s.Events[j].At })
	return nil
}

// Runner hands out scenario events as simulation time passes.
// It is not safe for concurrent use.
type Runner struct {
	events []Event
	next   int
}

// NewRunner starts a runner at the beginning of s. s must be validated.
func NewRunner(s *Scenario) *Runner {
	return &Runner{events: s.Events}
}

// Due returns the events with At <= simTime that were not returned before.
func (r *Runner) Due(simTime float64) []Event {
	start := r.next
	for r.next < len(r.events) && r.events[r.next].At <= simTime {
		r.next++
	}
	return r.events[start:r.next]
}

// Remaining reports how many events have not fired yet.
func (r *Runner) Remaining() int {
	return len(r.events) - r.next
}

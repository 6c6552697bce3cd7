// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultStepSeconds is the simulation time advanced per tick when step_s is unset.
const DefaultStepSeconds = 0.1

// Level is one named vertical slice of the building.
type Level struct {
	Name string  `yaml:"name"`
	MinZ float64 `yaml:"min_z"`
	MaxZ float64 `yaml:"max_z"`
}

// Building describes the levels known to the simulation
type Building struct {
	Name   string  `yaml:"name"`
	Levels []Level `yaml:"levels"`
}

// Waypoint is a scripted pose at a simulation time.
type Waypoint struct {
	T   float64 `yaml:"t"`
	X   float64 `yaml:"x"`
	Y   float64 `yaml:"y"`
	Z   float64 `yaml:"z"`
	Yaw float64 `yaml:"yaw"`
}

// Agent configures one read-only agent. UpdateRate is a pointer so that an
// absent value can be told apart from an explicit zero.
type Agent struct {
	Name        string     `yaml:"name"`
	Destination string     `yaml:"destination"`
	UpdateRate  *float64   `yaml:"update_rate"`
	Trajectory  []Waypoint `yaml:"trajectory"`
}

// SimulationConfig is the root configuration for the building and its agents
type SimulationConfig struct {
	StepSeconds float64  `yaml:"step_s"`
	Building    Building `yaml:"building"`
	Agents      []Agent  `yaml:"agents"`
}

// Step returns the configured tick step, falling back to DefaultStepSeconds.
func (c *SimulationConfig) Step() float64 {
	if c.StepSeconds > 0 {
		return c.StepSeconds
	}
	return DefaultStepSeconds
}

// Load loads YAML config and validates it against a CUE schema
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	// Validate with CUE first
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	slog.Debug("loaded configuration", "path", configPath, "agents", len(cfg.Agents), "levels", len(cfg.Building.Levels))

	return cfg, nil
}

// Parse decodes a YAML document without schema validation.
func Parse(data []byte) (*SimulationConfig, error) {
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal YAML config: %w", err)
	}
	return &cfg, nil
}

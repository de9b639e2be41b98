// Package config holds the YAML-backed settings of the demo runner and
// the builder defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root document.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Logging    LoggingConfig    `yaml:"logging"`
	Scenario   ScenarioConfig   `yaml:"scenario"`
}

// SimulationConfig tunes the engine.
type SimulationConfig struct {
	// NavMeshPath points at an ASCII mesh document. Empty means the
	// built-in square grid mesh.
	NavMeshPath       string  `yaml:"navmesh"`
	TimeStep          float64 `yaml:"time_step"`
	SensitivityRadius float64 `yaml:"sensitivity_radius"`
	Steps             int     `yaml:"steps"`
}

// LoggingConfig tunes log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ScenarioConfig describes the agents and the common goal of a demo run.
type ScenarioConfig struct {
	Agents []AgentConfig `yaml:"agents"`
	Goal   GoalConfig    `yaml:"goal"`
	// Operation selects the local-avoidance solver: "orca" or "direct".
	Operation string `yaml:"operation"`
}

// AgentConfig is one spawn position.
type AgentConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// GoalConfig describes the goal shape. Kind is "point" or "disk".
type GoalConfig struct {
	Kind   string  `yaml:"kind"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
}

// Default returns the stock configuration: four agents converging on a
// point goal over the built-in square mesh.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TimeStep:          0.1,
			SensitivityRadius: 2,
			Steps:             600,
		},
		Logging: LoggingConfig{Level: "info"},
		Scenario: ScenarioConfig{
			Agents: []AgentConfig{
				{X: -5, Y: 20}, {X: 5, Y: 20}, {X: 0, Y: 15}, {X: 0, Y: 25},
			},
			Goal:      GoalConfig{Kind: "point", X: 0, Y: 20},
			Operation: "orca",
		},
	}
}

// Load reads a YAML document over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Simulation.TimeStep <= 0 {
		return fmt.Errorf("config: time_step must be positive")
	}
	if c.Simulation.Steps < 0 {
		return fmt.Errorf("config: steps must not be negative")
	}
	switch c.Scenario.Goal.Kind {
	case "", "point", "disk":
	default:
		return fmt.Errorf("config: unknown goal kind %q", c.Scenario.Goal.Kind)
	}
	switch c.Scenario.Operation {
	case "", "orca", "direct":
	default:
		return fmt.Errorf("config: unknown operation %q", c.Scenario.Operation)
	}
	return nil
}

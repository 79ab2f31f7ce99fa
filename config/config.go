// Package config loads the application configuration from YAML. Embedded
// defaults are always applied first; an optional user file overlays them.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kaltas21/WaterSimulation/sim"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// WindowConfig holds the window creation settings.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// EngineConfig holds the application loop settings.
type EngineConfig struct {
	// TickRate is the simulation tick frequency in Hz.
	TickRate int `yaml:"tickRate"`
	// FrameLimit caps the render frame rate; 0 leaves it uncapped.
	FrameLimit int `yaml:"frameLimit"`
	// Profiler enables the rolling FPS and memory log line.
	Profiler bool `yaml:"profiler"`
}

// SimulationConfig holds the fluid simulation settings.
type SimulationConfig struct {
	BoxMin    [3]float32 `yaml:"boxMin"`
	BoxMax    [3]float32 `yaml:"boxMax"`
	Particles int        `yaml:"particles"`
	Capacity  int        `yaml:"capacity"`
	Gravity   [3]float32 `yaml:"gravity"`
	// MaxSubSteps caps the fixed sub-steps run per update call.
	MaxSubSteps       int  `yaml:"maxSubSteps"`
	FilteredViscosity bool `yaml:"filteredViscosity"`
	// CPU forces the host-side reference pipeline instead of GPU compute.
	CPU bool `yaml:"cpu"`
}

// RenderConfig holds the presentation settings.
type RenderConfig struct {
	// ColorMode is the initial particle coloring: normal, velocity, density or pressure.
	ColorMode string `yaml:"colorMode"`
	// ParticleRadius overrides the billboard draw radius; 0 keeps the default.
	ParticleRadius float32 `yaml:"particleRadius"`
	// PresentMode is vsync or uncapped.
	PresentMode string `yaml:"presentMode"`
}

// Config is the root configuration document.
type Config struct {
	Window     WindowConfig     `yaml:"window"`
	Engine     EngineConfig     `yaml:"engine"`
	Simulation SimulationConfig `yaml:"simulation"`
	Render     RenderConfig     `yaml:"render"`
}

// Default returns the embedded default configuration.
//
// Returns:
//   - *Config: the defaults
//   - error: an error if the embedded defaults fail to parse
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse embedded defaults: %w", err)
	}
	return &cfg, nil
}

// Load returns the embedded defaults overlaid with the YAML file at path.
// Fields absent from the file keep their default values. An empty path
// returns the defaults unchanged.
//
// Parameters:
//   - path: the user configuration file, or "" for defaults only
//
// Returns:
//   - *Config: the merged configuration
//   - error: an error if the file cannot be read or parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %q: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the simulation cannot run with.
//
// Returns:
//   - error: the first invalid field found, or nil
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("config: window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Engine.TickRate <= 0 {
		return fmt.Errorf("config: tick rate %d must be positive", c.Engine.TickRate)
	}
	for axis := range 3 {
		if c.Simulation.BoxMax[axis] <= c.Simulation.BoxMin[axis] {
			return fmt.Errorf("config: box max must exceed box min on every axis, got %v..%v",
				c.Simulation.BoxMin, c.Simulation.BoxMax)
		}
	}
	if c.Simulation.Particles <= 0 {
		return fmt.Errorf("config: particle count %d must be positive", c.Simulation.Particles)
	}
	if c.Simulation.Capacity < c.Simulation.Particles {
		return fmt.Errorf("config: capacity %d is below particle count %d", c.Simulation.Capacity, c.Simulation.Particles)
	}
	if c.Simulation.Capacity > sim.MaxParticles {
		return fmt.Errorf("config: capacity %d exceeds the supported maximum %d", c.Simulation.Capacity, sim.MaxParticles)
	}
	if c.Simulation.MaxSubSteps <= 0 {
		return fmt.Errorf("config: max sub-steps %d must be positive", c.Simulation.MaxSubSteps)
	}
	if _, err := c.ParsedColorMode(); err != nil {
		return err
	}
	return nil
}

// ParsedColorMode converts the configured color mode name to its sim value.
//
// Returns:
//   - sim.ColorMode: the parsed mode
//   - error: an error if the name is unknown
func (c *Config) ParsedColorMode() (sim.ColorMode, error) {
	switch c.Render.ColorMode {
	case "", "normal":
		return sim.ColorModeNormal, nil
	case "velocity":
		return sim.ColorModeVelocity, nil
	case "density":
		return sim.ColorModeDensity, nil
	case "pressure":
		return sim.ColorModePressure, nil
	default:
		return 0, fmt.Errorf("config: unknown color mode %q", c.Render.ColorMode)
	}
}

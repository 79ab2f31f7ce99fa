package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaltas21/WaterSimulation/sim"
)

func TestDefaultParsesAndValidates(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, 120, cfg.Engine.TickRate)
	assert.Equal(t, [3]float32{-2, -1, -2}, cfg.Simulation.BoxMin)
	assert.Equal(t, [3]float32{2, 1, 2}, cfg.Simulation.BoxMax)
	assert.Equal(t, 4096, cfg.Simulation.Particles)
	assert.Equal(t, 8, cfg.Simulation.MaxSubSteps)
	assert.True(t, cfg.Simulation.FilteredViscosity, "filtered viscosity is on by default")
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	def, err := Default()
	require.NoError(t, err)
	assert.Equal(t, def, cfg)
}

func TestLoadOverlaysFileOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := `
window:
  width: 1920
simulation:
  particles: 1000
  capacity: 2048
render:
  colorMode: velocity
`
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "absent fields keep defaults")
	assert.Equal(t, 1000, cfg.Simulation.Particles)
	assert.Equal(t, 2048, cfg.Simulation.Capacity)
	assert.Equal(t, [3]float32{0, -9.81, 0}, cfg.Simulation.Gravity)

	mode, err := cfg.ParsedColorMode()
	require.NoError(t, err)
	assert.Equal(t, sim.ColorModeVelocity, mode)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero window width", func(c *Config) { c.Window.Width = 0 }},
		{"zero tick rate", func(c *Config) { c.Engine.TickRate = 0 }},
		{"inverted box", func(c *Config) { c.Simulation.BoxMax[1] = c.Simulation.BoxMin[1] }},
		{"no particles", func(c *Config) { c.Simulation.Particles = 0 }},
		{"capacity below particles", func(c *Config) { c.Simulation.Capacity = c.Simulation.Particles - 1 }},
		{"capacity above maximum", func(c *Config) { c.Simulation.Capacity = sim.MaxParticles + 1 }},
		{"zero sub-step cap", func(c *Config) { c.Simulation.MaxSubSteps = 0 }},
		{"unknown color mode", func(c *Config) { c.Render.ColorMode = "rainbow" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParsedColorMode(t *testing.T) {
	tests := []struct {
		in   string
		want sim.ColorMode
	}{
		{"", sim.ColorModeNormal},
		{"normal", sim.ColorModeNormal},
		{"velocity", sim.ColorModeVelocity},
		{"density", sim.ColorModeDensity},
		{"pressure", sim.ColorModePressure},
	}
	for _, tc := range tests {
		cfg := &Config{Render: RenderConfig{ColorMode: tc.in}}
		mode, err := cfg.ParsedColorMode()
		require.NoError(t, err, "mode %q", tc.in)
		assert.Equal(t, tc.want, mode, "mode %q", tc.in)
	}
}

package sim

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kaltas21/WaterSimulation/sim/particle"
)

func TestCollect(t *testing.T) {
	ps := []particle.Particle{
		{Position: [3]float32{0, -0.8, 0}, Velocity: [3]float32{3, 0, 0}, Density: 990},
		{Position: [3]float32{0, 0.25, 0}, Velocity: [3]float32{0, 0, 4}, Density: 1010},
	}
	d := Collect(ps)

	assert.Equal(t, 2, d.Count)
	assert.InDelta(t, 3.5, d.MeanSpeed, 1e-9)
	assert.InDelta(t, math.Sqrt(0.5), d.StdDevSpeed, 1e-9)
	assert.InDelta(t, 990, d.MinDensity, 1e-3)
	assert.InDelta(t, 1000, d.MeanDensity, 1e-3)
	assert.InDelta(t, 1010, d.MaxDensity, 1e-3)
	assert.InDelta(t, -0.8, d.MinHeight, 1e-6)
	assert.InDelta(t, 0.25, d.MaxHeight, 1e-6)

	s := d.String()
	assert.True(t, strings.HasPrefix(s, "particles=2 "), "got %q", s)
}

func TestCollectEmpty(t *testing.T) {
	assert.Equal(t, Diagnostics{}, Collect(nil))
}

package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDamBreakRegion(t *testing.T) {
	boxMin := [3]float32{-2, -1, -2}
	boxMax := [3]float32{2, 1, 2}
	ps := DamBreak(boxMin, boxMax, 1<<20)
	require.NotEmpty(t, ps)

	// The block occupies the middle half of the tank footprint and the
	// lower half of its height, inset by one particle radius.
	loX := boxMin[0] + 0.25*(boxMax[0]-boxMin[0]) + ParticleRadius
	hiX := boxMin[0] + 0.75*(boxMax[0]-boxMin[0]) - ParticleRadius
	loY := boxMin[1] + ParticleRadius
	hiY := boxMin[1] + 0.5*(boxMax[1]-boxMin[1]) - ParticleRadius

	const eps = 1e-4
	for _, p := range ps {
		assert.GreaterOrEqual(t, p.Position[0], loX-eps)
		assert.LessOrEqual(t, p.Position[0], hiX+eps)
		assert.GreaterOrEqual(t, p.Position[1], loY-eps)
		assert.LessOrEqual(t, p.Position[1], hiY+eps)
		assert.Equal(t, [3]float32{}, p.Velocity)
		assert.Equal(t, float32(RestDensity), p.Density, "new particles start at rest density")
		assert.Equal(t, float32(0), p.Pressure)
	}
}

func TestDamBreakLatticeOrder(t *testing.T) {
	ps := DamBreak([3]float32{-2, -1, -2}, [3]float32{2, 1, 2}, 1<<20)
	require.Greater(t, len(ps), 2)

	// Particles are emitted x-fastest on a lattice spaced one diameter apart.
	first, second := ps[0], ps[1]
	assert.InDelta(t, 2*ParticleRadius, float64(second.Position[0]-first.Position[0]), 1e-5)
	assert.Equal(t, first.Position[1], second.Position[1])
	assert.Equal(t, first.Position[2], second.Position[2])
}

func TestDamBreakTruncation(t *testing.T) {
	full := DamBreak([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}, 1<<20)
	require.NotEmpty(t, full)

	ten := DamBreak([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}, 10)
	require.Len(t, ten, 10)
	assert.Equal(t, full[:10], ten)

	assert.Empty(t, DamBreak([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}, 0))
}

func TestSpoutColumn(t *testing.T) {
	boxMin := [3]float32{-2, -1, -2}
	boxMax := [3]float32{2, 1, 2}
	ps := Spout(boxMin, boxMax, 200)
	require.Len(t, ps, 200)

	// A narrow column under the top face, centered in the tank footprint.
	cx := 0.5 * (boxMin[0] + boxMax[0])
	cz := 0.5 * (boxMin[2] + boxMax[2])
	halfWidth := float32(4 * ParticleRadius)

	const eps = 1e-4
	for _, p := range ps {
		assert.GreaterOrEqual(t, p.Position[0], cx-halfWidth-eps)
		assert.LessOrEqual(t, p.Position[0], cx+halfWidth+eps)
		assert.GreaterOrEqual(t, p.Position[2], cz-halfWidth-eps)
		assert.LessOrEqual(t, p.Position[2], cz+halfWidth+eps)
		assert.LessOrEqual(t, p.Position[1], boxMax[1]-ParticleRadius+eps)
		assert.GreaterOrEqual(t, p.Position[1], boxMin[1]+ParticleRadius-eps)
		assert.Equal(t, [3]float32{0, -spoutSpeed, 0}, p.Velocity, "spout particles fall into the tank")
		assert.Equal(t, float32(RestDensity), p.Density)
	}

	// The first layer sits at the very top of the tank.
	assert.InDelta(t, float64(boxMax[1]-ParticleRadius), float64(ps[0].Position[1]), 1e-5)
}

func TestSpoutTruncationAndEmpty(t *testing.T) {
	full := Spout([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}, 1<<20)
	require.NotEmpty(t, full)

	five := Spout([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}, 5)
	require.Len(t, five, 5)
	assert.Equal(t, full[:5], five)

	assert.Empty(t, Spout([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}, 0))
}

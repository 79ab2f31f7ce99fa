package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaltas21/WaterSimulation/sim/particle"
)

// recordingPipeline captures every Step and Upload so tests can assert on
// the exact sub-step sequence a System produces.
type recordingPipeline struct {
	steps    []StepInput
	uploads  []int
	uploaded [][]particle.Particle
}

func (p *recordingPipeline) Upload(offset int, ps []particle.Particle) {
	p.uploads = append(p.uploads, offset)
	batch := make([]particle.Particle, len(ps))
	copy(batch, ps)
	p.uploaded = append(p.uploaded, batch)
}

func (p *recordingPipeline) Step(in StepInput)             { p.steps = append(p.steps, in) }
func (p *recordingPipeline) Snapshot() []particle.Particle { return nil }
func (p *recordingPipeline) Release()                      {}

func newTestSystem(capacity int, options ...SystemOption) (System, *recordingPipeline) {
	p := &recordingPipeline{}
	sys := NewSystem(p, [3]float32{-1, -1, -1}, [3]float32{1, 1, 1}, capacity, options...)
	return sys, p
}

func TestUpdateConsumesWholeSteps(t *testing.T) {
	sys, p := newTestSystem(512)
	sys.AddParticles(make([]particle.Particle, 4))

	assert.Equal(t, 0, sys.Update(0.45*DT), "less than one step accumulated")
	assert.Empty(t, p.steps)

	// 0.45 carried over: 0.45 + 2.1 = 2.55 steps, two whole ones run.
	assert.Equal(t, 2, sys.Update(2.1*DT))
	assert.Len(t, p.steps, 2)

	// The 0.55 remainder plus 0.6 crosses the next step boundary.
	assert.Equal(t, 1, sys.Update(0.6*DT))
	assert.Len(t, p.steps, 3)
}

func TestUpdateCapsAndDropsExcess(t *testing.T) {
	sys, p := newTestSystem(512, WithMaxSubSteps(4))
	sys.AddParticles(make([]particle.Particle, 1))

	assert.Equal(t, 4, sys.Update(100*DT), "stall clamps to the sub-step cap")
	assert.Len(t, p.steps, 4)

	// Excess time beyond the cap is discarded, not carried over.
	assert.Equal(t, 0, sys.Update(0))
	assert.Len(t, p.steps, 4)
}

func TestUpdateSkipsEmptySystem(t *testing.T) {
	sys, p := newTestSystem(512)

	assert.Equal(t, 0, sys.Update(3*DT))
	assert.Empty(t, p.steps, "no sub-steps run without particles")
}

func TestImpulseAppliedOnceAndOverwritten(t *testing.T) {
	sys, p := newTestSystem(512)
	sys.AddParticles(make([]particle.Particle, 1))

	sys.ApplyImpulse([3]float32{9, 9, 9}, [3]float32{1, 0, 0}, 0.5)
	sys.ApplyImpulse([3]float32{0.1, 0.2, 0.3}, [3]float32{0, 2, 0}, 0.25)

	require.Equal(t, 3, sys.Update(3.5*DT))
	require.Len(t, p.steps, 3)

	// Only the latest impulse survives, and only the first sub-step sees it.
	require.NotNil(t, p.steps[0].Impulse)
	assert.Equal(t, [3]float32{0.1, 0.2, 0.3}, p.steps[0].Impulse.Center)
	assert.Equal(t, [3]float32{0, 2, 0}, p.steps[0].Impulse.Velocity)
	assert.Nil(t, p.steps[1].Impulse)
	assert.Nil(t, p.steps[2].Impulse)

	sys.Update(DT)
	assert.Nil(t, p.steps[3].Impulse, "consumed impulse does not reappear")
}

func TestAddParticlesRespectsCapacity(t *testing.T) {
	sys, p := newTestSystem(8)

	dropped := sys.AddParticles(make([]particle.Particle, 6))
	assert.Equal(t, 0, dropped)
	assert.Equal(t, 6, sys.ParticleCount())

	dropped = sys.AddParticles(make([]particle.Particle, 6))
	assert.Equal(t, 4, dropped)
	assert.Equal(t, 8, sys.ParticleCount())

	dropped = sys.AddParticles(make([]particle.Particle, 3))
	assert.Equal(t, 3, dropped, "full system drops everything")
	assert.Equal(t, 8, sys.ParticleCount())

	require.Len(t, p.uploads, 2)
	assert.Equal(t, 0, p.uploads[0])
	assert.Equal(t, 6, p.uploads[1], "second batch appended after the first")
}

func TestAddParticlesDefaultsToRestDensity(t *testing.T) {
	sys, p := newTestSystem(512)

	dropped := sys.AddParticles([]particle.Particle{
		{Position: [3]float32{0.1, 0, 0}},
		{Position: [3]float32{0.2, 0, 0}, Density: 500},
	})
	require.Equal(t, 0, dropped)
	require.Len(t, p.uploaded, 1)

	batch := p.uploaded[0]
	assert.Equal(t, float32(RestDensity), batch[0].Density, "zero density takes the creation default")
	assert.Equal(t, float32(500), batch[1].Density, "explicit densities pass through")
}

func TestAddSpoutBatchGrowsSystem(t *testing.T) {
	sys, p := newTestSystem(512)
	sys.Reset(100)
	before := sys.ParticleCount()

	dropped := sys.AddParticles(Spout([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}, 64))
	require.Equal(t, 0, dropped)
	assert.Equal(t, before+64, sys.ParticleCount())

	// The batch is appended after the seeded block, still falling.
	last := p.uploaded[len(p.uploaded)-1]
	require.Len(t, last, 64)
	assert.Equal(t, before, p.uploads[len(p.uploads)-1], "upload lands past the existing particles")
	assert.Negative(t, last[0].Velocity[1])
}

func TestResetReseedsAndClearsState(t *testing.T) {
	sys, p := newTestSystem(512)
	sys.AddParticles(make([]particle.Particle, 4))
	sys.ApplyImpulse([3]float32{0, 0, 0}, [3]float32{1, 0, 0}, 0.5)
	sys.Update(0.9 * DT)

	sys.Reset(100)
	assert.Equal(t, 100, sys.ParticleCount())
	assert.Equal(t, 0, p.uploads[len(p.uploads)-1], "reseed uploads from index zero")

	// Accumulator and pending impulse were cleared by Reset.
	stepsBefore := len(p.steps)
	assert.Equal(t, 0, sys.Update(0.2*DT))
	require.Equal(t, 1, sys.Update(0.9*DT))
	assert.Nil(t, p.steps[stepsBefore].Impulse)
}

func TestResetClampsToCapacity(t *testing.T) {
	sys, _ := newTestSystem(64)
	sys.Reset(1 << 20)
	assert.Equal(t, 64, sys.ParticleCount())
}

func TestColorModeCycle(t *testing.T) {
	modes := []ColorMode{ColorModeNormal, ColorModeVelocity, ColorModeDensity, ColorModePressure}
	m := ColorModeNormal
	for i := 1; i <= len(modes); i++ {
		m = m.Cycle()
		assert.Equal(t, modes[i%len(modes)], m)
	}
}

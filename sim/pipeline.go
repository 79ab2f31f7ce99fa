package sim

import "github.com/kaltas21/WaterSimulation/sim/particle"

// Impulse is a one-shot spherical velocity kick. Particles inside the sphere
// gain a fraction of Velocity that falls off linearly from the center.
type Impulse struct {
	Center   [3]float32
	Velocity [3]float32
	Radius   float32
}

// StepInput carries the per-sub-step parameters consumed by a Pipeline.
type StepInput struct {
	// Count is the number of live particles.
	Count int

	// Gravity is the acceleration applied during integration.
	Gravity [3]float32

	// Impulse is the pending sphere impulse, or nil. A pipeline applies it
	// during this sub-step only; the caller is responsible for clearing it.
	Impulse *Impulse

	// FilteredViscosity selects the velocity field pass: when true the
	// viscosity force samples the filtered field instead of raw neighbor
	// velocities.
	FilteredViscosity bool
}

// Pipeline executes one fixed sub-step of the SPH pass sequence against its
// own particle storage. Implementations: the GPU compute pipeline and the CPU
// reference pipeline.
type Pipeline interface {
	// Upload copies particles into the current buffer starting at offset.
	// The caller guarantees offset+len(ps) fits within capacity.
	//
	// Parameters:
	//   - offset: destination particle index
	//   - ps: particles to copy
	Upload(offset int, ps []particle.Particle)

	// Step runs the full pass sequence for one fixed sub-step: grid clear,
	// integrate and bin, cell ranges, reorder, optional velocity field,
	// density and pressure, forces.
	//
	// Parameters:
	//   - in: the sub-step parameters
	Step(in StepInput)

	// Snapshot returns a copy of the current particle buffer, or nil when
	// the pipeline cannot read its storage back (the GPU pipeline keeps
	// particles device-local).
	//
	// Returns:
	//   - []particle.Particle: a copy of the live particles, or nil
	Snapshot() []particle.Particle

	// Release frees the pipeline's resources. The pipeline must not be
	// used afterwards.
	Release()
}

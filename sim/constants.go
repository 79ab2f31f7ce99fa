// package sim implements the SPH fluid simulation core: the particle system,
// the uniform spatial grid, the GPU and CPU step pipelines, and diagnostics.
package sim

import "math"

// Physical and numerical constants shared by the GPU shaders and the CPU
// reference pipeline. The WGSL copies live in sim/particle/assets and must
// stay in agreement with these values.
const (
	// ParticleRadius is the physical radius of a single particle in meters.
	ParticleRadius = 0.0457

	// KernelRadius is the SPH smoothing length h. Particles farther apart
	// than this do not interact.
	KernelRadius = 4 * ParticleRadius

	// CellSize is the uniform grid cell edge length. Equal to KernelRadius
	// so a 27-cell neighborhood covers every possible interaction.
	CellSize = KernelRadius

	// ParticleMass is the mass of a single particle in kilograms.
	ParticleMass = 0.02

	// RestDensity is the rest density of water in kg/m^3.
	RestDensity = 998.27

	// Stiffness is the gas constant of the equation of state
	// p = Stiffness * (rho - RestDensity), clamped at zero.
	Stiffness = 250.0

	// Viscosity is the dynamic viscosity coefficient mu.
	Viscosity = 0.035

	// DT is the fixed sub-step duration in seconds.
	DT = 0.0012

	// BoundaryDamping scales the reflected velocity component when a
	// particle is clamped against a container wall.
	BoundaryDamping = 0.5

	// InvalidIndex marks an empty grid cell and terminates particle
	// linked lists.
	InvalidIndex = 0xFFFFFFFF

	// capacityGranularity is the allocation granularity for particle
	// buffers; capacities round up to a multiple of this.
	capacityGranularity = 512

	// MaxParticles bounds the particle capacity. Cell ranges pack a 24-bit
	// start offset with an 8-bit count, so offsets must fit in 24 bits.
	MaxParticles = 1<<24 - capacityGranularity
)

// Smoothing kernel coefficients (Muller et al. 2003). Precomputed from
// KernelRadius so the per-pair cost is a polynomial evaluation.
const (
	kernelRadius2 = KernelRadius * KernelRadius
	kernelRadius3 = kernelRadius2 * KernelRadius
	kernelRadius6 = kernelRadius3 * kernelRadius3
	kernelRadius9 = kernelRadius6 * kernelRadius3

	// Poly6Coeff scales the poly6 density kernel (h^2 - r^2)^3.
	Poly6Coeff = 315.0 / (64.0 * math.Pi * kernelRadius9)

	// SpikyGradCoeff scales the spiky kernel gradient (h - r)^2. Negative:
	// the gradient points from j toward i.
	SpikyGradCoeff = -45.0 / (math.Pi * kernelRadius6)

	// ViscLapCoeff scales the viscosity kernel Laplacian (h - r).
	ViscLapCoeff = 45.0 / (math.Pi * kernelRadius6)
)

// DefaultGravity is the gravity vector applied to new systems, in m/s^2.
var DefaultGravity = [3]float32{0, -9.81, 0}

// RoundCapacity rounds a requested particle capacity up to the allocation
// granularity and clamps it to MaxParticles.
//
// Parameters:
//   - n: requested particle capacity
//
// Returns:
//   - int: the rounded capacity
func RoundCapacity(n int) int {
	if n < 1 {
		n = 1
	}
	rounded := (n + capacityGranularity - 1) / capacityGranularity * capacityGranularity
	if rounded > MaxParticles {
		rounded = MaxParticles
	}
	return rounded
}

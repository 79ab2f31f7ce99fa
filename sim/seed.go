package sim

import "github.com/kaltas21/WaterSimulation/sim/particle"

// DamBreak lays out particles on a regular lattice in a column against one
// side of the container: 25% to 75% of the box in X and Z, the bottom half in
// Y. Spacing is one particle diameter with a one-radius margin to the region
// edges. Positions fill x-fastest, then y, then z, truncated at count.
//
// Parameters:
//   - boxMin: container minimum corner
//   - boxMax: container maximum corner
//   - count: maximum number of particles to emit
//
// Returns:
//   - []particle.Particle: seeded particles at rest (zero velocity, rest density, zero pressure)
func DamBreak(boxMin, boxMax [3]float32, count int) []particle.Particle {
	if count <= 0 {
		return nil
	}

	var lo, hi [3]float32
	for a := 0; a < 3; a++ {
		size := boxMax[a] - boxMin[a]
		if a == 1 {
			lo[a] = boxMin[a]
			hi[a] = boxMin[a] + 0.5*size
		} else {
			lo[a] = boxMin[a] + 0.25*size
			hi[a] = boxMin[a] + 0.75*size
		}
		lo[a] += ParticleRadius
		hi[a] -= ParticleRadius
	}

	const spacing = 2 * ParticleRadius
	ps := make([]particle.Particle, 0, count)
	for z := lo[2]; z <= hi[2]; z += spacing {
		for y := lo[1]; y <= hi[1]; y += spacing {
			for x := lo[0]; x <= hi[0]; x += spacing {
				ps = append(ps, particle.Particle{
					Position: [3]float32{x, y, z},
					Density:  RestDensity,
				})
				if len(ps) == count {
					return ps
				}
			}
		}
	}
	return ps
}

// spoutSpeed is the initial downward velocity given to spout particles, in m/s.
const spoutSpeed = 2.0

// Spout lays out a narrow column of falling particles under the top face of
// the container, centered in X and Z. The column cross-section is four
// particle diameters on a side and layers stack downward from the top, so
// successive batches pour into the tank as a stream. Spacing is one particle
// diameter and positions fill x-fastest, then z, then layer by layer down,
// truncated at count.
//
// Parameters:
//   - boxMin: container minimum corner
//   - boxMax: container maximum corner
//   - count: maximum number of particles to emit
//
// Returns:
//   - []particle.Particle: seeded particles at rest density moving downward
func Spout(boxMin, boxMax [3]float32, count int) []particle.Particle {
	if count <= 0 {
		return nil
	}

	const spacing = 2 * ParticleRadius
	const halfWidth = 2 * spacing
	cx := 0.5 * (boxMin[0] + boxMax[0])
	cz := 0.5 * (boxMin[2] + boxMax[2])
	top := boxMax[1] - ParticleRadius

	ps := make([]particle.Particle, 0, count)
	for y := top; y >= boxMin[1]+ParticleRadius; y -= spacing {
		for z := cz - halfWidth; z <= cz+halfWidth; z += spacing {
			for x := cx - halfWidth; x <= cx+halfWidth; x += spacing {
				ps = append(ps, particle.Particle{
					Position: [3]float32{x, y, z},
					Velocity: [3]float32{0, -spoutSpeed, 0},
					Density:  RestDensity,
				})
				if len(ps) == count {
					return ps
				}
			}
		}
	}
	return ps
}

package render

// FluidViewOption configures a FluidView during construction.
type FluidViewOption func(*fluidView)

// WithParticleDrawRadius sets the billboard half-extent in world units.
// Values above the physical particle radius close the visual gaps between
// neighboring particles.
//
// Parameters:
//   - radius: the billboard half-extent in world units
//
// Returns:
//   - FluidViewOption: the option function
func WithParticleDrawRadius(radius float32) FluidViewOption {
	return func(v *fluidView) {
		v.drawRadius = radius
	}
}

package sim

import (
	"log"
	"sync"

	"github.com/kaltas21/WaterSimulation/sim/particle"
)

// ColorMode selects the per-particle visualization channel. Cosmetic only;
// has no effect on the simulation.
type ColorMode uint32

const (
	// ColorModeNormal shades particles water blue by depth.
	ColorModeNormal ColorMode = iota
	// ColorModeVelocity maps speed to color.
	ColorModeVelocity
	// ColorModeDensity maps density relative to rest density to color.
	ColorModeDensity
	// ColorModePressure maps pressure to color.
	ColorModePressure

	colorModeCount
)

// Cycle returns the next color mode, wrapping after ColorModePressure.
//
// Returns:
//   - ColorMode: the next mode in sequence
func (m ColorMode) Cycle() ColorMode {
	return (m + 1) % colorModeCount
}

// systemImpl is the implementation of the System interface.
type systemImpl struct {
	mu *sync.Mutex

	pipeline Pipeline
	grid     Grid

	capacity int
	count    int

	gravity           [3]float32
	colorMode         ColorMode
	filteredViscosity bool

	accumulator float64
	maxSubSteps int
	dropWarned  bool

	pendingImpulse *Impulse
}

// System is the simulation front end: it owns the fixed-step accumulator, the
// pending impulse, and the live particle count, and drives a Pipeline through
// whole sub-steps. All methods are safe for concurrent use; the tick goroutine
// calls Update while input callbacks apply impulses and toggle modes.
type System interface {
	// Update advances the simulation by elapsed wall-clock seconds. Whole
	// fixed sub-steps are consumed from the accumulator, capped per call;
	// accumulated time beyond the cap is dropped so a stall cannot snowball
	// into ever-longer updates. A pending impulse is consumed by the first
	// sub-step and cleared.
	//
	// Parameters:
	//   - elapsed: wall-clock seconds since the previous call
	//
	// Returns:
	//   - int: the number of sub-steps executed
	Update(elapsed float64) int

	// ApplyImpulse schedules a spherical velocity kick for the next
	// sub-step. Overwrites any impulse still pending; only the latest
	// impulse before consumption applies.
	//
	// Parameters:
	//   - center: world-space sphere center
	//   - velocity: velocity added at the center, falling off linearly to the sphere edge
	//   - radius: sphere radius
	ApplyImpulse(center, velocity [3]float32, radius float32)

	// AddParticles appends particles up to the remaining capacity. Particles
	// arriving with zero density are given rest density, the value a newly
	// created particle holds until the first density pass runs.
	//
	// Parameters:
	//   - ps: particles to append
	//
	// Returns:
	//   - int: the number of particles dropped for lack of capacity
	AddParticles(ps []particle.Particle) int

	// Reset replaces all particles with a dam-break column and clears the
	// accumulator and any pending impulse.
	//
	// Parameters:
	//   - count: requested particle count, clamped to capacity
	Reset(count int)

	// ParticleCount returns the number of live particles.
	//
	// Returns:
	//   - int: the live particle count
	ParticleCount() int

	// Capacity returns the particle capacity.
	//
	// Returns:
	//   - int: the maximum particle count
	Capacity() int

	// BoxMin returns the container minimum corner.
	//
	// Returns:
	//   - [3]float32: world-space minimum corner
	BoxMin() [3]float32

	// BoxMax returns the container maximum corner.
	//
	// Returns:
	//   - [3]float32: world-space maximum corner
	BoxMax() [3]float32

	// Gravity returns the current gravity vector.
	//
	// Returns:
	//   - [3]float32: acceleration in m/s^2
	Gravity() [3]float32

	// SetGravity replaces the gravity vector. Takes effect from the next
	// sub-step.
	//
	// Parameters:
	//   - g: acceleration in m/s^2
	SetGravity(g [3]float32)

	// ColorMode returns the current visualization channel.
	//
	// Returns:
	//   - ColorMode: the active color mode
	ColorMode() ColorMode

	// SetColorMode selects the visualization channel.
	//
	// Parameters:
	//   - m: the color mode to activate
	SetColorMode(m ColorMode)

	// FilteredViscosity reports whether the viscosity force samples the
	// filtered velocity field.
	//
	// Returns:
	//   - bool: true when filtered viscosity is enabled
	FilteredViscosity() bool

	// SetFilteredViscosity toggles the filtered velocity field pass.
	//
	// Parameters:
	//   - enabled: true to sample the filtered field in the force pass
	SetFilteredViscosity(enabled bool)

	// Snapshot returns a copy of the current particles when the pipeline
	// supports readback, nil otherwise.
	//
	// Returns:
	//   - []particle.Particle: the live particles, or nil
	Snapshot() []particle.Particle

	// Release frees the underlying pipeline.
	Release()
}

var _ System = &systemImpl{}

// NewSystem creates a System over the given pipeline and container bounds.
// The capacity has already been rounded by the pipeline's owner; pass the
// same value here.
//
// Parameters:
//   - p: the step pipeline (GPU or CPU)
//   - boxMin: container minimum corner
//   - boxMax: container maximum corner
//   - capacity: particle capacity, as rounded by RoundCapacity
//   - options: functional options to configure the system
//
// Returns:
//   - System: the newly created system
func NewSystem(p Pipeline, boxMin, boxMax [3]float32, capacity int, options ...SystemOption) System {
	s := &systemImpl{
		mu:          &sync.Mutex{},
		pipeline:    p,
		grid:        NewGrid(boxMin, boxMax),
		capacity:    capacity,
		gravity:     DefaultGravity,
		maxSubSteps: 8,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// SystemOption is a functional option for configuring a System.
type SystemOption func(*systemImpl)

// WithMaxSubSteps caps the fixed sub-steps executed per Update call.
// Values <= 0 keep the default of 8.
//
// Parameters:
//   - n: maximum sub-steps per Update
//
// Returns:
//   - SystemOption: option function to apply
func WithMaxSubSteps(n int) SystemOption {
	return func(s *systemImpl) {
		if n > 0 {
			s.maxSubSteps = n
		}
	}
}

// WithGravity sets the initial gravity vector.
//
// Parameters:
//   - g: acceleration in m/s^2
//
// Returns:
//   - SystemOption: option function to apply
func WithGravity(g [3]float32) SystemOption {
	return func(s *systemImpl) {
		s.gravity = g
	}
}

func (s *systemImpl) Update(elapsed float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accumulator += elapsed
	steps := int(s.accumulator / DT)
	if steps > s.maxSubSteps {
		dropped := float64(steps-s.maxSubSteps) * DT
		s.accumulator -= dropped
		steps = s.maxSubSteps
		if !s.dropWarned {
			log.Printf("simulation falling behind: dropped %.1f ms of accumulated time (cap %d sub-steps per update)",
				dropped*1000, s.maxSubSteps)
			s.dropWarned = true
		}
	}
	if steps == 0 || s.count == 0 {
		s.accumulator -= float64(steps) * DT
		return 0
	}

	for i := 0; i < steps; i++ {
		in := StepInput{
			Count:             s.count,
			Gravity:           s.gravity,
			FilteredViscosity: s.filteredViscosity,
		}
		if i == 0 && s.pendingImpulse != nil {
			in.Impulse = s.pendingImpulse
			s.pendingImpulse = nil
		}
		s.pipeline.Step(in)
	}
	s.accumulator -= float64(steps) * DT
	return steps
}

func (s *systemImpl) ApplyImpulse(center, velocity [3]float32, radius float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingImpulse = &Impulse{Center: center, Velocity: velocity, Radius: radius}
}

func (s *systemImpl) AddParticles(ps []particle.Particle) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.capacity - s.count
	n := len(ps)
	if n > room {
		n = room
	}
	if n > 0 {
		batch := make([]particle.Particle, n)
		copy(batch, ps[:n])
		for i := range batch {
			if batch[i].Density == 0 {
				batch[i].Density = RestDensity
			}
		}
		s.pipeline.Upload(s.count, batch)
		s.count += n
	}
	return len(ps) - n
}

func (s *systemImpl) Reset(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if count > s.capacity {
		count = s.capacity
	}
	seeded := DamBreak(s.grid.BoxMin, s.grid.BoxMax, count)
	if len(seeded) > 0 {
		s.pipeline.Upload(0, seeded)
	}
	s.count = len(seeded)
	s.accumulator = 0
	s.pendingImpulse = nil
}

func (s *systemImpl) ParticleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *systemImpl) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity
}

func (s *systemImpl) BoxMin() [3]float32 {
	return s.grid.BoxMin
}

func (s *systemImpl) BoxMax() [3]float32 {
	return s.grid.BoxMax
}

func (s *systemImpl) Gravity() [3]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gravity
}

func (s *systemImpl) SetGravity(g [3]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gravity = g
}

func (s *systemImpl) ColorMode() ColorMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.colorMode
}

func (s *systemImpl) SetColorMode(m ColorMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colorMode = m % colorModeCount
}

func (s *systemImpl) FilteredViscosity() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filteredViscosity
}

func (s *systemImpl) SetFilteredViscosity(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filteredViscosity = enabled
}

func (s *systemImpl) Snapshot() []particle.Particle {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.pipeline.Snapshot()
	if snap != nil && len(snap) > s.count {
		snap = snap[:s.count]
	}
	return snap
}

func (s *systemImpl) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipeline.Release()
}

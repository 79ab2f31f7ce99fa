package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kaltas21/WaterSimulation/sim/particle"
)

// Diagnostics summarizes the state of a particle snapshot for periodic logging
// and for asserting simulation health in tests.
type Diagnostics struct {
	// Count is the number of particles summarized.
	Count int
	// MeanSpeed and StdDevSpeed describe the speed distribution in m/s.
	MeanSpeed, StdDevSpeed float64
	// MinDensity, MeanDensity and MaxDensity describe the density field in kg/m^3.
	MinDensity, MeanDensity, MaxDensity float64
	// MinHeight and MaxHeight are the lowest and highest particle Y positions.
	MinHeight, MaxHeight float64
}

// Collect computes summary statistics over a particle snapshot.
//
// Parameters:
//   - ps: the particles to summarize
//
// Returns:
//   - Diagnostics: the computed summary, zero-valued when ps is empty
func Collect(ps []particle.Particle) Diagnostics {
	if len(ps) == 0 {
		return Diagnostics{}
	}

	speeds := make([]float64, len(ps))
	densities := make([]float64, len(ps))
	d := Diagnostics{
		Count:      len(ps),
		MinDensity: math.Inf(1),
		MaxDensity: math.Inf(-1),
		MinHeight:  math.Inf(1),
		MaxHeight:  math.Inf(-1),
	}

	for i, p := range ps {
		vx := float64(p.Velocity[0])
		vy := float64(p.Velocity[1])
		vz := float64(p.Velocity[2])
		speeds[i] = math.Sqrt(vx*vx + vy*vy + vz*vz)

		rho := float64(p.Density)
		densities[i] = rho
		d.MinDensity = min(d.MinDensity, rho)
		d.MaxDensity = max(d.MaxDensity, rho)

		y := float64(p.Position[1])
		d.MinHeight = min(d.MinHeight, y)
		d.MaxHeight = max(d.MaxHeight, y)
	}

	d.MeanSpeed, d.StdDevSpeed = stat.MeanStdDev(speeds, nil)
	d.MeanDensity = stat.Mean(densities, nil)
	return d
}

// String formats the diagnostics as a single log line.
//
// Returns:
//   - string: the formatted summary
func (d Diagnostics) String() string {
	return fmt.Sprintf("particles=%d speed=%.3f±%.3f m/s density=[%.1f %.1f %.1f] kg/m³ height=[%.3f %.3f] m",
		d.Count, d.MeanSpeed, d.StdDevSpeed, d.MinDensity, d.MeanDensity, d.MaxDensity, d.MinHeight, d.MaxHeight)
}

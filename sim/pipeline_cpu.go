package sim

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/kaltas21/WaterSimulation/sim/particle"
)

// cpuPipeline is the host-side reference implementation of the pass sequence.
// It runs the identical algorithm to the GPU pipeline against plain slices,
// which makes it both the fallback when no adapter is available and the
// ground truth for tests and diagnostics.
type cpuPipeline struct {
	grid     Grid
	capacity int

	// cur and scratch are the double-buffered particle stores. The reorder
	// pass writes scratch and the roles swap, so cur always holds the
	// grid-sorted particles after a step.
	cur     []particle.Particle
	scratch []particle.Particle

	// link holds per-particle linked-list entries during binning, rewritten
	// to destination slots by the cell range pass.
	link []uint32

	// cells holds one u32 per grid cell: a list head after binning, a
	// packed (start<<8 | count) range after the cell range pass,
	// InvalidIndex when empty.
	cells []uint32

	// accel stages per-particle accelerations so the force pass reads a
	// consistent velocity buffer while computing and applies afterwards.
	accel [][3]float32

	// field is the velocity field at cell centers: xyz = poly6-weighted
	// mean velocity, w = total weight. Only populated when the step runs
	// with filtered viscosity.
	field [][4]float32

	// pool manages a bounded set of reusable goroutines for the parallel
	// passes. Workers persist across steps, avoiding per-step goroutine
	// spawn/teardown overhead.
	pool    worker.DynamicWorkerPool
	workers int
}

var _ Pipeline = &cpuPipeline{}

// NewCPUPipeline creates the CPU reference pipeline with storage for capacity
// particles over the given grid.
//
// Parameters:
//   - grid: the spatial grid descriptor
//   - capacity: particle capacity, as rounded by RoundCapacity
//
// Returns:
//   - Pipeline: the CPU pipeline
func NewCPUPipeline(grid Grid, capacity int) Pipeline {
	workers := max(runtime.NumCPU()-1, 1)
	return &cpuPipeline{
		grid:     grid,
		capacity: capacity,
		cur:      make([]particle.Particle, capacity),
		scratch:  make([]particle.Particle, capacity),
		link:     make([]uint32, capacity),
		cells:    make([]uint32, grid.CellCount()),
		accel:    make([][3]float32, capacity),
		field:    make([][4]float32, grid.CellCount()),
		pool:     worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		workers:  workers,
	}
}

func (p *cpuPipeline) Upload(offset int, ps []particle.Particle) {
	copy(p.cur[offset:], ps)
}

func (p *cpuPipeline) Snapshot() []particle.Particle {
	snap := make([]particle.Particle, len(p.cur))
	copy(snap, p.cur)
	return snap
}

func (p *cpuPipeline) Release() {
	p.cur = nil
	p.scratch = nil
	p.link = nil
	p.cells = nil
	p.accel = nil
	p.field = nil
}

func (p *cpuPipeline) Step(in StepInput) {
	count := in.Count
	if count > p.capacity {
		count = p.capacity
	}
	if count == 0 {
		return
	}

	p.clearGrid()
	p.integrateAndBin(count, in)
	p.buildCellRanges()
	p.reorder(count)
	p.cur, p.scratch = p.scratch, p.cur
	if in.FilteredViscosity {
		p.velocityField()
	}
	p.densityPressure(count)
	p.forces(count, in.FilteredViscosity)
}

// parallelFor fans chunks of [0, n) out over the worker pool and blocks until
// every chunk has completed. Each chunk writes only its own index range, so
// results do not depend on scheduling.
func (p *cpuPipeline) parallelFor(n int, fn func(start, end int)) {
	chunk := (n + p.workers - 1) / p.workers
	if chunk < 64 {
		chunk = 64
	}

	var wg sync.WaitGroup
	taskID := 0
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		s, e := start, end
		p.pool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				fn(s, e)
				return nil, nil
			},
		})
		taskID++
	}
	wg.Wait()
}

// clearGrid resets every cell to InvalidIndex (pass 0).
func (p *cpuPipeline) clearGrid() {
	for i := range p.cells {
		p.cells[i] = InvalidIndex
	}
}

// integrateAndBin advances each particle (pass 1): gravity, pending impulse,
// position integration, boundary clamp with damped reflection, then pushes the
// particle onto its cell's linked list. Runs sequentially so the lists get the
// exact LIFO order the GPU's atomicExchange produces for a serialized queue.
func (p *cpuPipeline) integrateAndBin(count int, in StepInput) {
	for i := 0; i < count; i++ {
		pt := &p.cur[i]

		for a := 0; a < 3; a++ {
			pt.Velocity[a] += in.Gravity[a] * DT
		}

		if imp := in.Impulse; imp != nil {
			dx := pt.Position[0] - imp.Center[0]
			dy := pt.Position[1] - imp.Center[1]
			dz := pt.Position[2] - imp.Center[2]
			d := float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
			if d < imp.Radius {
				falloff := 1 - d/imp.Radius
				for a := 0; a < 3; a++ {
					pt.Velocity[a] += imp.Velocity[a] * falloff
				}
			}
		}

		for a := 0; a < 3; a++ {
			pt.Position[a] += pt.Velocity[a] * DT
		}

		for a := 0; a < 3; a++ {
			lo := p.grid.BoxMin[a] + ParticleRadius
			hi := p.grid.BoxMax[a] - ParticleRadius
			if pt.Position[a] < lo {
				pt.Position[a] = lo
				if pt.Velocity[a] < 0 {
					pt.Velocity[a] = -pt.Velocity[a] * BoundaryDamping
				}
			} else if pt.Position[a] > hi {
				pt.Position[a] = hi
				if pt.Velocity[a] > 0 {
					pt.Velocity[a] = -pt.Velocity[a] * BoundaryDamping
				}
			}
		}

		cell := p.grid.CellIndex(p.grid.CellCoord(pt.Position))
		p.link[i] = p.cells[cell]
		p.cells[cell] = uint32(i)
	}
}

// buildCellRanges converts each cell's linked list into a contiguous slot
// range (pass 2): walk the list to count members, reserve a range from the
// running counter, rewrite each member's link entry to its destination slot,
// and pack (start<<8 | count) into the cell. The count saturates at 255; extra
// members still receive slots but fall outside the advertised range.
func (p *cpuPipeline) buildCellRanges() {
	counter := uint32(0)
	for cell := range p.cells {
		head := p.cells[cell]
		if head == InvalidIndex {
			continue
		}

		n := uint32(0)
		for j := head; j != InvalidIndex; j = p.link[j] {
			n++
		}

		start := counter
		counter += n

		slot := start
		j := head
		for j != InvalidIndex {
			next := p.link[j]
			p.link[j] = slot
			slot++
			j = next
		}

		p.cells[cell] = start<<8 | min(n, 255)
	}
}

// reorder scatters particles into grid order (pass 3): each particle moves to
// the destination slot the cell range pass assigned it.
func (p *cpuPipeline) reorder(count int) {
	p.parallelFor(count, func(start, end int) {
		for i := start; i < end; i++ {
			p.scratch[p.link[i]] = p.cur[i]
		}
	})
}

// cellRange unpacks a cell value into a particle index range. ok is false for
// empty cells.
func (p *cpuPipeline) cellRange(cell uint32) (start, n uint32, ok bool) {
	packed := p.cells[cell]
	if packed == InvalidIndex {
		return 0, 0, false
	}
	return packed >> 8, packed & 0xFF, true
}

// forEachNeighbor visits every particle in the 27 cells around the given cell
// coordinates.
func (p *cpuPipeline) forEachNeighbor(c [3]uint32, fn func(j uint32)) {
	for dz := -1; dz <= 1; dz++ {
		nz := int(c[2]) + dz
		if nz < 0 || nz >= int(p.grid.Res[2]) {
			continue
		}
		for dy := -1; dy <= 1; dy++ {
			ny := int(c[1]) + dy
			if ny < 0 || ny >= int(p.grid.Res[1]) {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				nx := int(c[0]) + dx
				if nx < 0 || nx >= int(p.grid.Res[0]) {
					continue
				}
				idx := p.grid.CellIndex([3]uint32{uint32(nx), uint32(ny), uint32(nz)})
				start, n, ok := p.cellRange(idx)
				if !ok {
					continue
				}
				for j := start; j < start+n; j++ {
					fn(j)
				}
			}
		}
	}
}

// velocityField computes the poly6-weighted mean velocity at each cell center
// (pass 4). Workers write only their own cells.
func (p *cpuPipeline) velocityField() {
	p.parallelFor(p.grid.CellCount(), func(startCell, endCell int) {
		for cell := startCell; cell < endCell; cell++ {
			c := p.cellCoordOf(uint32(cell))
			center := p.cellCenter(c)

			var sum [3]float32
			var weight float32
			p.forEachNeighbor(c, func(j uint32) {
				dx := center[0] - p.cur[j].Position[0]
				dy := center[1] - p.cur[j].Position[1]
				dz := center[2] - p.cur[j].Position[2]
				r2 := dx*dx + dy*dy + dz*dz
				if r2 >= kernelRadius2 {
					return
				}
				d := float32(kernelRadius2) - r2
				w := float32(Poly6Coeff) * d * d * d
				for a := 0; a < 3; a++ {
					sum[a] += p.cur[j].Velocity[a] * w
				}
				weight += w
			})

			var out [4]float32
			if weight > 0 {
				for a := 0; a < 3; a++ {
					out[a] = sum[a] / weight
				}
			}
			out[3] = weight
			p.field[cell] = out
		}
	})
}

// cellCoordOf inverts a flat cell index back to cell coordinates.
func (p *cpuPipeline) cellCoordOf(cell uint32) [3]uint32 {
	rx, ry := p.grid.Res[0], p.grid.Res[1]
	return [3]uint32{cell % rx, (cell / rx) % ry, cell / (rx * ry)}
}

// cellCenter returns the world-space center of a cell.
func (p *cpuPipeline) cellCenter(c [3]uint32) [3]float32 {
	var out [3]float32
	for a := 0; a < 3; a++ {
		out[a] = p.grid.BoxMin[a] + (float32(c[a])+0.5)/p.grid.InvCellSize[a]
	}
	return out
}

// sampleField trilinearly interpolates the velocity field at a world-space
// position, mirroring the GPU's linear sampler with clamp-to-edge addressing.
func (p *cpuPipeline) sampleField(pos [3]float32) [3]float32 {
	var base [3]int
	var frac [3]float32
	for a := 0; a < 3; a++ {
		f := (pos[a]-p.grid.BoxMin[a])*p.grid.InvCellSize[a] - 0.5
		fl := float32(math.Floor(float64(f)))
		base[a] = int(fl)
		frac[a] = f - fl
	}

	clampCoord := func(v, res int) uint32 {
		if v < 0 {
			return 0
		}
		if v >= res {
			return uint32(res - 1)
		}
		return uint32(v)
	}

	var out [3]float32
	for dz := 0; dz <= 1; dz++ {
		wz := frac[2]
		if dz == 0 {
			wz = 1 - wz
		}
		for dy := 0; dy <= 1; dy++ {
			wy := frac[1]
			if dy == 0 {
				wy = 1 - wy
			}
			for dx := 0; dx <= 1; dx++ {
				wx := frac[0]
				if dx == 0 {
					wx = 1 - wx
				}
				idx := p.grid.CellIndex([3]uint32{
					clampCoord(base[0]+dx, int(p.grid.Res[0])),
					clampCoord(base[1]+dy, int(p.grid.Res[1])),
					clampCoord(base[2]+dz, int(p.grid.Res[2])),
				})
				w := wx * wy * wz
				for a := 0; a < 3; a++ {
					out[a] += p.field[idx][a] * w
				}
			}
		}
	}
	return out
}

// densityPressure evaluates the SPH density sum and the equation of state for
// each particle (pass 5). The self term is included because every particle
// appears in its own cell's range.
func (p *cpuPipeline) densityPressure(count int) {
	p.parallelFor(count, func(start, end int) {
		for i := start; i < end; i++ {
			pos := p.cur[i].Position
			c := p.grid.CellCoord(pos)

			var rho float32
			p.forEachNeighbor(c, func(j uint32) {
				dx := pos[0] - p.cur[j].Position[0]
				dy := pos[1] - p.cur[j].Position[1]
				dz := pos[2] - p.cur[j].Position[2]
				r2 := dx*dx + dy*dy + dz*dz
				if r2 >= kernelRadius2 {
					return
				}
				d := float32(kernelRadius2) - r2
				rho += ParticleMass * float32(Poly6Coeff) * d * d * d
			})

			p.cur[i].Density = rho
			pr := float32(Stiffness) * (rho - RestDensity)
			if pr < 0 {
				pr = 0
			}
			p.cur[i].Pressure = pr
		}
	})
}

// forces accumulates pressure and viscosity forces (pass 6) into the staging
// array, then applies v += (F/rho)*DT in a second parallel sweep. Staging
// keeps the velocity reads consistent while workers run, so the result does
// not depend on chunk scheduling.
func (p *cpuPipeline) forces(count int, filtered bool) {
	p.parallelFor(count, func(start, end int) {
		for i := start; i < end; i++ {
			pos := p.cur[i].Position
			vel := p.cur[i].Velocity
			pressI := p.cur[i].Pressure
			c := p.grid.CellCoord(pos)

			var force [3]float32
			p.forEachNeighbor(c, func(j uint32) {
				if int(j) == i {
					return
				}
				other := &p.cur[j]
				dx := pos[0] - other.Position[0]
				dy := pos[1] - other.Position[1]
				dz := pos[2] - other.Position[2]
				r2 := dx*dx + dy*dy + dz*dz
				if r2 >= kernelRadius2 || other.Density <= 0 {
					return
				}
				r := float32(math.Sqrt(float64(r2)))

				if r > 0 {
					h := float32(KernelRadius) - r
					// Pressure: -m*(p_i+p_j)/(2*rho_j) * gradW. SpikyGradCoeff
					// is negative, so the resulting force pushes the pair apart.
					scale := -ParticleMass * (pressI + other.Pressure) / (2 * other.Density) *
						float32(SpikyGradCoeff) * h * h / r
					force[0] += dx * scale
					force[1] += dy * scale
					force[2] += dz * scale
				}

				vj := other.Velocity
				if filtered {
					vj = p.sampleField(other.Position)
				}
				lap := float32(Viscosity) * ParticleMass * float32(ViscLapCoeff) * (float32(KernelRadius) - r) / other.Density
				force[0] += (vj[0] - vel[0]) * lap
				force[1] += (vj[1] - vel[1]) * lap
				force[2] += (vj[2] - vel[2]) * lap
			})

			rho := p.cur[i].Density
			if rho > 0 {
				for a := 0; a < 3; a++ {
					p.accel[i][a] = force[a] / rho
				}
			} else {
				p.accel[i] = [3]float32{}
			}
		}
	})

	p.parallelFor(count, func(start, end int) {
		for i := start; i < end; i++ {
			for a := 0; a < 3; a++ {
				p.cur[i].Velocity[a] += p.accel[i][a] * DT
			}
		}
	})
}

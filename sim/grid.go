package sim

// Grid describes the uniform spatial grid laid over the container box.
// Cell addressing must match the WGSL helpers in sim/particle/assets/sph_grid.wgsl
// exactly: the GPU passes and the CPU reference pipeline bin particles with the
// same arithmetic.
type Grid struct {
	// BoxMin and BoxMax are the container bounds in world space.
	BoxMin [3]float32
	BoxMax [3]float32

	// Res is the cell resolution per axis.
	Res [3]uint32

	// InvCellSize converts a box-relative position to fractional cell
	// coordinates. Shrunk by 0.1% per axis so a particle exactly on the
	// far wall still maps to the last cell.
	InvCellSize [3]float32
}

// NewGrid builds a Grid for the given container bounds using the global
// CellSize.
//
// Parameters:
//   - boxMin: container minimum corner
//   - boxMax: container maximum corner
//
// Returns:
//   - Grid: the grid descriptor
func NewGrid(boxMin, boxMax [3]float32) Grid {
	g := Grid{BoxMin: boxMin, BoxMax: boxMax}
	for a := 0; a < 3; a++ {
		size := boxMax[a] - boxMin[a]
		res := uint32(size/CellSize) + 1
		g.Res[a] = res
		g.InvCellSize[a] = float32(res) * (1.0 - 0.001) / size
	}
	return g
}

// CellCoord maps a world-space position to clamped integer cell coordinates.
//
// Parameters:
//   - pos: world-space position
//
// Returns:
//   - [3]uint32: cell coordinates, each clamped to [0, Res-1]
func (g Grid) CellCoord(pos [3]float32) [3]uint32 {
	var c [3]uint32
	for a := 0; a < 3; a++ {
		f := (pos[a] - g.BoxMin[a]) * g.InvCellSize[a]
		if f < 0 {
			f = 0
		}
		v := uint32(f)
		if v > g.Res[a]-1 {
			v = g.Res[a] - 1
		}
		c[a] = v
	}
	return c
}

// CellIndex flattens cell coordinates into a linear cell index (x-fastest).
//
// Parameters:
//   - c: cell coordinates
//
// Returns:
//   - uint32: flat index into the cell array
func (g Grid) CellIndex(c [3]uint32) uint32 {
	return c[0] + c[1]*g.Res[0] + c[2]*g.Res[0]*g.Res[1]
}

// CellCount returns the total number of grid cells.
//
// Returns:
//   - int: ResX * ResY * ResZ
func (g Grid) CellCount() int {
	return int(g.Res[0]) * int(g.Res[1]) * int(g.Res[2])
}

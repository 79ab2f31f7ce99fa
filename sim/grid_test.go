package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGridResolution(t *testing.T) {
	tests := []struct {
		name   string
		boxMin [3]float32
		boxMax [3]float32
		want   [3]uint32
	}{
		{
			name:   "default tank",
			boxMin: [3]float32{-2, -1, -2},
			boxMax: [3]float32{2, 1, 2},
			want:   [3]uint32{22, 11, 22},
		},
		{
			name:   "unit cube",
			boxMin: [3]float32{-0.5, -0.5, -0.5},
			boxMax: [3]float32{0.5, 0.5, 0.5},
			want:   [3]uint32{6, 6, 6},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGrid(tc.boxMin, tc.boxMax)
			assert.Equal(t, tc.want, g.Res)
			assert.Equal(t, int(tc.want[0])*int(tc.want[1])*int(tc.want[2]), g.CellCount())
			for a := 0; a < 3; a++ {
				size := tc.boxMax[a] - tc.boxMin[a]
				assert.InDelta(t, float64(tc.want[a])*0.999/float64(size), float64(g.InvCellSize[a]), 1e-5)
			}
		})
	}
}

func TestCellCoordClamps(t *testing.T) {
	g := NewGrid([3]float32{-1, -1, -1}, [3]float32{1, 1, 1})

	// Far outside on both sides clamps to the boundary cells.
	low := g.CellCoord([3]float32{-100, -100, -100})
	assert.Equal(t, [3]uint32{0, 0, 0}, low)

	high := g.CellCoord([3]float32{100, 100, 100})
	for a := 0; a < 3; a++ {
		assert.Equal(t, g.Res[a]-1, high[a])
	}

	// The shrunken inverse cell size keeps the exact far wall in range.
	wall := g.CellCoord([3]float32{1, 1, 1})
	for a := 0; a < 3; a++ {
		assert.Equal(t, g.Res[a]-1, wall[a])
	}
}

func TestCellIndexXFastest(t *testing.T) {
	g := NewGrid([3]float32{0, 0, 0}, [3]float32{2, 2, 2})

	assert.Equal(t, uint32(0), g.CellIndex([3]uint32{0, 0, 0}))
	assert.Equal(t, uint32(1), g.CellIndex([3]uint32{1, 0, 0}))
	assert.Equal(t, g.Res[0], g.CellIndex([3]uint32{0, 1, 0}))
	assert.Equal(t, g.Res[0]*g.Res[1], g.CellIndex([3]uint32{0, 0, 1}))

	last := [3]uint32{g.Res[0] - 1, g.Res[1] - 1, g.Res[2] - 1}
	assert.Equal(t, uint32(g.CellCount()-1), g.CellIndex(last))
}

func TestRoundCapacity(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 512},
		{1, 512},
		{512, 512},
		{513, 1024},
		{100000, 100352},
		{1 << 30, MaxParticles},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, RoundCapacity(tc.in), "RoundCapacity(%d)", tc.in)
	}
}

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerWireframe(t *testing.T) {
	boxMin := [3]float32{-2, -1, -2}
	boxMax := [3]float32{2, 1, 2}
	verts, indices := containerWireframe(boxMin, boxMax)

	require.Len(t, verts, 8*3)
	require.Len(t, indices, 24, "12 edges as a line list")

	// Every vertex coordinate sits on the box surface.
	for i := 0; i < 8; i++ {
		for a := 0; a < 3; a++ {
			v := verts[i*3+a]
			assert.True(t, v == boxMin[a] || v == boxMax[a], "vertex %d axis %d: %v", i, a, v)
		}
	}

	// Each edge joins two corners that differ on exactly one axis, and no
	// edge repeats.
	seen := map[[2]uint32]bool{}
	for e := 0; e < 12; e++ {
		a, b := indices[2*e], indices[2*e+1]
		require.Less(t, a, uint32(8))
		require.Less(t, b, uint32(8))

		diff := 0
		for axis := 0; axis < 3; axis++ {
			if verts[a*3+uint32(axis)] != verts[b*3+uint32(axis)] {
				diff++
			}
		}
		assert.Equal(t, 1, diff, "edge %d spans a single axis", e)

		key := [2]uint32{min(a, b), max(a, b)}
		assert.False(t, seen[key], "edge %d duplicated", e)
		seen[key] = true
	}
}

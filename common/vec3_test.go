package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Ops(t *testing.T) {
	a := [3]float32{1, 2, 3}
	b := [3]float32{-1, 0.5, 2}

	assert.Equal(t, [3]float32{0, 2.5, 5}, Add3(a, b))
	assert.Equal(t, [3]float32{2, 1.5, 1}, Sub3(a, b))
	assert.Equal(t, [3]float32{2, 4, 6}, Scale3(a, 2))
	assert.Equal(t, float32(6), Dot3(a, b))
	assert.Equal(t, float32(13), Dot3(a, [3]float32{3, 2, 2}))
}

func TestLength3AndNormalize3(t *testing.T) {
	v := [3]float32{3, 0, 4}
	assert.Equal(t, float32(5), Length3(v))

	n := Normalize3(v)
	assert.InDelta(t, 0.6, float64(n[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(n[2]), 1e-6)
	assert.InDelta(t, 1, float64(Length3(n)), 1e-6)

	assert.Equal(t, [3]float32{}, Normalize3([3]float32{}), "zero vector stays zero")
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 7, Coalesce(0, 0, 7))
	assert.Equal(t, 0, Coalesce(0, 0))
}

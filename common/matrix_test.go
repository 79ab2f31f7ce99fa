package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMat4Near(t *testing.T, want, got []float32, tol float64) {
	t.Helper()
	require.Len(t, got, 16)
	for i := range want {
		assert.InDelta(t, float64(want[i]), float64(got[i]), tol, "element %d", i)
	}
}

func TestMul4Identity(t *testing.T) {
	id := make([]float32, 16)
	Identity(id)

	m := make([]float32, 16)
	LookAt(m, 3, 2, 5, 0, 0, 0, 0, 1, 0)

	out := make([]float32, 16)
	Mul4(out, m, id)
	assertMat4Near(t, m, out, 1e-6)

	Mul4(out, id, m)
	assertMat4Near(t, m, out, 1e-6)
}

func TestInvert4RoundTrip(t *testing.T) {
	m := make([]float32, 16)
	LookAt(m, 3, -2, 5, 0.5, 0, -0.5, 0, 1, 0)

	inv := make([]float32, 16)
	require.True(t, Invert4(inv, m))

	out := make([]float32, 16)
	Mul4(out, m, inv)

	id := make([]float32, 16)
	Identity(id)
	assertMat4Near(t, id, out, 1e-5)
}

func TestInvert4Singular(t *testing.T) {
	zero := make([]float32, 16)
	out := make([]float32, 16)
	assert.False(t, Invert4(out, zero))
}

func TestLookAtMapsEyeToOrigin(t *testing.T) {
	m := make([]float32, 16)
	LookAt(m, 1, 2, 3, 0, 0, 0, 0, 1, 0)

	// Column-major multiply of the eye point lands at the view-space origin.
	eye := [4]float32{1, 2, 3, 1}
	for row := 0; row < 3; row++ {
		var sum float32
		for col := 0; col < 4; col++ {
			sum += m[col*4+row] * eye[col]
		}
		assert.InDelta(t, 0, float64(sum), 1e-5, "row %d", row)
	}
}

func TestBuildModelMatrixTranslation(t *testing.T) {
	m := make([]float32, 16)
	BuildModelMatrix(m, 1, -2, 3, 0, 0, 0, 1, 1, 1)

	assert.Equal(t, float32(1), m[12])
	assert.Equal(t, float32(-2), m[13])
	assert.Equal(t, float32(3), m[14])
	assert.Equal(t, float32(1), m[15])
}

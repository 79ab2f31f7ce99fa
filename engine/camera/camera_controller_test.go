package camera

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrbitControllerPositionFromSpherical(t *testing.T) {
	ctrl := NewOrbitController(
		WithTarget(1, 2, 3),
		WithRadius(5),
		WithAzimuth(0),
		WithElevation(0),
	)

	// Azimuth 0, elevation 0 places the camera along +Z from the target.
	x, y, z := ctrl.Position()
	assert.InDelta(t, 1, float64(x), 1e-5)
	assert.InDelta(t, 2, float64(y), 1e-5)
	assert.InDelta(t, 8, float64(z), 1e-5)

	// A quarter turn moves the camera to +X of the target.
	ctrl.SetAzimuth(float32(math.Pi / 2))
	x, y, z = ctrl.Position()
	assert.InDelta(t, 6, float64(x), 1e-4)
	assert.InDelta(t, 2, float64(y), 1e-5)
	assert.InDelta(t, 3, float64(z), 1e-4)
}

func TestOrbitControllerRetargetsKeepsOffset(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(2), WithAzimuth(0), WithElevation(0))
	ctrl.SetTarget(10, 0, 0)

	x, y, z := ctrl.Position()
	assert.InDelta(t, 10, float64(x), 1e-5)
	assert.InDelta(t, 0, float64(y), 1e-5)
	assert.InDelta(t, 2, float64(z), 1e-5)
}

func TestOrbitControllerClamps(t *testing.T) {
	ctrl := NewOrbitController(WithRadiusBounds(1, 10), WithRadius(5))

	ctrl.SetRadius(100)
	assert.Equal(t, float32(10), ctrl.Radius(), "radius clamps to the upper bound")
	ctrl.SetRadius(0)
	assert.Equal(t, float32(1), ctrl.Radius(), "radius clamps to the lower bound")

	// Elevation never reaches the poles, so the look-at up vector stays valid.
	ctrl.SetElevation(10)
	assert.Less(t, float64(ctrl.Elevation()), float64(math.Pi/2))
	ctrl.SetElevation(-10)
	assert.Greater(t, float64(ctrl.Elevation()), float64(-math.Pi/2))
}

func TestOrbitControllerZoomMovesAlongViewRay(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(5), WithZoomSpeed(0.5))

	before := ctrl.Radius()
	ctrl.Zoom(2)
	assert.InDelta(t, float64(before-1), float64(ctrl.Radius()), 1e-5, "positive delta zooms in")

	ctrl.Zoom(-2)
	assert.InDelta(t, float64(before), float64(ctrl.Radius()), 1e-5)
}

package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniformSource is the canonical WGSL definition of the CameraUniform struct.
// Matches GPUCameraUniform layout exactly (112 bytes, std430 aligned).
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL CameraUniform struct layout exactly (see GPUCameraUniformSource).
// The right and up vectors are the camera's world-space basis, used by billboard
// shaders to orient camera-facing quads. Size: 112 bytes (std430 / WGSL aligned).
type GPUCameraUniform struct {
	ViewProj       [16]float32 // offset   0: combined view-projection matrix (mat4x4<f32>)
	CameraPosition [3]float32  // offset  64: world-space camera position (vec3<f32>)
	_pad0          float32     // offset  76: padding
	CameraRight    [3]float32  // offset  80: world-space camera right vector (vec3<f32>)
	_pad1          float32     // offset  92: padding
	CameraUp       [3]float32  // offset  96: world-space camera up vector (vec3<f32>)
	_pad2          float32     // offset 108: padding to 112 bytes
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (112)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	putVec3 := func(off int, v [3]float32) {
		for i := range 3 {
			binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(v[i]))
		}
	}
	putVec3(64, g.CameraPosition)
	putVec3(80, g.CameraRight)
	putVec3(96, g.CameraUp)
	return buf
}

// UniformFor builds the GPU camera uniform from a camera's current matrices.
// The right and up basis vectors are read from the rows of the view matrix.
//
// Parameters:
//   - c: the camera to read matrices from
//
// Returns:
//   - GPUCameraUniform: the populated uniform
func UniformFor(c Camera) GPUCameraUniform {
	view := c.ViewMatrix()
	u := GPUCameraUniform{
		ViewProj:    c.ViewProjectionMatrix(),
		CameraRight: [3]float32{view[0], view[4], view[8]},
		CameraUp:    [3]float32{view[1], view[5], view[9]},
	}
	if ctrl := c.Controller(); ctrl != nil {
		u.CameraPosition[0], u.CameraPosition[1], u.CameraPosition[2] = ctrl.Position()
	}
	return u
}

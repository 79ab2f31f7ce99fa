package sim

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUSimParams is the GPU-aligned representation of the per-sub-step simulation
// uniform buffer. Matches the WGSL SimParams struct layout exactly (see
// particle.WGSLParamsSource). Size: 112 bytes (std430 / WGSL aligned).
type GPUSimParams struct {
	BoxMin            [3]float32 // offset   0: lower corner of the simulation box (vec3<f32>)
	ParticleCount     uint32     // offset  12: number of live particles
	BoxMax            [3]float32 // offset  16: upper corner of the simulation box (vec3<f32>)
	FilteredViscosity uint32     // offset  28: 1 when the viscosity term samples the velocity field
	GridRes           [3]uint32  // offset  32: grid resolution per axis (vec3<u32>)
	_pad0             uint32     // offset  44: padding
	InvCellSize       [3]float32 // offset  48: per-axis world-to-cell scale (vec3<f32>)
	_pad1             float32    // offset  60: padding
	Gravity           [3]float32 // offset  64: gravity acceleration (vec3<f32>)
	DT                float32    // offset  76: fixed sub-step duration in seconds
	ImpulseCenter     [3]float32 // offset  80: center of the impulse sphere (vec3<f32>)
	ImpulseRadius     float32    // offset  92: radius of the impulse sphere
	ImpulseVelocity   [3]float32 // offset  96: velocity added at the impulse center (vec3<f32>)
	ImpulseActive     uint32     // offset 108: 1 when the impulse applies this sub-step
}

// Size returns the size of the GPUSimParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (112)
func (g *GPUSimParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSimParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUSimParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	putVec3 := func(off int, v [3]float32) {
		for i := range 3 {
			binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(v[i]))
		}
	}
	putVec3(0, g.BoxMin)
	binary.LittleEndian.PutUint32(buf[12:], g.ParticleCount)
	putVec3(16, g.BoxMax)
	binary.LittleEndian.PutUint32(buf[28:], g.FilteredViscosity)
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[32+i*4:], g.GridRes[i])
	}
	putVec3(48, g.InvCellSize)
	putVec3(64, g.Gravity)
	binary.LittleEndian.PutUint32(buf[76:], math.Float32bits(g.DT))
	putVec3(80, g.ImpulseCenter)
	binary.LittleEndian.PutUint32(buf[92:], math.Float32bits(g.ImpulseRadius))
	putVec3(96, g.ImpulseVelocity)
	binary.LittleEndian.PutUint32(buf[108:], g.ImpulseActive)
	return buf
}

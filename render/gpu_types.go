package render

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUDrawParams is the GPU-aligned representation of the particle draw uniform.
// Matches the WGSL DrawParams struct layout exactly. Size: 16 bytes.
type GPUDrawParams struct {
	ParticleRadius float32 // offset 0: billboard half-extent in world units
	ColorMode      uint32  // offset 4: particle coloring mode
	_pad0          float32 // offset 8: padding
	_pad1          float32 // offset 12: padding to 16 bytes
}

// Size returns the size of the GPUDrawParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUDrawParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUDrawParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUDrawParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(g.ParticleRadius))
	binary.LittleEndian.PutUint32(buf[4:], g.ColorMode)
	return buf
}

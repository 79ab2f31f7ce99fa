// package particle defines the GPU-aligned particle representation shared by the
// simulation pipelines and the renderer, together with the canonical WGSL source
// snippets injected into shaders by the pre-processor.
package particle

import (
	_ "embed"
	"unsafe"
)

// WGSLParticleSource is the canonical WGSL definition of the Particle struct.
// Matches the Particle Go struct layout exactly (32 bytes, WGSL aligned).
//
//go:embed assets/particle.wgsl
var WGSLParticleSource string

// WGSLKernelsSource holds the SPH smoothing kernel constants and weight
// functions shared by the density, force, and velocity field passes.
//
//go:embed assets/sph_kernels.wgsl
var WGSLKernelsSource string

// WGSLGridSource holds the uniform grid cell addressing helpers shared by
// every pass that bins or looks up particles.
//
//go:embed assets/sph_grid.wgsl
var WGSLGridSource string

// WGSLParamsSource is the canonical WGSL definition of the SimParams uniform
// struct. Matches the GPUSimParams Go struct layout exactly (112 bytes).
//
//go:embed assets/sph_params.wgsl
var WGSLParamsSource string

// Particle is the GPU-aligned representation of a single fluid particle.
// Matches the WGSL Particle struct layout exactly (see WGSLParticleSource).
// Size: 32 bytes. Density and pressure ride in the vec3 padding slots so the
// struct stays two 16-byte rows.
type Particle struct {
	Position [3]float32 // offset  0: world-space position (vec3<f32>)
	Density  float32    // offset 12: SPH density, written by the density pass
	Velocity [3]float32 // offset 16: velocity (vec3<f32>)
	Pressure float32    // offset 28: pressure from the equation of state
}

// Stride is the byte size of one Particle in a GPU buffer.
const Stride = int(unsafe.Sizeof(Particle{}))

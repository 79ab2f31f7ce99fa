// package common contains common types that are used throughout this application. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "github.com/cogentcore/webgpu/wgpu"

// Texture3DStagingData holds the dimensions and format of a 3D texture binding pending GPU creation.
// This is primarily used in the BindGroupProvider to stage volume texture parameters (such as the
// simulation velocity field) before creating the GPU texture and bind group.
type Texture3DStagingData struct {
	// Width, Height, Depth are the texture dimensions in texels.
	Width, Height, Depth uint32
	// Format is the texel format of the texture.
	Format wgpu.TextureFormat
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// This is primarily used in the BindGroupProvider to stage sampler data before creating the GPU sampler and bind group.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const computeTestSource = `
struct Params {
    count: u32,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read_write> values: array<vec4<f32>>;
@group(0) @binding(2) var<storage, read> lookup: array<u32>;
@group(0) @binding(3) var field: texture_3d<f32>;
@group(0) @binding(4) var fieldSampler: sampler;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    if (gid.x >= params.count) {
        return;
    }
}
`

func TestComputeShaderParsing(t *testing.T) {
	shd, err := NewShader("test_compute", ShaderTypeCompute, computeTestSource)
	require.NoError(t, err)

	assert.Equal(t, "main", shd.EntryPoint())
	assert.Equal(t, [3]uint32{64, 1, 1}, shd.WorkgroupSize(), "missing dimensions default to 1")

	desc := shd.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 5)

	byBinding := map[uint32]wgpu.BindGroupLayoutEntry{}
	for _, e := range desc.Entries {
		assert.Equal(t, wgpu.ShaderStageCompute, e.Visibility)
		byBinding[e.Binding] = e
	}

	assert.Equal(t, wgpu.BufferBindingTypeUniform, byBinding[0].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, byBinding[1].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, byBinding[2].Buffer.Type)
	assert.Equal(t, wgpu.TextureViewDimension3D, byBinding[3].Texture.ViewDimension)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, byBinding[3].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, byBinding[4].Sampler.Type)

	assert.Equal(t, "params", shd.BindGroupVarName(0, 0))
	assert.Equal(t, "field", shd.BindGroupVarName(0, 3))
}

func TestStorageTextureParsing(t *testing.T) {
	src := `
@group(0) @binding(0) var dst: texture_storage_3d<rgba16float, write>;

@compute @workgroup_size(4, 4, 4)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
}
`
	shd, err := NewShader("test_storage_texture", ShaderTypeCompute, src)
	require.NoError(t, err)

	assert.Equal(t, [3]uint32{4, 4, 4}, shd.WorkgroupSize())

	desc := shd.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 1)
	e := desc.Entries[0]
	assert.Equal(t, wgpu.TextureViewDimension3D, e.StorageTexture.ViewDimension)
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, e.StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, e.StorageTexture.Access)
}

func TestVertexShaderParsing(t *testing.T) {
	src := `
struct VSIn {
    @location(0) position: vec3<f32>,
}

struct VSOut {
    @builtin(position) clipPosition: vec4<f32>,
}

@group(0) @binding(0) var<uniform> camera: mat4x4<f32>;

@vertex
fn vs_main(in: VSIn) -> VSOut {
    var out: VSOut;
    out.clipPosition = camera * vec4<f32>(in.position, 1.0);
    return out;
}
`
	shd, err := NewShader("test_vertex", ShaderTypeVertex, src)
	require.NoError(t, err)

	assert.Equal(t, "vs_main", shd.EntryPoint())

	layouts := shd.VertexLayout(0)
	require.Len(t, layouts, 1)
	layout := layouts[0]
	assert.Equal(t, uint64(12), layout.ArrayStride)
	require.Len(t, layout.Attributes, 1)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, layout.Attributes[0].Format)
	assert.Equal(t, uint32(0), layout.Attributes[0].ShaderLocation)

	desc := shd.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 1)
	assert.Equal(t, wgpu.ShaderStageVertex, desc.Entries[0].Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, desc.Entries[0].Buffer.Type)
}

func TestVertexLayoutSkipsNonFloatInputs(t *testing.T) {
	src := `
struct VSIn {
    @location(0) index: u32,
}

@vertex
fn vs_main(in: VSIn) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0);
}
`
	shd, err := NewShader("test_vertex_skip", ShaderTypeVertex, src)
	require.NoError(t, err)

	// Only float attribute structs map to vertex buffer layouts.
	assert.Empty(t, shd.VertexLayout(0))
}

func TestMissingEntryPointFails(t *testing.T) {
	src := `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`
	_, err := NewShader("test_wrong_type", ShaderTypeCompute, src)
	assert.Error(t, err, "a compute shader needs a @compute entry point")
}

package render

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/kaltas21/WaterSimulation/common"
	"github.com/kaltas21/WaterSimulation/engine/camera"
	"github.com/kaltas21/WaterSimulation/engine/renderer"
	"github.com/kaltas21/WaterSimulation/engine/renderer/bind_group_provider"
	"github.com/kaltas21/WaterSimulation/engine/renderer/pipeline"
	"github.com/kaltas21/WaterSimulation/engine/renderer/shader"
	"github.com/kaltas21/WaterSimulation/sim"
	"github.com/kaltas21/WaterSimulation/sim/particle"
)

// Render pipeline keys.
const (
	RenderKeyParticles = "particle_billboard"
	RenderKeyContainer = "container_wireframe"
)

//go:embed assets/particle_billboard.wgsl
var wgslParticleBillboard string

//go:embed assets/container.wgsl
var wgslContainer string

// FrameInput carries the per-frame state the view needs to draw.
type FrameInput struct {
	// Count is the number of live particles to draw.
	Count int
	// Parity selects which device particle buffer holds the current state.
	Parity int
	// Particles is a host-resident snapshot to upload before drawing. Nil when
	// the particles already live on the device.
	Particles []particle.Particle
	// ColorMode selects the particle coloring.
	ColorMode sim.ColorMode
}

// FluidView draws the fluid particles and the container wireframe.
// Particles are rendered as camera-facing sphere impostors pulled from the
// simulation's particle buffer by instance index.
type FluidView interface {
	// Frame writes the per-frame uniforms and draws one complete frame,
	// including surface presentation.
	//
	// Parameters:
	//   - in: the per-frame draw state
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired or a draw failed
	Frame(in FrameInput) error

	// Release frees all GPU resources owned by the view.
	Release()
}

type fluidView struct {
	mu *sync.Mutex

	r   renderer.Renderer
	cam camera.Camera

	drawRadius float32

	// globalsProv owns the camera and draw-param uniform buffers; the container
	// provider shares the camera buffer under its own layout.
	globalsProv          bind_group_provider.BindGroupProvider
	containerGlobalsProv bind_group_provider.BindGroupProvider
	particleProv         [2]bind_group_provider.BindGroupProvider
	ownedParticleBuf     *wgpu.Buffer

	particleMesh  bind_group_provider.BindGroupProvider
	containerMesh bind_group_provider.BindGroupProvider
}

var _ FluidView = &fluidView{}

// NewFluidView registers the render pipelines and creates the GPU resources for
// drawing the fluid. When particleBufs holds device buffers (GPU simulation)
// the view binds them directly; when both entries are nil (CPU simulation) the
// view allocates its own particle buffer and expects each Frame to carry a
// host snapshot to upload.
//
// Parameters:
//   - r: the renderer providing device access
//   - cam: the camera whose matrices drive the view
//   - boxMin, boxMax: the container corners for the wireframe
//   - capacity: the maximum particle count, sizing the CPU-mode upload buffer
//   - particleBufs: the simulation's double-buffered particle storage, or nils
//   - options: functional options to configure the view
//
// Returns:
//   - FluidView: the initialized view
//   - error: an error if shader, pipeline or GPU resource creation fails
func NewFluidView(r renderer.Renderer, cam camera.Camera, boxMin, boxMax [3]float32, capacity int, particleBufs [2]*wgpu.Buffer, options ...FluidViewOption) (FluidView, error) {
	v := &fluidView{
		mu:         &sync.Mutex{},
		r:          r,
		cam:        cam,
		drawRadius: sim.ParticleRadius * 1.5,
	}
	for _, option := range options {
		option(v)
	}

	particleVS, err := shader.NewShader("particle_billboard_vs", shader.ShaderTypeVertex, wgslParticleBillboard)
	if err != nil {
		return nil, fmt.Errorf("render: failed to build particle vertex shader: %w", err)
	}
	particleFS, err := shader.NewShader("particle_billboard_fs", shader.ShaderTypeFragment, wgslParticleBillboard)
	if err != nil {
		return nil, fmt.Errorf("render: failed to build particle fragment shader: %w", err)
	}
	containerVS, err := shader.NewShader("container_vs", shader.ShaderTypeVertex, wgslContainer)
	if err != nil {
		return nil, fmt.Errorf("render: failed to build container vertex shader: %w", err)
	}
	containerFS, err := shader.NewShader("container_fs", shader.ShaderTypeFragment, wgslContainer)
	if err != nil {
		return nil, fmt.Errorf("render: failed to build container fragment shader: %w", err)
	}

	if err := r.RegisterPipelines(
		pipeline.NewPipeline(RenderKeyParticles, pipeline.PipelineTypeRender,
			pipeline.WithVertexShader(particleVS),
			pipeline.WithFragmentShader(particleFS),
			pipeline.WithDepthTestEnabled(true),
			pipeline.WithDepthWriteEnabled(true),
		),
		pipeline.NewPipeline(RenderKeyContainer, pipeline.PipelineTypeRender,
			pipeline.WithVertexShader(containerVS),
			pipeline.WithFragmentShader(containerFS),
			pipeline.WithTopology(wgpu.PrimitiveTopologyLineList),
			pipeline.WithDepthTestEnabled(true),
			pipeline.WithDepthWriteEnabled(false),
		),
	); err != nil {
		return nil, fmt.Errorf("render: failed to register pipelines: %w", err)
	}

	v.globalsProv = bind_group_provider.NewBindGroupProvider("fluid_draw_globals")
	if err := r.InitBindGroup(v.globalsProv, renderGroupDescriptor(particleVS, 0), nil, nil); err != nil {
		v.Release()
		return nil, err
	}

	v.containerGlobalsProv = bind_group_provider.NewBindGroupProvider("container_globals", bind_group_provider.WithSharedResources())
	v.containerGlobalsProv.SetBuffer(0, v.globalsProv.Buffer(0))
	if err := r.InitBindGroup(v.containerGlobalsProv, renderGroupDescriptor(containerVS, 0), nil, nil); err != nil {
		v.Release()
		return nil, err
	}

	if particleBufs[0] == nil {
		buf, bufErr := r.InitStorageBuffer("Fluid Particles", uint64(capacity*particle.Stride), wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
		if bufErr != nil {
			v.Release()
			return nil, bufErr
		}
		v.ownedParticleBuf = buf
		particleBufs = [2]*wgpu.Buffer{buf, buf}
	}
	for k := range v.particleProv {
		prov := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("fluid_particles_%d", k), bind_group_provider.WithSharedResources())
		prov.SetBuffer(0, particleBufs[k])
		if err := r.InitBindGroup(prov, renderGroupDescriptor(particleVS, 1), nil, nil); err != nil {
			v.Release()
			return nil, err
		}
		v.particleProv[k] = prov
	}

	v.particleMesh = bind_group_provider.NewBindGroupProvider("particle_quad")
	quadIndices := []uint32{0, 1, 2, 2, 1, 3}
	if err := r.InitMeshBuffers(v.particleMesh, nil, common.SliceToBytes(quadIndices), len(quadIndices)); err != nil {
		v.Release()
		return nil, err
	}

	v.containerMesh = bind_group_provider.NewBindGroupProvider("container_box")
	verts, indices := containerWireframe(boxMin, boxMax)
	if err := r.InitMeshBuffers(v.containerMesh, common.SliceToBytes(verts), common.SliceToBytes(indices), len(indices)); err != nil {
		v.Release()
		return nil, err
	}

	return v, nil
}

func (v *fluidView) Frame(in FrameInput) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	camUniform := camera.UniformFor(v.cam)
	drawParams := GPUDrawParams{
		ParticleRadius: v.drawRadius,
		ColorMode:      uint32(in.ColorMode),
	}

	writes := []bind_group_provider.BufferWrite{
		{Provider: v.globalsProv, Binding: 0, Data: camUniform.Marshal()},
		{Provider: v.globalsProv, Binding: 1, Data: drawParams.Marshal()},
	}
	if len(in.Particles) > 0 {
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: v.particleProv[in.Parity&1],
			Binding:  0,
			Data:     common.SliceToBytes(in.Particles),
		})
	}
	v.r.WriteBuffers(writes)

	if err := v.r.BeginFrame(); err != nil {
		return err
	}

	var drawErr error
	if in.Count > 0 {
		drawErr = v.r.DrawCall(RenderKeyParticles, v.particleMesh, uint32(in.Count),
			[]bind_group_provider.BindGroupProvider{v.globalsProv, v.particleProv[in.Parity&1]})
	}
	if err := v.r.DrawCall(RenderKeyContainer, v.containerMesh, 1,
		[]bind_group_provider.BindGroupProvider{v.containerGlobalsProv}); err != nil && drawErr == nil {
		drawErr = err
	}

	v.r.EndFrame()
	v.r.Present()
	return drawErr
}

func (v *fluidView) Release() {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, prov := range []bind_group_provider.BindGroupProvider{
		v.containerGlobalsProv, v.particleProv[0], v.particleProv[1],
		v.particleMesh, v.containerMesh, v.globalsProv,
	} {
		if prov != nil {
			prov.Release()
		}
	}
	v.containerGlobalsProv = nil
	v.particleProv = [2]bind_group_provider.BindGroupProvider{}
	v.particleMesh, v.containerMesh, v.globalsProv = nil, nil, nil

	if v.ownedParticleBuf != nil {
		v.ownedParticleBuf.Release()
		v.ownedParticleBuf = nil
	}
}

// renderGroupDescriptor copies a shader's group layout with visibility widened
// to both render stages. The pipeline layout merges vertex and fragment
// declarations of the same source file, so bind groups must carry the merged
// visibility to stay layout compatible.
func renderGroupDescriptor(shd shader.Shader, group int) wgpu.BindGroupLayoutDescriptor {
	desc := shd.BindGroupLayoutDescriptor(group)
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	copy(entries, desc.Entries)
	for i := range entries {
		entries[i].Visibility = wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	}
	desc.Entries = entries
	return desc
}

// containerWireframe builds the 8 corners and 12 edges of an axis-aligned box
// as a line list.
func containerWireframe(boxMin, boxMax [3]float32) ([]float32, []uint32) {
	verts := make([]float32, 0, 8*3)
	for i := range 8 {
		x := boxMin[0]
		if i&1 != 0 {
			x = boxMax[0]
		}
		y := boxMin[1]
		if i&2 != 0 {
			y = boxMax[1]
		}
		z := boxMin[2]
		if i&4 != 0 {
			z = boxMax[2]
		}
		verts = append(verts, x, y, z)
	}

	indices := make([]uint32, 0, 24)
	for i := range 8 {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				indices = append(indices, uint32(i), uint32(i|bit))
			}
		}
	}
	return verts, indices
}

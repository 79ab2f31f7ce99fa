package sim

import (
	_ "embed"
	"fmt"
	"log"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/kaltas21/WaterSimulation/common"
	"github.com/kaltas21/WaterSimulation/engine/renderer"
	"github.com/kaltas21/WaterSimulation/engine/renderer/bind_group_provider"
	"github.com/kaltas21/WaterSimulation/engine/renderer/pipeline"
	"github.com/kaltas21/WaterSimulation/engine/renderer/shader"
	"github.com/kaltas21/WaterSimulation/sim/particle"
)

// Compute pipeline keys, one per pass, in dispatch order.
const (
	PipelineKeyGridClear       = "sph_grid_clear"
	PipelineKeyIntegrateBin    = "sph_integrate_bin"
	PipelineKeyCellRanges      = "sph_cell_ranges"
	PipelineKeyReorder         = "sph_reorder"
	PipelineKeyVelocityField   = "sph_velocity_field"
	PipelineKeyDensityPressure = "sph_density_pressure"
	PipelineKeyForces          = "sph_forces"
)

//go:embed assets/sph_grid_clear.wgsl
var wgslGridClear string

//go:embed assets/sph_integrate_bin.wgsl
var wgslIntegrateBin string

//go:embed assets/sph_cell_ranges.wgsl
var wgslCellRanges string

//go:embed assets/sph_reorder.wgsl
var wgslReorder string

//go:embed assets/sph_velocity_field.wgsl
var wgslVelocityField string

//go:embed assets/sph_density_pressure.wgsl
var wgslDensityPressure string

//go:embed assets/sph_forces.wgsl
var wgslForces string

// GPUPipeline is a Pipeline whose particle state lives in device buffers.
// It exposes the double-buffered particle storage so a renderer can bind the
// buffer holding the most recent sub-step's output for vertex pulling.
type GPUPipeline interface {
	Pipeline

	// ParticleBuffer returns the device particle buffer for the given parity (0 or 1).
	//
	// Parameters:
	//   - parity: the buffer index to retrieve
	//
	// Returns:
	//   - *wgpu.Buffer: the particle storage buffer
	ParticleBuffer(parity int) *wgpu.Buffer

	// Parity returns the index of the particle buffer holding the most recent
	// sub-step's reordered output. Rendering should bind this buffer.
	//
	// Returns:
	//   - int: the current buffer parity (0 or 1)
	Parity() int
}

// gpuPipeline runs the six compute passes on the GPU via the renderer.
//
// Particle storage is double buffered. A sub-step integrates and bins out of
// the current-parity buffer, reorders into the opposite buffer, then runs the
// remaining passes against the reordered copy. Parity flips once per sub-step
// so the renderer always sees a fully reordered buffer.
type gpuPipeline struct {
	mu *sync.Mutex

	r        renderer.Renderer
	grid     Grid
	capacity int
	parity   int

	// Device buffers owned by the pipeline and shared across pass providers.
	paramsBuf    *wgpu.Buffer
	particleBufs [2]*wgpu.Buffer
	linkBuf      *wgpu.Buffer
	gridBuf      *wgpu.Buffer
	counterBuf   *wgpu.Buffer
	fieldView    *wgpu.TextureView
	fieldSampler *wgpu.Sampler

	clearProv     bind_group_provider.BindGroupProvider
	integrateProv [2]bind_group_provider.BindGroupProvider
	rangesProv    bind_group_provider.BindGroupProvider
	reorderProv   [2]bind_group_provider.BindGroupProvider
	fieldProv     [2]bind_group_provider.BindGroupProvider
	densityProv   [2]bind_group_provider.BindGroupProvider
	forcesProv    [2]bind_group_provider.BindGroupProvider

	// stageProv resolves queue writes to the shared buffers; it never builds a
	// bind group. Binding 0 is the params buffer, 1 the parity particle buffer,
	// 2 the cell range counter.
	stageProv [2]bind_group_provider.BindGroupProvider

	registered map[string]bool
	groupSize  map[string][3]uint32
}

var _ GPUPipeline = &gpuPipeline{}

// NewGPUPipeline creates the GPU compute pipeline for the given grid and
// particle capacity. The capacity is rounded up to the buffer allocation
// granularity. Passes whose shaders fail to build are logged once and skipped
// on every subsequent Step; buffer allocation failures are fatal.
//
// Parameters:
//   - r: the renderer providing device access
//   - grid: the uniform grid the passes bin particles into
//   - capacity: the maximum particle count to allocate device storage for
//
// Returns:
//   - GPUPipeline: the initialized pipeline
//   - error: an error if device buffer or bind group creation fails
func NewGPUPipeline(r renderer.Renderer, grid Grid, capacity int) (GPUPipeline, error) {
	p := &gpuPipeline{
		mu:         &sync.Mutex{},
		r:          r,
		grid:       grid,
		capacity:   RoundCapacity(capacity),
		registered: make(map[string]bool),
		groupSize:  make(map[string][3]uint32),
	}

	if err := p.initBuffers(); err != nil {
		return nil, fmt.Errorf("sim: failed to allocate device buffers: %w", err)
	}

	shaders := p.registerPasses()

	if err := p.initProviders(shaders); err != nil {
		return nil, fmt.Errorf("sim: failed to initialize bind groups: %w", err)
	}

	return p, nil
}

func (p *gpuPipeline) initBuffers() error {
	var err error
	storage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst

	p.paramsBuf, err = p.r.InitStorageBuffer("SPH Params", uint64((&GPUSimParams{}).Size()), wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	for i := range p.particleBufs {
		p.particleBufs[i], err = p.r.InitStorageBuffer(fmt.Sprintf("SPH Particles %d", i), uint64(p.capacity*particle.Stride), storage)
		if err != nil {
			return err
		}
	}
	p.linkBuf, err = p.r.InitStorageBuffer("SPH Links", uint64(p.capacity*4), storage)
	if err != nil {
		return err
	}
	p.gridBuf, err = p.r.InitStorageBuffer("SPH Grid", uint64(p.grid.CellCount()*4), storage)
	if err != nil {
		return err
	}
	p.counterBuf, err = p.r.InitStorageBuffer("SPH Cell Range Counter", 4, storage)
	if err != nil {
		return err
	}

	for i := range p.stageProv {
		prov := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("SPH Staging %d", i), bind_group_provider.WithSharedResources())
		prov.SetBuffer(0, p.paramsBuf)
		prov.SetBuffer(1, p.particleBufs[i])
		prov.SetBuffer(2, p.counterBuf)
		p.stageProv[i] = prov
	}

	return nil
}

// registerPasses builds and registers the compute shaders and pipelines.
// A pass that fails to build is logged and left unregistered, which turns its
// dispatch into a no-op rather than failing the whole simulation.
func (p *gpuPipeline) registerPasses() map[string]shader.Shader {
	passes := []struct {
		key    string
		source string
	}{
		{PipelineKeyGridClear, wgslGridClear},
		{PipelineKeyIntegrateBin, wgslIntegrateBin},
		{PipelineKeyCellRanges, wgslCellRanges},
		{PipelineKeyReorder, wgslReorder},
		{PipelineKeyVelocityField, wgslVelocityField},
		{PipelineKeyDensityPressure, wgslDensityPressure},
		{PipelineKeyForces, wgslForces},
	}

	shaders := make(map[string]shader.Shader, len(passes))
	for _, pass := range passes {
		shd, err := shader.NewShader(pass.key, shader.ShaderTypeCompute, pass.source)
		if err != nil {
			log.Printf("sim: compute pass %q unavailable, skipping: %v", pass.key, err)
			continue
		}
		pl := pipeline.NewPipeline(pass.key, pipeline.PipelineTypeCompute, pipeline.WithComputeShader(shd))
		if err := p.r.RegisterPipelines(pl); err != nil {
			log.Printf("sim: compute pass %q failed to register, skipping: %v", pass.key, err)
			continue
		}
		shaders[pass.key] = shd
		p.registered[pass.key] = true
		p.groupSize[pass.key] = shd.WorkgroupSize()
	}
	return shaders
}

func (p *gpuPipeline) initProviders(shaders map[string]shader.Shader) error {
	fieldStaging := common.Texture3DStagingData{
		Width:  p.grid.Res[0],
		Height: p.grid.Res[1],
		Depth:  p.grid.Res[2],
		Format: wgpu.TextureFormatRGBA16Float,
	}
	samplerStaging := common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
	}

	build := func(label, key string, k int, bufs map[int]*wgpu.Buffer, fieldBinding, samplerBinding int) (bind_group_provider.BindGroupProvider, error) {
		shd, ok := shaders[key]
		if !ok {
			return nil, nil
		}
		prov := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s %d", label, k), bind_group_provider.WithSharedResources())
		prov.SetBuffers(bufs)
		if fieldBinding >= 0 {
			if p.fieldView == nil {
				if err := p.r.InitTexture3DView(prov, fieldBinding, fieldStaging); err != nil {
					return nil, err
				}
				p.fieldView = prov.TextureView(fieldBinding)
			} else {
				prov.SetTextureView(fieldBinding, p.fieldView)
			}
		}
		if samplerBinding >= 0 {
			if p.fieldSampler == nil {
				if err := p.r.InitSampler(prov, samplerBinding, samplerStaging); err != nil {
					return nil, err
				}
				p.fieldSampler = prov.Sampler(samplerBinding)
			} else {
				prov.SetSampler(samplerBinding, p.fieldSampler)
			}
		}
		if err := p.r.InitBindGroup(prov, shd.BindGroupLayoutDescriptor(0), nil, nil); err != nil {
			return nil, err
		}
		return prov, nil
	}

	var err error
	if p.clearProv, err = build("SPH Grid Clear", PipelineKeyGridClear, 0,
		map[int]*wgpu.Buffer{0: p.paramsBuf, 1: p.gridBuf}, -1, -1); err != nil {
		return err
	}
	if p.rangesProv, err = build("SPH Cell Ranges", PipelineKeyCellRanges, 0,
		map[int]*wgpu.Buffer{0: p.paramsBuf, 1: p.linkBuf, 2: p.gridBuf, 3: p.counterBuf}, -1, -1); err != nil {
		return err
	}

	for k := range 2 {
		if p.integrateProv[k], err = build("SPH Integrate", PipelineKeyIntegrateBin, k,
			map[int]*wgpu.Buffer{0: p.paramsBuf, 1: p.particleBufs[k], 2: p.linkBuf, 3: p.gridBuf}, -1, -1); err != nil {
			return err
		}
		if p.reorderProv[k], err = build("SPH Reorder", PipelineKeyReorder, k,
			map[int]*wgpu.Buffer{0: p.paramsBuf, 1: p.particleBufs[k], 2: p.linkBuf, 3: p.particleBufs[1-k]}, -1, -1); err != nil {
			return err
		}
		if p.fieldProv[k], err = build("SPH Velocity Field", PipelineKeyVelocityField, k,
			map[int]*wgpu.Buffer{0: p.paramsBuf, 1: p.particleBufs[k], 2: p.gridBuf}, 3, -1); err != nil {
			return err
		}
		if p.densityProv[k], err = build("SPH Density Pressure", PipelineKeyDensityPressure, k,
			map[int]*wgpu.Buffer{0: p.paramsBuf, 1: p.particleBufs[k], 2: p.gridBuf}, -1, -1); err != nil {
			return err
		}
		if p.forcesProv[k], err = build("SPH Forces", PipelineKeyForces, k,
			map[int]*wgpu.Buffer{0: p.paramsBuf, 1: p.particleBufs[k], 2: p.gridBuf}, 3, 4); err != nil {
			return err
		}
	}

	return nil
}

func (p *gpuPipeline) Upload(offset int, ps []particle.Particle) {
	if len(ps) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: p.stageProv[p.parity],
		Binding:  1,
		Offset:   uint64(offset * particle.Stride),
		Data:     common.SliceToBytes(ps),
	}})
}

func (p *gpuPipeline) Step(in StepInput) {
	if in.Count <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	params := GPUSimParams{
		BoxMin:        p.grid.BoxMin,
		ParticleCount: uint32(in.Count),
		BoxMax:        p.grid.BoxMax,
		GridRes:       p.grid.Res,
		InvCellSize:   p.grid.InvCellSize,
		Gravity:       in.Gravity,
		DT:            DT,
	}
	if in.FilteredViscosity {
		params.FilteredViscosity = 1
	}
	if in.Impulse != nil {
		params.ImpulseCenter = in.Impulse.Center
		params.ImpulseRadius = in.Impulse.Radius
		params.ImpulseVelocity = in.Impulse.Velocity
		params.ImpulseActive = 1
	}

	stage := p.stageProv[p.parity]
	p.r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: stage, Binding: 0, Data: params.Marshal()},
		{Provider: stage, Binding: 2, Data: []byte{0, 0, 0, 0}},
	})

	if err := p.r.BeginComputeFrame(); err != nil {
		log.Printf("sim: failed to begin compute frame: %v", err)
		return
	}

	count := uint32(in.Count)
	p.dispatchGrid(PipelineKeyGridClear, p.clearProv)
	p.dispatchLinear(PipelineKeyIntegrateBin, p.integrateProv[p.parity], count)
	p.dispatchGrid(PipelineKeyCellRanges, p.rangesProv)
	p.dispatchLinear(PipelineKeyReorder, p.reorderProv[p.parity], count)

	// The reorder pass wrote the opposite buffer; the remaining passes and the
	// renderer read from it.
	p.parity = 1 - p.parity

	if in.FilteredViscosity {
		p.dispatchGrid(PipelineKeyVelocityField, p.fieldProv[p.parity])
	}
	p.dispatchLinear(PipelineKeyDensityPressure, p.densityProv[p.parity], count)
	p.dispatchLinear(PipelineKeyForces, p.forcesProv[p.parity], count)

	p.r.EndComputeFrame()
}

// dispatchGrid dispatches one thread per grid cell for the given pass.
func (p *gpuPipeline) dispatchGrid(key string, prov bind_group_provider.BindGroupProvider) {
	if !p.registered[key] || prov == nil {
		return
	}
	wg := p.groupSize[key]
	p.r.DispatchCompute(key, prov, [3]uint32{
		ceilDiv(p.grid.Res[0], wg[0]),
		ceilDiv(p.grid.Res[1], wg[1]),
		ceilDiv(p.grid.Res[2], wg[2]),
	})
}

// dispatchLinear dispatches one thread per particle for the given pass.
func (p *gpuPipeline) dispatchLinear(key string, prov bind_group_provider.BindGroupProvider, count uint32) {
	if !p.registered[key] || prov == nil {
		return
	}
	wg := p.groupSize[key]
	p.r.DispatchCompute(key, prov, [3]uint32{ceilDiv(count, wg[0]), 1, 1})
}

// Snapshot returns nil: particle state lives on the device and is consumed
// directly by the renderer, never read back to the host.
func (p *gpuPipeline) Snapshot() []particle.Particle {
	return nil
}

func (p *gpuPipeline) ParticleBuffer(parity int) *wgpu.Buffer {
	return p.particleBufs[parity&1]
}

func (p *gpuPipeline) Parity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.parity
}

func (p *gpuPipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	provs := []bind_group_provider.BindGroupProvider{p.clearProv, p.rangesProv}
	for k := range 2 {
		provs = append(provs, p.integrateProv[k], p.reorderProv[k], p.fieldProv[k], p.densityProv[k], p.forcesProv[k])
	}
	for _, prov := range provs {
		if prov != nil {
			prov.Release()
		}
	}

	if p.fieldSampler != nil {
		p.fieldSampler.Release()
		p.fieldSampler = nil
	}
	if p.fieldView != nil {
		p.fieldView.Release()
		p.fieldView = nil
	}
	for _, buf := range []*wgpu.Buffer{p.paramsBuf, p.particleBufs[0], p.particleBufs[1], p.linkBuf, p.gridBuf, p.counterBuf} {
		if buf != nil {
			buf.Release()
		}
	}
	p.paramsBuf, p.linkBuf, p.gridBuf, p.counterBuf = nil, nil, nil, nil
	p.particleBufs = [2]*wgpu.Buffer{}
}

func ceilDiv(n, d uint32) uint32 {
	if d == 0 {
		return 0
	}
	return (n + d - 1) / d
}

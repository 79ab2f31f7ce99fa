// Command watersim runs the interactive SPH water simulation: a GLFW window,
// a WebGPU renderer, and the fixed-timestep fluid system wired into the
// engine's tick and render loops.
package main

import (
	"flag"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/kaltas21/WaterSimulation/common"
	"github.com/kaltas21/WaterSimulation/config"
	"github.com/kaltas21/WaterSimulation/engine"
	"github.com/kaltas21/WaterSimulation/engine/camera"
	"github.com/kaltas21/WaterSimulation/engine/renderer"
	"github.com/kaltas21/WaterSimulation/engine/window"
	"github.com/kaltas21/WaterSimulation/render"
	"github.com/kaltas21/WaterSimulation/sim"
)

const (
	// impulseRadius is the world-space radius of the sphere impulse cast on click.
	impulseRadius = 0.5
	// impulseSpeed is the peak velocity added at the impulse center, in m/s.
	impulseSpeed = 4.0
	// spoutBatch is the number of particles added per spout key press.
	spoutBatch = 256
	// diagnosticsInterval spaces out the periodic particle statistics log line.
	diagnosticsInterval = 5 * time.Second
)

func init() {
	// GLFW and the WebGPU surface must stay on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file overlaying the built-in defaults")
	cpuFlag := flag.Bool("cpu", false, "force the CPU reference pipeline instead of GPU compute")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("watersim: %v", err)
	}

	win := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
	)

	rendOpts := []renderer.RendererBuilderOption{}
	if cfg.Render.PresentMode == "uncapped" {
		rendOpts = append(rendOpts, renderer.WithPresentMode(renderer.PresentModeUncapped))
	}
	rend := renderer.NewRenderer(renderer.BackendTypeWGPU, win, rendOpts...)

	boxMin, boxMax := cfg.Simulation.BoxMin, cfg.Simulation.BoxMax
	center := common.Scale3(common.Add3(boxMin, boxMax), 0.5)
	ctrl := camera.NewOrbitController(
		camera.WithTarget(center[0], center[1], center[2]),
		camera.WithRadius(common.Length3(common.Sub3(boxMax, boxMin))*0.9),
	)
	cam := camera.NewCamera(
		camera.WithController(ctrl),
		camera.WithAspect(float32(win.Width())/float32(win.Height())),
	)

	grid := sim.NewGrid(boxMin, boxMax)
	capacity := sim.RoundCapacity(cfg.Simulation.Capacity)

	var (
		pipe         sim.Pipeline
		gpuPipe      sim.GPUPipeline
		particleBufs [2]*wgpu.Buffer
	)
	useCPU := cfg.Simulation.CPU || *cpuFlag
	if !useCPU {
		gp, gpErr := sim.NewGPUPipeline(rend, grid, capacity)
		if gpErr != nil {
			log.Printf("watersim: GPU pipeline unavailable, falling back to CPU: %v", gpErr)
			useCPU = true
		} else {
			gpuPipe = gp
			pipe = gp
			particleBufs = [2]*wgpu.Buffer{gp.ParticleBuffer(0), gp.ParticleBuffer(1)}
		}
	}
	if useCPU {
		pipe = sim.NewCPUPipeline(grid, capacity)
	}

	sys := sim.NewSystem(pipe, boxMin, boxMax, capacity,
		sim.WithGravity(cfg.Simulation.Gravity),
		sim.WithMaxSubSteps(cfg.Simulation.MaxSubSteps),
	)
	defer sys.Release()
	sys.SetFilteredViscosity(cfg.Simulation.FilteredViscosity)
	colorMode, _ := cfg.ParsedColorMode()
	sys.SetColorMode(colorMode)
	sys.Reset(cfg.Simulation.Particles)

	viewOpts := []render.FluidViewOption{}
	if cfg.Render.ParticleRadius > 0 {
		viewOpts = append(viewOpts, render.WithParticleDrawRadius(cfg.Render.ParticleRadius))
	}
	view, err := render.NewFluidView(rend, cam, boxMin, boxMax, capacity, particleBufs, viewOpts...)
	if err != nil {
		log.Fatalf("watersim: %v", err)
	}
	defer view.Release()

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithTickRate(float64(cfg.Engine.TickRate)),
		engine.WithProfiling(cfg.Engine.Profiler),
		engine.WithRenderFrameLimit(float64(cfg.Engine.FrameLimit)),
	)

	var paused atomic.Bool

	win.SetResizeCallback(func(width, height int) {
		if width <= 0 || height <= 0 {
			return
		}
		rend.Resize(width, height)
		cam.SetAspect(float32(width) / float32(height))
	})

	win.SetScrollCallback(func(delta float32) {
		ctrl.Zoom(delta)
	})

	var (
		orbiting     bool
		lastX, lastY int32
		pushing      bool
		pushX, pushY int32
	)
	win.SetMiddleMouseDownCallback(func(x, y int32) {
		orbiting = true
		lastX, lastY = x, y
	})
	win.SetMiddleMouseUpCallback(func(x, y int32) {
		orbiting = false
	})
	win.SetMouseMoveCallback(func(x, y int32) {
		if pushing {
			pushX, pushY = x, y
		}
		if !orbiting {
			return
		}
		dx := float32(x - lastX)
		dy := float32(y - lastY)
		lastX, lastY = x, y
		sens := ctrl.MouseSensitivity()
		ctrl.SetAzimuth(ctrl.Azimuth() - dx*sens)
		ctrl.SetElevation(ctrl.Elevation() + dy*sens)
	})

	// castImpulse pushes fluid where the cursor's pick ray enters the tank.
	castImpulse := func(x, y int32) {
		origin, dir := pickRay(cam, win.Width(), win.Height(), x, y)
		t, hit := rayBox(origin, dir, boxMin, boxMax)
		if !hit {
			return
		}
		impulseCenter := common.Add3(origin, common.Scale3(dir, t+impulseRadius*0.5))
		sys.ApplyImpulse(impulseCenter, common.Scale3(dir, impulseSpeed), impulseRadius)
	}

	// The impulse is re-cast every tick while the button stays held, so
	// dragging sweeps the push through the fluid.
	win.SetLeftMouseDownCallback(func(x, y int32) {
		pushing = true
		pushX, pushY = x, y
		castImpulse(x, y)
	})
	win.SetLeftMouseUpCallback(func(x, y int32) {
		pushing = false
	})

	win.SetKeyDownCallback(func(keyCode uint32) {
		switch keyCode {
		case common.KeyC:
			sys.SetColorMode(sys.ColorMode().Cycle())
		case common.KeyE:
			if dropped := sys.AddParticles(sim.Spout(boxMin, boxMax, spoutBatch)); dropped > 0 {
				log.Printf("watersim: tank at capacity, dropped %d spout particles", dropped)
			}
		case common.KeyR:
			sys.Reset(cfg.Simulation.Particles)
		case common.KeyG:
			g := sys.Gravity()
			g[1] = -g[1]
			sys.SetGravity(g)
		case common.KeyF:
			sys.SetFilteredViscosity(!sys.FilteredViscosity())
		case common.KeySpace:
			paused.Store(!paused.Load())
		}
	})

	lastDiagnostics := time.Now()
	eng.SetTickCallback(func(deltaTime float32) {
		if paused.Load() {
			return
		}
		if pushing {
			castImpulse(pushX, pushY)
		}
		steps := sys.Update(float64(deltaTime))
		eng.Profiler().RecordSubSteps(steps)

		if time.Since(lastDiagnostics) >= diagnosticsInterval {
			lastDiagnostics = time.Now()
			if snapshot := sys.Snapshot(); snapshot != nil {
				log.Printf("watersim: %s", sim.Collect(snapshot))
			}
		}
	})

	var renderFailed atomic.Bool
	eng.SetRenderCallback(func(deltaTime float32) {
		cam.Update()
		in := render.FrameInput{
			Count:     sys.ParticleCount(),
			ColorMode: sys.ColorMode(),
		}
		if gpuPipe != nil {
			in.Parity = gpuPipe.Parity()
		} else {
			in.Particles = sys.Snapshot()
		}
		if err := view.Frame(in); err != nil {
			if !renderFailed.Swap(true) {
				log.Printf("watersim: frame failed: %v", err)
			}
		} else {
			renderFailed.Store(false)
		}
	})

	log.Printf("watersim: %d particles, %s pipeline, box %v..%v",
		sys.ParticleCount(), pipelineName(useCPU), boxMin, boxMax)
	eng.Run()
}

func pipelineName(cpu bool) string {
	if cpu {
		return "CPU"
	}
	return "GPU"
}

// pickRay unprojects a screen coordinate into a world-space ray.
func pickRay(cam camera.Camera, width, height int, x, y int32) (origin, dir [3]float32) {
	ndcX := 2*float32(x)/float32(width) - 1
	ndcY := 1 - 2*float32(y)/float32(height)
	inv := cam.InverseViewProjectionMatrix()
	near := unproject(inv, ndcX, ndcY, 0)
	far := unproject(inv, ndcX, ndcY, 1)
	return near, common.Normalize3(common.Sub3(far, near))
}

// unproject applies a column-major inverse view-projection matrix to an NDC
// point and performs the perspective divide.
func unproject(m [16]float32, x, y, z float32) [3]float32 {
	var out [4]float32
	v := [4]float32{x, y, z, 1}
	for r := range 4 {
		out[r] = m[r]*v[0] + m[4+r]*v[1] + m[8+r]*v[2] + m[12+r]*v[3]
	}
	if out[3] != 0 {
		s := 1 / out[3]
		return [3]float32{out[0] * s, out[1] * s, out[2] * s}
	}
	return [3]float32{out[0], out[1], out[2]}
}

// rayBox intersects a ray with an axis-aligned box using the slab method.
// Returns the entry distance along the ray, clamped to zero when the origin
// is inside the box.
func rayBox(origin, dir, boxMin, boxMax [3]float32) (float32, bool) {
	tMin := float32(0)
	tMax := float32(1e30)
	for axis := range 3 {
		if dir[axis] == 0 {
			if origin[axis] < boxMin[axis] || origin[axis] > boxMax[axis] {
				return 0, false
			}
			continue
		}
		invD := 1 / dir[axis]
		t0 := (boxMin[axis] - origin[axis]) * invD
		t1 := (boxMax[axis] - origin[axis]) * invD
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = max(tMin, t0)
		tMax = min(tMax, t1)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

// pre_processor.go implements the WGSL shader pre-processor. It scans shader
// source for @sph:include annotations and replaces them with the canonical WGSL
// snippet registered under the given key, so struct layouts and kernel math are
// defined exactly once on the Go side and injected into every shader that needs
// them.
//
// An include annotation is a single-line WGSL comment:
//
//	//@sph:include <key>
//
// Unknown keys and malformed annotations are reported with their source line.
package shader

import (
	"fmt"
	"strings"

	"github.com/kaltas21/WaterSimulation/engine/camera"
	"github.com/kaltas21/WaterSimulation/sim/particle"
)

// annotationPrefix identifies a pre-processor directive within a WGSL comment line.
const annotationPrefix = "@sph:"

// IncludeKey names a registered WGSL snippet.
type IncludeKey string

const (
	// IncludeParticle injects the Particle struct definition.
	// Source: sim/particle/assets/particle.wgsl
	IncludeParticle IncludeKey = "particle"

	// IncludeKernels injects the SPH kernel constants and weight functions.
	// Source: sim/particle/assets/sph_kernels.wgsl
	IncludeKernels IncludeKey = "kernels"

	// IncludeGrid injects the uniform grid cell addressing helpers.
	// Source: sim/particle/assets/sph_grid.wgsl
	IncludeGrid IncludeKey = "grid"

	// IncludeParams injects the SimParams uniform struct definition.
	// Source: sim/particle/assets/sph_params.wgsl
	IncludeParams IncludeKey = "params"

	// IncludeCamera injects the CameraUniform struct definition.
	// Source: engine/camera/assets/camera_uniform.wgsl
	IncludeCamera IncludeKey = "camera"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// registry maps include keys to their embedded WGSL snippet sources.
	registry map[IncludeKey]string
}

// PreProcessor expands @sph:include annotations in raw WGSL shader source,
// injecting the registered snippet at the annotation site.
type PreProcessor interface {
	// Process takes raw WGSL shader source code and replaces every
	// @sph:include annotation with the registered snippet for its key.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code
	//
	// Returns:
	//   - string: the processed WGSL shader source code
	//   - error: an error if an annotation is malformed or references an unknown key
	Process(source string) (string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with all shared WGSL snippets
// registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		registry: map[IncludeKey]string{
			IncludeParticle: particle.WGSLParticleSource,
			IncludeKernels:  particle.WGSLKernelsSource,
			IncludeGrid:     particle.WGSLGridSource,
			IncludeParams:   particle.WGSLParamsSource,
			IncludeCamera:   camera.GPUCameraUniformSource,
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		key, ok, err := parseInclude(line, i+1)
		if err != nil {
			return "", err
		}
		if !ok {
			out = append(out, line)
			continue
		}

		snippet, known := p.registry[key]
		if !known {
			return "", fmt.Errorf("line %d: unknown @sph:include key %q", i+1, key)
		}
		out = append(out, snippet)
	}
	return strings.Join(out, "\n"), nil
}

// parseInclude checks whether a source line is an include annotation and
// extracts its key. Returns ok=false for ordinary source lines.
func parseInclude(line string, lineNo int) (IncludeKey, bool, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return "", false, nil
	}
	body := strings.TrimSpace(strings.TrimPrefix(trimmed, "//"))
	if !strings.HasPrefix(body, annotationPrefix) {
		return "", false, nil
	}

	fields := strings.Fields(strings.TrimPrefix(body, annotationPrefix))
	if len(fields) != 2 || fields[0] != "include" {
		return "", false, fmt.Errorf("line %d: malformed annotation %q, expected //@sph:include <key>", lineNo, trimmed)
	}
	return IncludeKey(fields[1]), true, nil
}

package gpu

import (
	"fmt"

	_ "embed"

	"github.com/gogpu/naga"
)

// Embedded WGSL kernel sources, one per pipeline stage, compiled in at
// build time exactly as the teacher embeds its shaders/*.wgsl files in
// internal/gpu/shaders.go.

//go:embed shaders/project.wgsl
var projectShaderSource string

//go:embed shaders/bin.wgsl
var binShaderSource string

//go:embed shaders/scan.wgsl
var scanShaderSource string

//go:embed shaders/sortkey.wgsl
var sortkeyShaderSource string

//go:embed shaders/raster.wgsl
var rasterShaderSource string

// KernelModules names the five compute kernels a full GPU implementation
// compiles, one per stage of spec.md §2.
type KernelModules struct {
	Project ShaderModuleID
	Bin     ShaderModuleID
	Scan    ShaderModuleID
	Sortkey ShaderModuleID
	Raster  ShaderModuleID
}

// ShaderModuleID is a placeholder compiled-shader handle, mirroring the
// teacher's own placeholder (internal/gpu/shaders.go's ShaderModuleID)
// pending a real core.ShaderModuleID once shader compilation is wired to
// an actual adapter/device pair.
type ShaderModuleID uint64

// InvalidShaderModule represents an invalid/uninitialized shader module.
const InvalidShaderModule ShaderModuleID = 0

// IsValid reports whether every kernel module has been compiled.
func (k *KernelModules) IsValid() bool {
	return k.Project != InvalidShaderModule &&
		k.Bin != InvalidShaderModule &&
		k.Scan != InvalidShaderModule &&
		k.Sortkey != InvalidShaderModule &&
		k.Raster != InvalidShaderModule
}

// kernelSource returns the WGSL source for a named kernel, used by
// CompileKernels to validate every source parses before a real pipeline
// would compile it.
func kernelSource(name string) (string, bool) {
	switch name {
	case "project":
		return projectShaderSource, true
	case "bin":
		return binShaderSource, true
	case "scan":
		return scanShaderSource, true
	case "sortkey":
		return sortkeyShaderSource, true
	case "raster":
		return rasterShaderSource, true
	default:
		return "", false
	}
}

// CompileKernels validates every embedded kernel source parses as WGSL
// via naga.Compile and returns stub module handles, following the
// teacher's CompileShaders (internal/gpu/shaders.go): naga is a
// device-independent frontend, so this validation runs with no adapter
// or device present. A real adapter/device pair would take naga's
// SPIR-V output and hand it to core.CreateShaderModule here; until that
// wiring lands, this hands back placeholder IDs so callers can still
// exercise the rest of the GPU backend's dispatch plumbing.
func CompileKernels() (*KernelModules, error) {
	names := []string{"project", "bin", "scan", "sortkey", "raster"}
	for _, n := range names {
		src, ok := kernelSource(n)
		if !ok || src == "" {
			return nil, fmt.Errorf("gpu: %s kernel source is empty", n)
		}
		if _, err := naga.Compile(src); err != nil {
			return nil, fmt.Errorf("gpu: %s kernel failed to parse: %w", n, err)
		}
	}
	return &KernelModules{
		Project: ShaderModuleID(1),
		Bin:     ShaderModuleID(2),
		Scan:    ShaderModuleID(3),
		Sortkey: ShaderModuleID(4),
		Raster:  ShaderModuleID(5),
	}, nil
}

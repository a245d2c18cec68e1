package splatcore

import (
	"errors"
	"sync"
)

// Backend name constants.
const (
	// BackendCPU is the name of the always-available CPU backend.
	BackendCPU = "cpu"
	// BackendGPU is the name of the GPU compute backend. It is only
	// registered when the gpu package is imported (see gpu/backend.go).
	BackendGPU = "gpu"
)

// ErrBackendNotAvailable is returned when a requested backend name has no
// registered factory.
var ErrBackendNotAvailable = errors.New("splatcore: backend not available")

// Backend executes the five-stage pipeline of spec.md §2 for one frame.
// The CPU backend (backend_cpu.go) is the reference implementation; a GPU
// backend registers itself under BackendGPU via a blank import of the gpu
// package, mirroring the teacher's GPUAccelerator/RegisterAccelerator
// pattern (accelerator.go) and backend registry (backend/registry.go).
//
// Implementations must produce framebuffers identical to the CPU backend
// up to the tiebreak-collision class described in spec.md §5 and §8.
type Backend interface {
	// Name returns the backend identifier ("cpu", "gpu").
	Name() string

	// Render executes one frame of the five-stage pipeline and returns
	// per-frame diagnostics.
	Render(frame *Frame) (Stats, error)
}

// BackendFactory creates a new Backend instance.
type BackendFactory func() Backend

var (
	backendMu      sync.RWMutex
	backendFactory = make(map[string]BackendFactory)
	activeBackend  Backend // last backend constructed via resolveBackend, used by SetLogger
)

// RegisterBackend registers a backend factory under name. Typically called
// from an init() function in a backend package (see gpu/backend.go).
// Registering under an already-used name replaces the previous factory.
func RegisterBackend(name string, factory BackendFactory) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backendFactory[name] = factory
}

// AvailableBackends returns the names of all registered backends.
func AvailableBackends() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()
	names := make([]string, 0, len(backendFactory))
	for name := range backendFactory {
		names = append(names, name)
	}
	return names
}

func init() {
	RegisterBackend(BackendCPU, func() Backend { return newCPUBackend() })
}

// resolveBackend constructs the named backend, falling back to
// BackendCPU and logging a warning if the name is unregistered.
func resolveBackend(name string) Backend {
	backendMu.RLock()
	factory, ok := backendFactory[name]
	backendMu.RUnlock()

	if !ok {
		if name != "" && name != BackendCPU {
			Logger().Warn("splatcore: backend not registered, falling back to cpu", "requested", name)
		}
		backendMu.RLock()
		factory = backendFactory[BackendCPU]
		backendMu.RUnlock()
	}

	b := factory()

	backendMu.Lock()
	activeBackend = b
	backendMu.Unlock()

	return b
}

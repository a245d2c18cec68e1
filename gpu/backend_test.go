package gpu

import (
	"math"
	"testing"

	"github.com/termsplat/splatcore"
)

func identityTestCamera(width, height int) splatcore.Camera {
	fx, fy := splatcore.FocalLengths(float32(math.Pi)/2, width, height)
	return splatcore.Camera{
		Position:   splatcore.Vec3{Z: -5},
		Right:      splatcore.Vec3{X: 1},
		Up:         splatcore.Vec3{Y: 1},
		Forward:    splatcore.Vec3{Z: 1},
		FX:         fx,
		FY:         fy,
		HalfWidth:  float32(width) / 2,
		HalfHeight: float32(height) / 2,
		Near:       0.01,
		Far:        1000,
	}
}

func TestBackendName(t *testing.T) {
	b := newBackend()
	if b.Name() != splatcore.BackendGPU {
		t.Errorf("Name() = %q, want %q", b.Name(), splatcore.BackendGPU)
	}
}

func TestBackendRegistersUnderGPU(t *testing.T) {
	found := false
	for _, name := range splatcore.AvailableBackends() {
		if name == splatcore.BackendGPU {
			found = true
		}
	}
	if !found {
		t.Error("gpu backend not found in splatcore.AvailableBackends() after importing this package")
	}
}

func TestBackendSetLoggerIgnoresNil(t *testing.T) {
	b := newBackend()
	b.SetLogger(nil)
	if b.logger() == nil {
		t.Error("logger() returned nil after SetLogger(nil); should fall back to splatcore.Logger()")
	}
}

func TestBackendRenderMatchesCPU(t *testing.T) {
	splats := []splatcore.Splat{
		{Position: splatcore.Vec3{}, Scale: splatcore.Vec3{X: 0.2, Y: 0.2, Z: 0.2}, Rotation: splatcore.Quat{W: 1}, Opacity: 1, Color: 0xFFFFFFFF},
		{Position: splatcore.Vec3{X: 0.5, Z: 0.3}, Scale: splatcore.Vec3{X: 0.15, Y: 0.15, Z: 0.15}, Rotation: splatcore.Quat{W: 1}, Opacity: 0.7, Color: 0xFF0000FF},
	}
	cam := identityTestCamera(32, 32)

	cpuPipeline := splatcore.NewPipeline(32, 32, splatcore.WithBackend(splatcore.BackendCPU))
	cpuStats, err := cpuPipeline.Render(splats, cam)
	if err != nil {
		t.Fatalf("cpu Render: %v", err)
	}

	gpuPipeline := splatcore.NewPipeline(32, 32, splatcore.WithBackend(splatcore.BackendGPU))
	if gpuPipeline.Backend() != splatcore.BackendGPU {
		t.Fatalf("gpuPipeline.Backend() = %q, want %q", gpuPipeline.Backend(), splatcore.BackendGPU)
	}
	gpuStats, err := gpuPipeline.Render(splats, cam)
	if err != nil {
		t.Fatalf("gpu Render: %v", err)
	}

	if gpuStats.EmittedSplats != cpuStats.EmittedSplats {
		t.Errorf("EmittedSplats = %d, want %d (cpu)", gpuStats.EmittedSplats, cpuStats.EmittedSplats)
	}

	cpuFB := cpuPipeline.Framebuffer()
	gpuFB := gpuPipeline.Framebuffer()
	for i := range cpuFB {
		if cpuFB[i] != gpuFB[i] {
			t.Fatalf("pixel %d differs: cpu=%#x gpu=%#x", i, cpuFB[i], gpuFB[i])
		}
	}
}

func TestBackendRenderEmptyScene(t *testing.T) {
	b := newBackend()
	var frame splatcore.Frame
	frame.Width, frame.Height = 8, 8
	frame.Config = splatcore.DefaultConfig()

	stats, err := b.Render(&frame)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if stats.Backend != splatcore.BackendGPU {
		t.Errorf("Stats.Backend = %q, want %q", stats.Backend, splatcore.BackendGPU)
	}
	if stats.EmittedSplats != 0 {
		t.Errorf("EmittedSplats = %d, want 0", stats.EmittedSplats)
	}
}

package splatcore

import "fmt"

// Pipeline renders 3D Gaussian Splatting scenes into a packed RGBA
// framebuffer, reusing its scratch buffers across calls to Render
// (spec.md §3's frame-scope lifecycle). A Pipeline is not safe for
// concurrent use by multiple goroutines; render one frame at a time.
type Pipeline struct {
	width, height int
	config        Config
	backend       Backend
	frame         Frame
}

// NewPipeline constructs a Pipeline targeting a width x height
// framebuffer, applying opts over DefaultConfig. If opts select an
// unregistered backend, the Pipeline falls back to BackendCPU and logs a
// warning (see resolveBackend).
func NewPipeline(width, height int, opts ...Option) *Pipeline {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	backend := resolveBackend(cfg.BackendName)
	cfg.BackendName = backend.Name()

	p := &Pipeline{
		width:   width,
		height:  height,
		config:  cfg,
		backend: backend,
	}
	p.frame.Width = width
	p.frame.Height = height
	p.frame.Config = cfg
	return p
}

// Render executes one frame of the pipeline against splats and camera,
// returning per-stage diagnostics (spec.md §2). The returned Stats is
// valid only until the next call to Render.
func (p *Pipeline) Render(splats []Splat, camera Camera) (Stats, error) {
	if p.width <= 0 || p.height <= 0 {
		return Stats{}, fmt.Errorf("splatcore: invalid framebuffer size %dx%d", p.width, p.height)
	}

	p.frame.Splats = splats
	p.frame.Camera = camera
	p.frame.Config = p.config

	stats, err := p.backend.Render(&p.frame)
	if err != nil {
		return stats, err
	}
	Logger().Debug("splatcore: frame rendered",
		"backend", stats.Backend,
		"emitted_splats", stats.EmittedSplats,
		"total_overlaps", stats.TotalOverlaps,
		"overflow", stats.Overflow,
		"project_ns", stats.ProjectTime,
		"bin_ns", stats.BinTime,
		"scan_ns", stats.ScanTime,
		"sort_ns", stats.SortTime,
		"raster_ns", stats.RasterTime)
	return stats, nil
}

// Framebuffer returns the row-major W*H packed-RGBA pixel buffer
// produced by the most recent call to Render. The returned slice aliases
// Pipeline-owned storage and is invalidated by the next Render call.
func (p *Pipeline) Framebuffer() []uint32 {
	return p.frame.Framebuffer
}

// DepthBuffer returns the row-major W*H per-pixel final depth buffer
// produced by the most recent Render call, or nil if Config.DepthBuffer
// was not enabled (SPEC_FULL.md §10).
func (p *Pipeline) DepthBuffer() []float32 {
	return p.frame.DepthBuf
}

// Width returns the framebuffer width in pixels.
func (p *Pipeline) Width() int { return p.width }

// Height returns the framebuffer height in pixels.
func (p *Pipeline) Height() int { return p.height }

// Backend returns the name of the backend this Pipeline is using.
func (p *Pipeline) Backend() string { return p.backend.Name() }

package splatcore

import "github.com/termsplat/splatcore/internal/model"

// Config carries the tunable constants named in spec.md §6. Zero-value
// Config is never used directly; DefaultConfig supplies every default.
type Config = model.Config

// Option configures a Config during construction.
// Use functional options to override the tunable constants of the
// rendering pipeline without breaking callers when new knobs are added.
//
// Example:
//
//	p := splatcore.NewPipeline(width, height, splatcore.WithSortCapacity(1<<22))
type Option func(*Config)

// DefaultConfig returns the tunable constants at the values named in
// spec.md §6, with BackendName set to BackendCPU.
func DefaultConfig() Config {
	c := model.DefaultConfig()
	c.BackendName = BackendCPU
	return c
}

// WithBatchSize overrides Config.BatchSize.
func WithBatchSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.BatchSize = n
		}
	}
}

// WithSortCapacity overrides Config.SortCapacity, the bound on total
// (splat, tile) overlaps the key emitter will accept for a frame.
func WithSortCapacity(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.SortCapacity = n
		}
	}
}

// WithSaturationEpsilon overrides Config.SaturationEpsilon.
func WithSaturationEpsilon(eps float32) Option {
	return func(c *Config) {
		if eps > 0 && eps < 1 {
			c.SaturationEpsilon = eps
		}
	}
}

// WithDepthBuffer enables or disables the optional per-pixel final-depth
// readback (SPEC_FULL.md §10).
func WithDepthBuffer(enabled bool) Option {
	return func(c *Config) {
		c.DepthBuffer = enabled
	}
}

// WithBackend selects the named rendering backend ("cpu" or "gpu", see
// backend.go) for a Pipeline. If the named backend is not registered,
// NewPipeline falls back to BackendCPU and logs a warning.
func WithBackend(name string) Option {
	return func(c *Config) {
		c.BackendName = name
	}
}

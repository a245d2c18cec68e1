// Package splatcore renders 3D Gaussian Splatting scenes into a packed
// RGBA framebuffer at interactive rates, either on CPU or on an optional
// GPU compute backend with identical output (see SPEC_FULL.md).
//
// # Overview
//
// splatcore implements only the rendering core: the per-frame pipeline
// that turns a decoded array of Splat values and a Camera pose into a
// W×H framebuffer of packed 32-bit RGBA pixels. Scene file parsing, the
// interactive camera/input loop, terminal capability detection, and the
// framebuffer-to-glyph encoder are external collaborators — see
// SPEC_FULL.md §1 for the full boundary.
//
// # Quick start
//
//	p := splatcore.NewPipeline(160, 90)
//	stats, err := p.Render(splats, camera)
//	fb := p.Framebuffer() // []uint32, row-major, R@bit0 G@bit8 B@bit16 A@bit24
//
// # Backends
//
// The default backend is pure-CPU and requires no setup. Importing the
// gpu subpackage registers a GPU compute backend that can be selected
// with splatcore.WithBackend(splatcore.BackendGPU).
package splatcore

import "github.com/termsplat/splatcore/internal/model"

// Splat, Camera, ProjectedSplat, Vec3, Quat, and Stats are defined in
// internal/model so every pipeline-stage package can share them without
// importing this package (which would create an import cycle back into
// the stage packages this package itself imports).
type (
	Splat          = model.Splat
	Camera         = model.Camera
	ProjectedSplat = model.ProjectedSplat
	Vec3           = model.Vec3
	Quat           = model.Quat
	Stats          = model.Stats
	Frame          = model.Frame
)

// FocalLengths derives (fx, fy) in pixels from a vertical field of view
// (radians) and viewport dimensions (SPEC_FULL.md §10).
func FocalLengths(fovYRadians float32, width, height int) (fx, fy float32) {
	return model.FocalLengths(fovYRadians, width, height)
}

// CameraBasisFromYawPitch derives an orthonormal (Right, Up, Forward) basis
// from yaw and pitch angles in radians (SPEC_FULL.md §10).
func CameraBasisFromYawPitch(yaw, pitch float32) (right, up, forward Vec3) {
	return model.CameraBasisFromYawPitch(yaw, pitch)
}

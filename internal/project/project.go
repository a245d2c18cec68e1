// Package project implements the projector stage (spec.md §4.1): it maps
// each world-space Splat through the camera's view transform, culls
// splats outside the near/far planes, projects the survivor's center to
// screen space, derives the 2x2 screen-space covariance from the
// splat's 3D covariance via the EWA Jacobian approximation, and computes
// the 4-sigma axis-aligned screen extent used by the binner.
//
// The stage is embarrassingly parallel over the input splat array: each
// splat's fate depends only on itself and the camera, so Run shards the
// work across a worker pool and reserves each survivor's output slot
// with a single atomic increment, following original_source/src/render's
// parallel-projection pass.
package project

import (
	"math"
	"sync/atomic"

	"github.com/termsplat/splatcore/internal/model"
	"github.com/termsplat/splatcore/internal/parallel"
	"github.com/termsplat/splatcore/internal/xmath"
)

// Run projects frame.Splats through frame.Camera into frame.Projected,
// writing the valid prefix length into frame.ProjectedLen. pool may be
// nil, in which case the work runs sequentially on the calling
// goroutine; this is used by tests and by very small splat counts where
// dispatch overhead would dominate.
func Run(frame *model.Frame, pool *parallel.WorkerPool) {
	n := len(frame.Splats)
	if n == 0 {
		frame.ProjectedLen = 0
		return
	}

	var next atomic.Int32
	cam := frame.Camera
	viewRot := cam.ViewRotation()
	cfg := frame.Config

	work := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			ps, ok := projectOne(&frame.Splats[i], uint32(i), cam, viewRot, cfg, frame.Width, frame.Height)
			if !ok {
				continue
			}
			slot := next.Add(1) - 1
			if int(slot) >= cap(frame.Projected) {
				continue
			}
			frame.Projected[slot] = ps
		}
	}

	if pool == nil || n < cfg.BatchSize {
		work(0, n)
	} else {
		pool.ParallelFor(n, cfg.BatchSize, work)
	}

	total := int(next.Load())
	if total > cap(frame.Projected) {
		total = cap(frame.Projected)
	}
	frame.Projected = frame.Projected[:total]
	frame.ProjectedLen = total
}

// projectOne implements spec.md §4.1 steps 1-9 for a single splat.
func projectOne(s *model.Splat, index uint32, cam model.Camera, viewRot xmath.Mat3, cfg model.Config, width, height int) (model.ProjectedSplat, bool) {
	// Step 1: world -> view space.
	rel := s.Position.Sub(cam.Position)
	viewPos := viewRot.MulVec3(rel)

	// Step 2: near/far cull.
	if viewPos.Z <= cam.Near || viewPos.Z >= cam.Far {
		return model.ProjectedSplat{}, false
	}

	// Step 3: perspective projection of the center.
	zForDivide := viewPos.Z
	if zForDivide < 1e-5 {
		zForDivide = 1e-5
	}
	invZ := 1.0 / zForDivide
	screenX := cam.HalfWidth + viewPos.X*cam.FX*invZ
	screenY := cam.HalfHeight - viewPos.Y*cam.FY*invZ
	if isNonFinite(screenX) || isNonFinite(screenY) {
		return model.ProjectedSplat{}, false
	}

	// Step 4: build the 3x3 world-space covariance from scale+rotation,
	// then rotate it into view space: Sigma_view = R * Sigma_world * R^T.
	scale := s.Scale
	scale.X = xmath.Max(scale.X, 1e-4)
	scale.Y = xmath.Max(scale.Y, 1e-4)
	scale.Z = xmath.Max(scale.Z, 1e-4)
	rot := s.Rotation.NormalizeOrIdentity().RotationMatrix()
	sigmaWorld := xmath.Diag3(scale.X*scale.X, scale.Y*scale.Y, scale.Z*scale.Z)
	sigmaCam := rot.Mul(sigmaWorld).Mul(rot.Transpose())
	sigmaView := viewRot.Mul(sigmaCam).Mul(viewRot.Transpose())

	// Step 5: EWA Jacobian of the perspective projection at viewPos,
	// linearizing screen = f * (x, y) / z.
	j00 := cam.FX * invZ
	j02 := -cam.FX * viewPos.X * invZ * invZ
	j11 := cam.FY * invZ
	j12 := -cam.FY * viewPos.Y * invZ * invZ

	// cov2D = J * sigmaView * J^T, where J is the 2x3 Jacobian
	// [[j00, 0, j02], [0, j11, j12]].
	a00 := j00*sigmaView[0][0] + j02*sigmaView[2][0]
	a01 := j00*sigmaView[0][1] + j02*sigmaView[2][1]
	a02 := j00*sigmaView[0][2] + j02*sigmaView[2][2]
	a10 := j11*sigmaView[1][0] + j12*sigmaView[2][0]
	a11 := j11*sigmaView[1][1] + j12*sigmaView[2][1]
	a12 := j11*sigmaView[1][2] + j12*sigmaView[2][2]

	covA := a00*j00 + a02*j02 // cov_xx
	covB := a10*j00 + a12*j02 // cov_xy, equivalently a00*0+a01*j11+a02*j12 by symmetry
	covC := a11*j11 + a12*j12 // cov_yy

	// Low-pass regularization: inflate the diagonal slightly so
	// sub-pixel splats stay visible (original_source/src/splat.rs).
	covA += 1e-3
	covC += 1e-3
	_ = a01 // a01 == a10 by symmetry of sigmaView; kept for clarity, unused

	// Step 7: degenerate covariance after regularization.
	if covA <= 0 || covC <= 0 {
		return model.ProjectedSplat{}, false
	}

	margin := cfg.BroadMargin
	if screenX < -margin || screenX > float32(width)+margin || screenY < -margin || screenY > float32(height)+margin {
		return model.ProjectedSplat{}, false
	}

	// Step 8: 4-sigma screen-space extent from the larger eigenvalue of
	// the 2x2 covariance matrix; spec.md §4.1 sets rx = ry = extent.
	trace := covA + covC
	det := covA*covC - covB*covB
	disc := trace*trace - 4*det
	if disc < 0 {
		disc = 0
	}
	lambda1 := 0.5 * (trace + float32(math.Sqrt(float64(disc))))
	if lambda1 < 0 {
		lambda1 = 0
	}
	const sigmaMul = 4.0
	extent := sigmaMul * float32(math.Sqrt(float64(lambda1)))
	if extent < 0.3 {
		return model.ProjectedSplat{}, false
	}
	radiusX := extent

	// Step 9: tight-bounds cull using the actual AABB, tighter than the
	// margin-based broad cull above.
	if screenX+radiusX < 0 || screenX-radiusX >= float32(width) ||
		screenY+radiusX < 0 || screenY-radiusX >= float32(height) {
		return model.ProjectedSplat{}, false
	}

	return model.ProjectedSplat{
		ScreenX:       screenX,
		ScreenY:       screenY,
		Depth:         viewPos.Z,
		RadiusX:       radiusX,
		RadiusY:       radiusX,
		CovA:          covA,
		CovB:          covB,
		CovC:          covC,
		Opacity:       s.Opacity,
		Color:         s.Color,
		OriginalIndex: index,
	}, true
}

func isNonFinite(v float32) bool {
	f := float64(v)
	return math.IsNaN(f) || math.IsInf(f, 0)
}

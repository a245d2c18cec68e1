// Package raster implements the tile rasterizer stage (spec.md §4.5): for
// each tile it walks its depth-sorted splat range front-to-back,
// evaluating the 2D Gaussian weight at every pixel the splat's extent
// covers and alpha-compositing it under standard over-blending, with an
// early transmittance cutoff once a pixel has saturated. Tiles are
// independent once the sort stage finishes, so Run shards them across a
// worker pool the same way the teacher's tile-based compositor does
// (internal/parallel/tile.go).
package raster

import (
	"math"

	"github.com/termsplat/splatcore/internal/model"
	"github.com/termsplat/splatcore/internal/parallel"
	"github.com/termsplat/splatcore/internal/xmath"
)

// Run rasterizes every tile of frame into frame.Framebuffer (and, if
// enabled, frame.DepthBuf), reading splats from frame.Projected via the
// sorted (key, value) ranges in frame.SortKeys/SortValues and
// frame.TileOffsets.
func Run(frame *model.Frame, pool *parallel.WorkerPool) {
	numTiles := frame.TileCountX * frame.TileCountY
	if numTiles == 0 {
		return
	}
	cfg := frame.Config

	work := func(lo, hi int) {
		for t := lo; t < hi; t++ {
			rasterTile(frame, t, cfg)
		}
	}

	batch := cfg.BatchSize / 16
	if batch < 1 {
		batch = 1
	}
	if pool == nil || numTiles < cfg.BatchSize {
		work(0, numTiles)
	} else {
		pool.ParallelFor(numTiles, batch, work)
	}
}

func rasterTile(frame *model.Frame, tile int, cfg model.Config) {
	tx := tile % frame.TileCountX
	ty := tile / frame.TileCountX

	start, end := frame.TileOffsets[tile], frame.TileOffsets[tile+1]
	if start >= end {
		return
	}

	pxMin := tx * cfg.TileSize
	pyMin := ty * cfg.TileSize
	pxMax := pxMin + cfg.TileSize
	pyMax := pyMin + cfg.TileSize
	if pxMax > frame.Width {
		pxMax = frame.Width
	}
	if pyMax > frame.Height {
		pyMax = frame.Height
	}

	tileW := pxMax - pxMin
	tileH := pyMax - pyMin
	if tileW <= 0 || tileH <= 0 {
		return
	}

	accumR := make([]float32, tileW*tileH)
	accumG := make([]float32, tileW*tileH)
	accumB := make([]float32, tileW*tileH)
	transmittance := make([]float32, tileW*tileH)
	depth := make([]float32, tileW*tileH)
	for i := range transmittance {
		transmittance[i] = 1
	}
	done := 0
	total := tileW * tileH

	for s := start; s < end && done < total; s++ {
		p := &frame.Projected[frame.SortValues[s]]

		invA, invB, invC, invDet, ok := invertCov(p.CovA, p.CovB, p.CovC)
		if !ok {
			continue
		}

		lo0 := int(p.ScreenX - p.RadiusX)
		lo1 := int(p.ScreenY - p.RadiusY)
		hi0 := int(p.ScreenX+p.RadiusX) + 1
		hi1 := int(p.ScreenY+p.RadiusY) + 1
		if lo0 < pxMin {
			lo0 = pxMin
		}
		if lo1 < pyMin {
			lo1 = pyMin
		}
		if hi0 > pxMax {
			hi0 = pxMax
		}
		if hi1 > pyMax {
			hi1 = pyMax
		}

		r, g, b, a := model.UnpackColorRGBA(p.Color)
		cr := float32(r) / 255
		cg := float32(g) / 255
		cb := float32(b) / 255
		baseAlpha := p.Opacity * (float32(a) / 255)

		for py := lo1; py < hi1; py++ {
			rowBase := (py - pyMin) * tileW
			dy := float32(py) + 0.5 - p.ScreenY
			for px := lo0; px < hi0; px++ {
				idx := rowBase + (px - pxMin)
				if transmittance[idx] < 1-cfg.SaturationEpsilon {
					continue
				}
				dx := float32(px) + 0.5 - p.ScreenX

				// Mahalanobis distance under the inverse covariance.
				q := invA*dx*dx + 2*invB*dx*dy + invC*dy*dy
				if q > cfg.QMax {
					continue
				}
				weight := float32(math.Exp(float64(-0.5 * q)))
				if weight < cfg.MinGaussianContrib {
					continue
				}
				alpha := baseAlpha * weight
				if alpha > 1 {
					alpha = 1
				}

				tr := transmittance[idx]
				w := tr * alpha
				if w < cfg.WeightFloor {
					continue
				}
				accumR[idx] += w * cr
				accumG[idx] += w * cg
				accumB[idx] += w * cb

				newTr := tr * (1 - alpha)
				transmittance[idx] = newTr
				if newTr < 1-cfg.SaturationEpsilon {
					if frame.Config.DepthBuffer {
						depth[idx] = p.Depth
					}
					done++
				}
			}
		}
		_ = invDet
	}

	for py := 0; py < tileH; py++ {
		for px := 0; px < tileW; px++ {
			idx := py*tileW + px
			fx := pxMin + px
			fy := pyMin + py
			fbIdx := fy*frame.Width + fx

			outA := 1 - transmittance[idx]
			rr := clampByteTrunc(accumR[idx] * 255)
			gg := clampByteTrunc(accumG[idx] * 255)
			bb := clampByteTrunc(accumB[idx] * 255)
			aa := clampByteRound(outA * 255)
			frame.Framebuffer[fbIdx] = model.PackColorRGBA(rr, gg, bb, aa)
			if frame.Config.DepthBuffer {
				frame.DepthBuf[fbIdx] = depth[idx]
			}
		}
	}
}

// invertCov inverts the symmetric 2x2 covariance [[a, b], [b, c]],
// returning ok=false when the determinant is degenerate
// (spec.md §4.5's degenerate-covariance skip).
func invertCov(a, b, c float32) (invA, invB, invC, invDet float32, ok bool) {
	det := a*c - b*b
	if det <= 1e-8 {
		return 0, 0, 0, 0, false
	}
	invDet = 1 / det
	return c * invDet, -b * invDet, a * invDet, invDet, true
}

// clampByteTrunc clamps v to [0, 255] and truncates, matching spec.md
// §4.5's finalization of the color channels (clamp(r), no rounding).
func clampByteTrunc(v float32) uint8 {
	return uint8(xmath.Clamp(v, 0, 255))
}

// clampByteRound clamps v to [0, 255] and rounds, matching spec.md
// §4.5's finalization of the alpha channel (round(final_alpha*255)).
func clampByteRound(v float32) uint8 {
	return uint8(xmath.Clamp(v, 0, 255) + 0.5)
}

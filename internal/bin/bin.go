// Package bin implements the tile binner stage (spec.md §4.2): for each
// projected splat it computes the axis-aligned range of tiles its
// 4-sigma screen extent overlaps, clamped to the framebuffer's tile
// grid, and counts how many (splat, tile) pairs each tile receives.
// Counting and emission are split across two passes (bin.Count,
// sortkey.Emit) so the exclusive prefix scan between them can turn
// per-tile counts into per-tile write offsets, following the
// count-scan-scatter structure of original_source/src/render/metal/sort.rs.
package bin

import (
	"sync/atomic"

	"github.com/termsplat/splatcore/internal/model"
	"github.com/termsplat/splatcore/internal/parallel"
)

// TileRange is the inclusive-exclusive tile coordinate range a splat
// overlaps: tiles [MinX, MaxX) x [MinY, MaxY).
type TileRange struct {
	MinX, MinY, MaxX, MaxY int
}

// Range computes the tile range a projected splat at screen position
// (x, y) with axis-aligned radius (rx, ry) overlaps within a
// tileCountX x tileCountY grid of tileSize pixels, clamped to the grid
// (spec.md §4.2 step 1).
func Range(x, y, rx, ry float32, tileSize, tileCountX, tileCountY int) TileRange {
	minX := int((x - rx) / float32(tileSize))
	minY := int((y - ry) / float32(tileSize))
	maxX := int((x+rx)/float32(tileSize)) + 1
	maxY := int((y+ry)/float32(tileSize)) + 1

	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if minX > tileCountX {
		minX = tileCountX
	}
	if minY > tileCountY {
		minY = tileCountY
	}
	if maxX > tileCountX {
		maxX = tileCountX
	}
	if maxY > tileCountY {
		maxY = tileCountY
	}
	if maxX < minX {
		maxX = minX
	}
	if maxY < minY {
		maxY = minY
	}
	return TileRange{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// Count computes, for every projected splat in frame.Projected, the tile
// range it overlaps and atomically accumulates frame.TileCounts, the
// per-tile overlap count the prefix-scan stage consumes next. It also
// records each splat's packed tile-range bounds in frame.TileMin /
// frame.TileMax for sortkey.Emit to reuse without recomputing.
//
// Returns the total number of (splat, tile) pairs across all tiles,
// before any SortCapacity clamping.
func Count(frame *model.Frame, pool *parallel.WorkerPool) int {
	n := frame.ProjectedLen
	if n == 0 {
		return 0
	}
	cfg := frame.Config
	tileCounts := frame.TileCounts

	var total atomic.Int64

	work := func(lo, hi int) {
		var localTotal int64
		for i := lo; i < hi; i++ {
			p := &frame.Projected[i]
			r := Range(p.ScreenX, p.ScreenY, p.RadiusX, p.RadiusY, cfg.TileSize, frame.TileCountX, frame.TileCountY)
			frame.TileMin[i] = packTile(r.MinX, r.MinY)
			frame.TileMax[i] = packTile(r.MaxX, r.MaxY)

			for ty := r.MinY; ty < r.MaxY; ty++ {
				rowBase := ty * frame.TileCountX
				for tx := r.MinX; tx < r.MaxX; tx++ {
					atomic.AddUint32(&tileCounts[rowBase+tx], 1)
					localTotal++
				}
			}
		}
		total.Add(localTotal)
	}

	if pool == nil || n < cfg.BatchSize {
		work(0, n)
	} else {
		pool.ParallelFor(n, cfg.BatchSize, work)
	}

	return int(total.Load())
}

func packTile(tx, ty int) uint32 {
	return uint32(ty)<<16 | uint32(tx)&0xFFFF
}

// UnpackTile splits a packed (ty<<16)|tx value back into coordinates.
func UnpackTile(v uint32) (tx, ty int) {
	return int(v & 0xFFFF), int(v >> 16)
}

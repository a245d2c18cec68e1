// Package sortkey implements the key emitter and radix sort stage
// (spec.md §4.4). It duplicates each projected splat once per tile it
// overlaps, emitting a (sortable depth key, projected-splat index) pair
// into the tile's reserved sub-range of the shared sort buffers (the
// sub-range boundaries come from the prefix scan's TileOffsets), then
// sorts every tile's sub-range independently by an 8-bit LSD radix sort
// so splats within a tile end up front-to-back, matching the
// counting-sort structure of original_source/src/render/metal/sort.rs.
package sortkey

import (
	"math"
	"sync/atomic"

	"github.com/termsplat/splatcore/internal/bin"
	"github.com/termsplat/splatcore/internal/model"
	"github.com/termsplat/splatcore/internal/parallel"
)

// EncodeDepth maps a view-space depth (always > 0 for a surviving
// projected splat, spec.md §4.1's near/far cull) to a uint32 that sorts
// in the same order as the float, so an ascending sort by key yields a
// front-to-back splat order.
func EncodeDepth(depth float32) uint32 {
	bits := math.Float32bits(depth)
	if bits&0x80000000 != 0 {
		return ^bits
	}
	return bits | 0x80000000
}

// Emit duplicates every projected splat into the tiles it overlaps,
// writing (key, projected-splat index) into frame.SortKeys /
// frame.SortValues at a position inside that tile's [TileOffsets[t],
// TileOffsets[t+1]) sub-range (spec.md §4.4: "values[slot] =
// projected_splat_index"). The key is EncodeDepth(depth) with its low 4
// bits replaced by the low 4 bits of the splat's OriginalIndex, so splats
// of (near-)equal depth sort in an order that does not depend on which
// worker emitted them first. A per-tile atomic write cursor (seeded
// from TileOffsets) hands out positions; once a tile's sub-range fills
// up, further writes for that tile are dropped (spec.md §3's overflow
// semantics drop excess pairs rather than overwrite neighboring tiles).
func Emit(frame *model.Frame, pool *parallel.WorkerPool) {
	n := frame.ProjectedLen
	numTiles := frame.TileCountX * frame.TileCountY
	if n == 0 || numTiles == 0 {
		return
	}

	cursors := make([]atomic.Uint32, numTiles)
	for t := 0; t < numTiles; t++ {
		cursors[t].Store(frame.TileOffsets[t])
	}
	limits := frame.TileOffsets // limits[t+1] is the exclusive end of tile t's range

	cfg := frame.Config
	keys, values := frame.SortKeys, frame.SortValues

	work := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			p := &frame.Projected[i]
			key := EncodeDepth(p.Depth)&^0xF | p.OriginalIndex&0xF
			minX, minY := bin.UnpackTile(frame.TileMin[i])
			maxX, maxY := bin.UnpackTile(frame.TileMax[i])

			for ty := minY; ty < maxY; ty++ {
				rowBase := ty * frame.TileCountX
				for tx := minX; tx < maxX; tx++ {
					t := rowBase + tx
					limit := limits[t+1]
					slot := cursors[t].Add(1) - 1
					if slot >= limit {
						continue
					}
					keys[slot] = key
					values[slot] = uint32(i)
				}
			}
		}
	}

	if pool == nil || n < cfg.BatchSize {
		work(0, n)
	} else {
		pool.ParallelFor(n, cfg.BatchSize, work)
	}
}

// Sort performs an 8-bit LSD radix sort of each tile's [TileOffsets[t],
// TileOffsets[t+1]) sub-range of frame.SortKeys/frame.SortValues,
// ascending by key, using aux as ping-pong scratch buffers (resized as
// needed). Tiles are independent so the work is sharded across pool.
func Sort(frame *model.Frame, pool *parallel.WorkerPool, auxKeys, auxValues *[]uint32) {
	numTiles := frame.TileCountX * frame.TileCountY
	if numTiles == 0 {
		return
	}
	if cap(*auxKeys) < len(frame.SortKeys) {
		*auxKeys = make([]uint32, len(frame.SortKeys))
		*auxValues = make([]uint32, len(frame.SortValues))
	}
	ak, av := (*auxKeys)[:len(frame.SortKeys)], (*auxValues)[:len(frame.SortValues)]

	offsets := frame.TileOffsets
	keys, values := frame.SortKeys, frame.SortValues
	cfg := frame.Config

	work := func(lo, hi int) {
		for t := lo; t < hi; t++ {
			start, end := offsets[t], offsets[t+1]
			if end-start < 2 {
				continue
			}
			radixSortRange(keys[start:end], values[start:end], ak[start:end], av[start:end])
		}
	}

	batch := cfg.BatchSize / 8
	if batch < 1 {
		batch = 1
	}
	if pool == nil || numTiles < cfg.BatchSize {
		work(0, numTiles)
	} else {
		pool.ParallelFor(numTiles, batch, work)
	}
}

// radixSortRange sorts keys/values ascending by key using four passes of
// an 8-bit LSD radix sort, ping-ponging between (keys, values) and
// (auxKeys, auxValues).
func radixSortRange(keys, values, auxKeys, auxValues []uint32) {
	n := len(keys)
	src, srcVal := keys, values
	dst, dstVal := auxKeys, auxValues

	var histogram [256]int
	for shift := uint(0); shift < 32; shift += 8 {
		for i := range histogram {
			histogram[i] = 0
		}
		for _, k := range src {
			histogram[byte(k>>shift)]++
		}
		sum := 0
		for i := range histogram {
			c := histogram[i]
			histogram[i] = sum
			sum += c
		}
		for i := 0; i < n; i++ {
			b := byte(src[i] >> shift)
			pos := histogram[b]
			histogram[b]++
			dst[pos] = src[i]
			dstVal[pos] = srcVal[i]
		}
		src, dst = dst, src
		srcVal, dstVal = dstVal, srcVal
	}
	// Four passes is even, so src/srcVal already alias keys/values here.
}

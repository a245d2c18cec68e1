// Package scan implements the exclusive prefix scan stage (spec.md §4.3):
// it turns the binner's per-tile overlap counts into per-tile write
// offsets into the shared (key, value) sort buffers, then exposes the
// grand total so the key emitter can detect and report sort-capacity
// overflow (spec.md §3, §7).
package scan

import "github.com/termsplat/splatcore/internal/model"

// Run computes the exclusive prefix sum of frame.TileCounts into
// frame.TileOffsets (length numTiles+1, with TileOffsets[numTiles]
// holding the grand total), clamping every offset to sortCapacity so the
// key emitter never scatters past the end of the sort buffers.
//
// Returns the true, unclamped total overlap count and whether clamping
// occurred (spec.md §3's Overflow flag).
func Run(frame *model.Frame, sortCapacity int) (total int, overflow bool) {
	offsets := frame.TileOffsets
	counts := frame.TileCounts

	var running uint64
	for i, c := range counts {
		offsets[i] = clampOffset(running, sortCapacity)
		running += uint64(c)
	}
	offsets[len(counts)] = clampOffset(running, sortCapacity)

	total = int(running)
	overflow = running > uint64(sortCapacity)
	return total, overflow
}

func clampOffset(v uint64, capacity int) uint32 {
	if v > uint64(capacity) {
		return uint32(capacity)
	}
	return uint32(v)
}

package sortkey

import (
	"math"
	"sort"
	"testing"

	"github.com/termsplat/splatcore/internal/bin"
	"github.com/termsplat/splatcore/internal/model"
)

func TestEncodeDepthPreservesOrder(t *testing.T) {
	depths := []float32{0.001, 0.5, 1, 2.5, 100, 1e6}
	keys := make([]uint32, len(depths))
	for i, d := range depths {
		keys[i] = EncodeDepth(d)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] <= keys[i-1] {
			t.Fatalf("EncodeDepth not monotone: depth[%d]=%v -> %d, depth[%d]=%v -> %d",
				i-1, depths[i-1], keys[i-1], i, depths[i], keys[i])
		}
	}
}

func TestEncodeDepthMatchesFloatBitsForPositives(t *testing.T) {
	// Positive floats already compare correctly as raw IEEE-754 bit
	// patterns; EncodeDepth should just set the sign bit.
	d := float32(3.25)
	want := math.Float32bits(d) | 0x80000000
	if got := EncodeDepth(d); got != want {
		t.Fatalf("EncodeDepth(%v) = %#x, want %#x", d, got, want)
	}
}

func buildEmitFrame(t *testing.T, splats []model.ProjectedSplat, width, height, tileSize int) *model.Frame {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.TileSize = tileSize
	f := &model.Frame{Width: width, Height: height, Config: cfg}
	tx, ty := model.TileGridSize(width, height, tileSize)
	f.EnsureCapacity(len(splats), tx, ty, cfg.SortCapacity)
	copy(f.Projected, splats)
	f.ProjectedLen = len(splats)

	for i := range f.Projected[:f.ProjectedLen] {
		p := &f.Projected[i]
		r := bin.Range(p.ScreenX, p.ScreenY, p.RadiusX, p.RadiusY, tileSize, tx, ty)
		f.TileMin[i] = packTileForTest(r.MinX, r.MinY)
		f.TileMax[i] = packTileForTest(r.MaxX, r.MaxY)
		for ty2 := r.MinY; ty2 < r.MaxY; ty2++ {
			rowBase := ty2 * tx
			for tx2 := r.MinX; tx2 < r.MaxX; tx2++ {
				f.TileCounts[rowBase+tx2]++
			}
		}
	}
	return f
}

func packTileForTest(tx, ty int) uint32 { return uint32(ty)<<16 | uint32(tx)&0xFFFF }

func TestEmitAndSortOrdersByDepthWithinTile(t *testing.T) {
	splats := []model.ProjectedSplat{
		{ScreenX: 8, ScreenY: 8, RadiusX: 2, RadiusY: 2, Depth: 5, OriginalIndex: 0},
		{ScreenX: 8, ScreenY: 8, RadiusX: 2, RadiusY: 2, Depth: 1, OriginalIndex: 1},
		{ScreenX: 8, ScreenY: 8, RadiusX: 2, RadiusY: 2, Depth: 3, OriginalIndex: 2},
	}
	f := buildEmitFrame(t, splats, 16, 16, 16)

	total := 0
	running := uint32(0)
	for i, c := range f.TileCounts {
		f.TileOffsets[i] = running
		running += c
		total += int(c)
	}
	f.TileOffsets[len(f.TileCounts)] = running

	Emit(f, nil)

	var auxK, auxV []uint32
	Sort(f, nil, &auxK, &auxV)

	start, end := f.TileOffsets[0], f.TileOffsets[1]
	got := f.SortValues[start:end]
	want := []uint32{1, 2, 0} // depth 1, 3, 5 -> original indices 1, 2, 0
	if len(got) != len(want) {
		t.Fatalf("tile 0 got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted values = %v, want %v (front-to-back by depth)", got, want)
		}
	}
}

func TestRadixSortRangeSortsAscending(t *testing.T) {
	keys := []uint32{500, 3, 999999, 0, 42}
	values := []uint32{5, 3, 9, 0, 4}
	auxK := make([]uint32, len(keys))
	auxV := make([]uint32, len(values))

	radixSortRange(keys, values, auxK, auxV)

	if !sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i] < keys[j] }) {
		t.Fatalf("keys not sorted: %v", keys)
	}
	// values must have moved in lockstep with their keys.
	pairs := map[uint32]uint32{0: 0, 3: 3, 42: 4, 500: 5, 999999: 9}
	for i, k := range keys {
		if values[i] != pairs[k] {
			t.Fatalf("key %d paired with value %d, want %d", k, values[i], pairs[k])
		}
	}
}

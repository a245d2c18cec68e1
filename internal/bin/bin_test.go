package bin

import "testing"

func TestRangeCenterTile(t *testing.T) {
	r := Range(24, 24, 2, 2, 16, 4, 4)
	if r.MinX != 1 || r.MinY != 1 || r.MaxX != 2 || r.MaxY != 2 {
		t.Fatalf("Range = %+v, want a single tile at (1,1)", r)
	}
}

func TestRangeClampsToGrid(t *testing.T) {
	r := Range(-10, -10, 5, 5, 16, 4, 4)
	if r.MinX != 0 || r.MinY != 0 {
		t.Fatalf("Range = %+v, want clamped to grid origin", r)
	}

	r = Range(1000, 1000, 5, 5, 16, 4, 4)
	if r.MaxX != 4 || r.MaxY != 4 {
		t.Fatalf("Range = %+v, want clamped to grid extent", r)
	}
}

func TestRangeSpansMultipleTiles(t *testing.T) {
	r := Range(16, 16, 20, 20, 16, 4, 4)
	if r.MinX != 0 || r.MaxX != 3 {
		t.Fatalf("Range.X = [%d,%d), want overlap spanning multiple tile columns", r.MinX, r.MaxX)
	}
}

func TestPackUnpackTileRoundTrip(t *testing.T) {
	for _, tc := range []struct{ tx, ty int }{{0, 0}, {7, 3}, {65535, 65535}} {
		v := packTile(tc.tx, tc.ty)
		gotX, gotY := UnpackTile(v)
		if gotX != tc.tx || gotY != tc.ty {
			t.Fatalf("round trip (%d,%d) -> %d -> (%d,%d)", tc.tx, tc.ty, v, gotX, gotY)
		}
	}
}

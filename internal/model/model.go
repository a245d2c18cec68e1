// Package model holds the data types shared by every pipeline stage:
// Splat, Camera, the intermediate ProjectedSplat, the tunable Config, and
// the per-frame Frame that bundles scratch buffers across stage
// boundaries. It has no stage logic of its own (see internal/project,
// internal/bin, internal/scan, internal/sortkey, internal/raster) so that
// every stage package can depend on it without importing one another.
package model

import (
	"math"

	"github.com/termsplat/splatcore/internal/xmath"
)

// Vec3 and Quat are re-exported from internal/xmath so model types don't
// force every caller to import xmath directly.
type (
	Vec3 = xmath.Vec3
	Quat = xmath.Quat
)

// Splat is one anisotropic 3D Gaussian in world space (spec.md §3).
type Splat struct {
	// Position is the splat's center in world space.
	Position Vec3

	// Scale is the per-axis standard deviation of the Gaussian along its
	// local axes, strictly positive. Values are clamped to >= 1e-4 on
	// consumption.
	Scale Vec3

	// Rotation is a quaternion (w, x, y, z) mapping the splat's local
	// axes into world space. Normalized on consumption; falls back to
	// the identity rotation if its norm is <= 1e-8.
	Rotation Quat

	// Opacity is the splat's base opacity, in [0, 1].
	Opacity float32

	// Color is packed as 0xAABBGGRR: R in bits 0-7, G in bits 8-15,
	// B in bits 16-23, A in bits 24-31.
	Color uint32
}

// Camera is a pinhole camera pose (spec.md §3). The interactive
// camera-mode state machine (yaw/pitch input handling) is an external
// collaborator; Camera here is the pure data record the projector reads,
// plus the FocalLengths helper supplemented from
// original_source/src/camera.rs (SPEC_FULL.md §10).
type Camera struct {
	// Position is the camera's position in world space.
	Position Vec3

	// Right, Up, Forward are the orthonormal rows of the view rotation.
	Right, Up, Forward Vec3

	// FX, FY are focal lengths in pixels.
	FX, FY float32

	// HalfWidth, HalfHeight are half the viewport dimensions in pixels.
	HalfWidth, HalfHeight float32

	// Near, Far are the view-space depth culling planes.
	Near, Far float32
}

// FocalLengths derives (fx, fy) in pixels from a vertical field of view
// (radians) and viewport dimensions, following
// original_source/src/camera.rs's focal_lengths. This is a pure
// derivation with no interactive state; the camera-mode state machine
// that owns yaw/pitch/movement stays out of scope (spec.md §1).
func FocalLengths(fovYRadians float32, width, height int) (fx, fy float32) {
	h := float32(height)
	if h < 1 {
		h = 1
	}
	w := float32(width)
	if w < 1 {
		w = 1
	}
	tanHalf := float32(math.Tan(float64(fovYRadians) * 0.5))
	if tanHalf < 1e-6 {
		tanHalf = 1e-6
	}
	fy = h / (2 * tanHalf)
	fx = fy * (w / h)
	return fx, fy
}

// CameraBasisFromYawPitch derives an orthonormal (Right, Up, Forward) basis
// from yaw and pitch angles in radians, following
// original_source/src/camera.rs's update_vectors: forward comes straight
// from the two angles, and right/up fall out of cross products against the
// world Y axis. Like FocalLengths, this is a pure derivation; the
// interactive yaw/pitch state machine stays out of scope (spec.md §1).
func CameraBasisFromYawPitch(yaw, pitch float32) (right, up, forward Vec3) {
	cp := float32(math.Cos(float64(pitch)))
	forward = Vec3{
		X: float32(math.Cos(float64(yaw))) * cp,
		Y: float32(math.Sin(float64(pitch))),
		Z: float32(math.Sin(float64(yaw))) * cp,
	}.Normalize()

	worldUp := Vec3{Y: 1}
	right = worldUp.Cross(forward)
	if right.LengthSquared() < 1e-6 {
		right = Vec3{X: 1}
	} else {
		right = right.Normalize()
	}
	up = forward.Cross(right).Normalize()
	return right, up, forward
}

// ViewRotation returns the 3x3 matrix whose rows are (Right, Up, Forward),
// used to transform world-space vectors into view space (spec.md §4.1
// step 1, §4.1 step 6).
func (c Camera) ViewRotation() xmath.Mat3 {
	return xmath.Mat3{
		{c.Right.X, c.Right.Y, c.Right.Z},
		{c.Up.X, c.Up.Y, c.Up.Z},
		{c.Forward.X, c.Forward.Y, c.Forward.Z},
	}
}

// ProjectedSplat is the intermediate record the projector emits
// (spec.md §3).
type ProjectedSplat struct {
	// ScreenX, ScreenY are the splat's projected center in pixels.
	ScreenX, ScreenY float32

	// Depth is the view-space depth (positive forward).
	Depth float32

	// RadiusX, RadiusY are the 4-sigma axis-aligned screen extents.
	RadiusX, RadiusY float32

	// CovA, CovB, CovC are the three unique entries of the symmetric 2x2
	// screen-space covariance matrix [[CovA, CovB], [CovB, CovC]].
	CovA, CovB, CovC float32

	// Opacity is the splat's base opacity, in [0, 1].
	Opacity float32

	// Color is the packed 0xAABBGGRR color carried from the source Splat.
	Color uint32

	// OriginalIndex is this splat's position in the input array — the
	// "stable original index" of spec.md §3. Its low 4 bits are the sort
	// tiebreaker in the low 4 bits of the key sortkey.Emit writes.
	OriginalIndex uint32
}

// Config carries the tunable constants named in spec.md §6.
type Config struct {
	TileSize           int
	BatchSize          int
	SaturationEpsilon  float32
	MinGaussianContrib float32
	WeightFloor        float32
	QMax               float32
	BroadMargin        float32
	SortCapacity       int
	DepthBuffer        bool
	BackendName        string
}

// DefaultConfig returns the tunable constants at the values named in
// spec.md §6.
func DefaultConfig() Config {
	return Config{
		TileSize:           16,
		BatchSize:          32,
		SaturationEpsilon:  0.999,
		MinGaussianContrib: 1e-3,
		WeightFloor:        1e-4,
		QMax:               32,
		BroadMargin:        120,
		SortCapacity:       1 << 21,
		DepthBuffer:        false,
		BackendName:        "cpu",
	}
}

// UnpackColorRGBA splits a packed 0xAABBGGRR color into its four 8-bit
// channels (spec.md §3, §6). It lives in model rather than the root
// package so every stage package can use the same packing without an
// import cycle; the root package's UnpackColor/PackColor delegate here.
func UnpackColorRGBA(c uint32) (r, g, b, a uint8) {
	return uint8(c), uint8(c >> 8), uint8(c >> 16), uint8(c >> 24)
}

// PackColorRGBA combines four 8-bit channels into the packed 0xAABBGGRR
// layout used throughout splatcore.
func PackColorRGBA(r, g, b, a uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

// TileGridSize returns the tile grid dimensions for a width x height
// framebuffer at the given tile size (spec.md §3: tile_count_x =
// ceil(W/T), tile_count_y = ceil(H/T)).
func TileGridSize(width, height, tileSize int) (tileCountX, tileCountY int) {
	tileCountX = (width + tileSize - 1) / tileSize
	tileCountY = (height + tileSize - 1) / tileSize
	return tileCountX, tileCountY
}

// Stats is the per-frame diagnostic record returned by Pipeline.Render
// (SPEC_FULL.md §3, supplementing original_source/src/render/pipeline.rs's
// frame-timing fields). It is read-only to the caller.
type Stats struct {
	// EmittedSplats is the number of splats that survived the projector's
	// culls.
	EmittedSplats int

	// TotalOverlaps is the true number of (splat, tile) pairs the binner
	// counted, unclamped even when it exceeds SortCapacity — Overflow
	// reports that condition, and the excess pairs past SortCapacity are
	// what get dropped during key emission, not TotalOverlaps itself.
	// Callers use the raw value to size future SortCapacity budgets.
	TotalOverlaps int

	// Overflow is set when TotalOverlaps exceeded the pipeline's
	// SortCapacity; the excess pairs were dropped, not wrapped
	// (spec.md §3, §7).
	Overflow bool

	// ProjectTime, BinTime, ScanTime, SortTime, RasterTime are
	// per-stage wall-clock durations, in nanoseconds.
	ProjectTime, BinTime, ScanTime, SortTime, RasterTime int64

	// Backend is the name of the Backend that produced this frame.
	Backend string
}

// Frame bundles one frame's inputs and output buffers. A Pipeline reuses
// a single Frame's scratch buffers across calls to Render (spec.md §3's
// "frame-scope" lifecycle); the caller owns Splats and Camera, which are
// scene-scope and must outlive the Render call but are never mutated by
// it.
type Frame struct {
	Splats []Splat
	Camera Camera

	Width, Height int
	Config        Config

	// Scratch buffers, reused and logically reset at the start of each
	// Render call. Exported so CPU and GPU backends in different
	// packages can share the same Frame without copying.
	Projected    []ProjectedSplat
	ProjectedLen int // valid prefix length of Projected (atomic counter contract, spec.md §4.1)

	TileCountX, TileCountY int
	TileCounts             []uint32 // len TileCountX*TileCountY
	TileOffsets            []uint32 // len TileCountX*TileCountY + 1
	TileMin, TileMax       []uint32 // per-projected-splat packed (ty<<16)|tx, len == len(Splats)

	SortKeys   []uint32
	SortValues []uint32

	Framebuffer []uint32  // row-major W*H, R@bit0 G@bit8 B@bit16 A@bit24
	DepthBuf    []float32 // only populated when Config.DepthBuffer is set
}

// Reset zero-lengths (but does not deallocate) f's frame-scope scratch
// buffers and clears the framebuffer, matching spec.md §3's "logically
// reset at frame start" lifecycle.
func (f *Frame) Reset() {
	f.ProjectedLen = 0
	for i := range f.TileCounts {
		f.TileCounts[i] = 0
	}
	for i := range f.Framebuffer {
		f.Framebuffer[i] = 0
	}
	for i := range f.DepthBuf {
		f.DepthBuf[i] = 0
	}
}

// EnsureCapacity grows f's scratch buffers to fit N splats, M tiles, and
// sortCapacity overlap pairs, reusing existing backing arrays when large
// enough (spec.md §3's "may be reused across frames" lifecycle).
func (f *Frame) EnsureCapacity(numSplats, tileCountX, tileCountY, sortCapacity int) {
	if numSplats < 0 || tileCountX < 0 || tileCountY < 0 || sortCapacity < 0 {
		panic("model: EnsureCapacity called with a negative size, a stage bug rather than a caller mistake")
	}
	f.TileCountX, f.TileCountY = tileCountX, tileCountY
	numTiles := tileCountX * tileCountY

	if cap(f.Projected) < numSplats {
		f.Projected = make([]ProjectedSplat, numSplats)
		f.TileMin = make([]uint32, numSplats)
		f.TileMax = make([]uint32, numSplats)
	} else {
		f.Projected = f.Projected[:numSplats]
		f.TileMin = f.TileMin[:numSplats]
		f.TileMax = f.TileMax[:numSplats]
	}

	if cap(f.TileCounts) < numTiles {
		f.TileCounts = make([]uint32, numTiles)
	} else {
		f.TileCounts = f.TileCounts[:numTiles]
	}
	if cap(f.TileOffsets) < numTiles+1 {
		f.TileOffsets = make([]uint32, numTiles+1)
	} else {
		f.TileOffsets = f.TileOffsets[:numTiles+1]
	}

	if cap(f.SortKeys) < sortCapacity {
		f.SortKeys = make([]uint32, sortCapacity)
		f.SortValues = make([]uint32, sortCapacity)
	} else {
		f.SortKeys = f.SortKeys[:sortCapacity]
		f.SortValues = f.SortValues[:sortCapacity]
	}

	fbLen := f.Width * f.Height
	if cap(f.Framebuffer) < fbLen {
		f.Framebuffer = make([]uint32, fbLen)
	} else {
		f.Framebuffer = f.Framebuffer[:fbLen]
	}
	if f.Config.DepthBuffer {
		if cap(f.DepthBuf) < fbLen {
			f.DepthBuf = make([]float32, fbLen)
		} else {
			f.DepthBuf = f.DepthBuf[:fbLen]
		}
	} else {
		f.DepthBuf = nil
	}
}

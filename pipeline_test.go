package splatcore

import (
	"math"
	"testing"
)

func identityTestCamera(width, height int) Camera {
	fx, fy := FocalLengths(float32(math.Pi)/2, width, height)
	return Camera{
		Position:   Vec3{Z: -5},
		Right:      Vec3{X: 1},
		Up:         Vec3{Y: 1},
		Forward:    Vec3{Z: 1},
		FX:         fx,
		FY:         fy,
		HalfWidth:  float32(width) / 2,
		HalfHeight: float32(height) / 2,
		Near:       0.01,
		Far:        1000,
	}
}

func TestPipelineRendersSingleCenterSplat(t *testing.T) {
	p := NewPipeline(32, 32)
	splats := []Splat{
		{Position: Vec3{}, Scale: Vec3{X: 0.2, Y: 0.2, Z: 0.2}, Rotation: Quat{W: 1}, Opacity: 1, Color: 0xFFFFFFFF},
	}
	stats, err := p.Render(splats, identityTestCamera(32, 32))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if stats.EmittedSplats != 1 {
		t.Fatalf("EmittedSplats = %d, want 1", stats.EmittedSplats)
	}

	fb := p.Framebuffer()
	idx := 16*32 + 16
	r, _, _, a := UnpackColor(fb[idx])
	if r < 100 || a < 100 {
		t.Fatalf("center pixel = %#x, want a visible splat", fb[idx])
	}
}

func TestPipelineEmptySceneProducesBlackFramebuffer(t *testing.T) {
	p := NewPipeline(16, 16)
	stats, err := p.Render(nil, identityTestCamera(16, 16))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if stats.EmittedSplats != 0 {
		t.Fatalf("EmittedSplats = %d, want 0", stats.EmittedSplats)
	}
	for i, px := range p.Framebuffer() {
		if px != 0 {
			t.Fatalf("pixel %d = %#x, want 0", i, px)
		}
	}
}

func TestPipelineRejectsInvalidDimensions(t *testing.T) {
	p := NewPipeline(0, 10)
	if _, err := p.Render(nil, Camera{}); err == nil {
		t.Fatal("Render with zero width did not return an error")
	}
}

func TestPipelineIsDeterministicAcrossRuns(t *testing.T) {
	// Every splat gets a distinct depth so within-tile sort order can
	// never hinge on the tiebreak-collision class TestDeterminism_PSNR
	// exercises separately; this test asserts bit-exact reproducibility
	// whenever ties don't come into play.
	scene := syntheticSceneUniqueDepth(500, 7)
	cam := identityTestCamera(64, 64)

	p1 := NewPipeline(64, 64)
	if _, err := p1.Render(scene, cam); err != nil {
		t.Fatalf("render 1: %v", err)
	}
	fb1 := append([]uint32(nil), p1.Framebuffer()...)

	p2 := NewPipeline(64, 64)
	if _, err := p2.Render(scene, cam); err != nil {
		t.Fatalf("render 2: %v", err)
	}
	fb2 := p2.Framebuffer()

	for i := range fb1 {
		if fb1[i] != fb2[i] {
			t.Fatalf("pixel %d differs across identical runs: %#x vs %#x", i, fb1[i], fb2[i])
		}
	}
}

// TestDeterminism_PSNR renders the same synthetic scene twice through
// fresh Pipelines and asserts their framebuffers agree to within a PSNR
// of 50dB, the threshold spec.md's sort-tiebreak-collision Open Question
// settled on (see DESIGN.md). Two fresh Pipelines with independent
// scratch buffers isolate true nondeterminism (goroutine scheduling
// interacting with tiebreak-sensitive sort order) from simple buffer
// reuse bugs, which TestPipelineIsDeterministicAcrossRuns already covers
// bit-exactly.
func TestDeterminism_PSNR(t *testing.T) {
	scene := syntheticScene(4000, 11)
	cam := identityTestCamera(96, 96)

	p1 := NewPipeline(96, 96)
	if _, err := p1.Render(scene, cam); err != nil {
		t.Fatalf("render 1: %v", err)
	}
	fb1 := append([]uint32(nil), p1.Framebuffer()...)

	p2 := NewPipeline(96, 96)
	if _, err := p2.Render(scene, cam); err != nil {
		t.Fatalf("render 2: %v", err)
	}
	fb2 := p2.Framebuffer()

	psnr := framebufferPSNR(fb1, fb2)
	const minPSNR = 50.0
	if psnr < minPSNR {
		t.Fatalf("PSNR between two renders of the same scene = %.2fdB, want >= %.1fdB", psnr, minPSNR)
	}
}

// syntheticSceneUniqueDepth is syntheticScene with a strictly increasing
// depth per splat, so no two splats in the same tile can tie during the
// sort stage.
func syntheticSceneUniqueDepth(n int, salt uint32) []Splat {
	splats := syntheticScene(n, salt)
	for i := range splats {
		splats[i].Position.Z = 5 + float32(i)*0.01
	}
	return splats
}

// syntheticScene builds a deterministic splat cloud for tests; salt only
// varies the color hash, not geometry, so results stay comparable across
// calls with the same n.
func syntheticScene(n int, salt uint32) []Splat {
	splats := make([]Splat, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		theta := t * math.Pi * 6
		r := 2.0 + 0.5*math.Sin(t*20)
		x := r * math.Cos(theta)
		y := r * math.Sin(theta)
		z := 5 + float64(i%10)*0.1

		h := uint32(i)*2654435761 + salt
		splats[i] = Splat{
			Position: Vec3{X: float32(x), Y: float32(y), Z: float32(z)},
			Scale:    Vec3{X: 0.05, Y: 0.05, Z: 0.05},
			Rotation: Quat{W: 1},
			Opacity:  0.8,
			Color:    0xFF000000 | (h & 0x00FFFFFF),
		}
	}
	return splats
}

// framebufferPSNR computes the peak signal-to-noise ratio in dB between
// two packed-RGBA framebuffers of equal length, treating each 8-bit
// channel as an independent sample. Returns +Inf for identical buffers.
func framebufferPSNR(a, b []uint32) float64 {
	var sumSq float64
	n := 0
	for i := range a {
		ar, ag, ab, aa := UnpackColor(a[i])
		br, bg, bb, ba := UnpackColor(b[i])
		sumSq += sqDiff(ar, br) + sqDiff(ag, bg) + sqDiff(ab, bb) + sqDiff(aa, ba)
		n += 4
	}
	if sumSq == 0 {
		return math.Inf(1)
	}
	mse := sumSq / float64(n)
	return 20*math.Log10(255) - 10*math.Log10(mse)
}

func sqDiff(x, y uint8) float64 {
	d := float64(x) - float64(y)
	return d * d
}

// Command splatdemo renders a synthetic cloud of Gaussian splats and
// saves the result as a PNG, demonstrating splatcore.Pipeline end to
// end.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/termsplat/splatcore"
	_ "github.com/termsplat/splatcore/gpu"
)

func main() {
	var (
		width       = flag.Int("width", 320, "framebuffer width in pixels")
		height      = flag.Int("height", 240, "framebuffer height in pixels")
		output      = flag.String("output", "splatdemo.png", "output PNG path")
		splats      = flag.Int("splats", 2000, "number of synthetic splats to generate")
		backend     = flag.String("backend", splatcore.BackendCPU, "rendering backend (cpu, gpu)")
		verbose     = flag.Bool("verbose", false, "enable debug logging")
		fovYDeg     = flag.Float64("fov", 60, "vertical field of view in degrees")
		cameraZ     = flag.Float64("camera-z", -6, "camera position along the world Z axis")
		cameraYaw   = flag.Float64("camera-yaw", math.Pi/2, "camera yaw in radians")
		cameraPitch = flag.Float64("camera-pitch", 0, "camera pitch in radians")
		seedSalt    = flag.Int("seed", 1, "deterministic PRNG salt for the synthetic scene")
	)
	flag.Parse()

	if *verbose {
		splatcore.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	scene := generateScene(*splats, *seedSalt)
	camera := buildCamera(*fovYDeg, *width, *height, float32(*cameraZ), float32(*cameraYaw), float32(*cameraPitch))

	p := splatcore.NewPipeline(*width, *height, splatcore.WithBackend(*backend))

	stats, err := p.Render(scene, camera)
	if err != nil {
		log.Fatalf("render failed: %v", err)
	}
	log.Printf("rendered %d/%d splats, %d overlaps, overflow=%v, backend=%s\n",
		stats.EmittedSplats, len(scene), stats.TotalOverlaps, stats.Overflow, p.Backend())

	if err := savePNG(*output, p.Framebuffer(), *width, *height); err != nil {
		log.Fatalf("failed to save %s: %v", *output, err)
	}
	log.Printf("demo saved to %s (%dx%d)\n", *output, *width, *height)
}

// generateScene builds a deterministic cloud of splats arranged on a
// sphere shell, colored by a simple hash of their index, for visual
// sanity-checking without needing a real scene file loader.
func generateScene(n, salt int) []splatcore.Splat {
	splats := make([]splatcore.Splat, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		theta := t * math.Pi * 8
		phi := math.Acos(1 - 2*t)
		r := 3.0

		x := r * math.Sin(phi) * math.Cos(theta)
		y := r * math.Sin(phi) * math.Sin(theta)
		z := r * math.Cos(phi)

		h := uint32(i*2654435761 + salt*40503)
		splats[i] = splatcore.Splat{
			Position: splatcore.Vec3{X: float32(x), Y: float32(y), Z: float32(z)},
			Scale:    splatcore.Vec3{X: 0.05, Y: 0.05, Z: 0.05},
			Rotation: splatcore.Quat{W: 1},
			Opacity:  0.9,
			Color:    0xFF000000 | (h & 0x00FFFFFF),
		}
	}
	return splats
}

func buildCamera(fovYDeg float64, width, height int, cameraZ, yaw, pitch float32) splatcore.Camera {
	fx, fy := splatcore.FocalLengths(float32(fovYDeg*math.Pi/180), width, height)
	right, up, forward := splatcore.CameraBasisFromYawPitch(yaw, pitch)
	return splatcore.Camera{
		Position:   splatcore.Vec3{Z: cameraZ},
		Right:      right,
		Up:         up,
		Forward:    forward,
		FX:         fx,
		FY:         fy,
		HalfWidth:  float32(width) / 2,
		HalfHeight: float32(height) / 2,
		Near:       0.01,
		Far:        1000,
	}
}

func savePNG(path string, framebuffer []uint32, width, height int) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, px := range framebuffer {
		r, g, b, a := splatcore.UnpackColor(px)
		o := i * 4
		img.Pix[o] = r
		img.Pix[o+1] = g
		img.Pix[o+2] = b
		img.Pix[o+3] = a
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

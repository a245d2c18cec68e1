package splatcore

import (
	"runtime"
	"time"

	"github.com/termsplat/splatcore/internal/bin"
	"github.com/termsplat/splatcore/internal/model"
	"github.com/termsplat/splatcore/internal/parallel"
	"github.com/termsplat/splatcore/internal/project"
	"github.com/termsplat/splatcore/internal/raster"
	"github.com/termsplat/splatcore/internal/scan"
	"github.com/termsplat/splatcore/internal/sortkey"
)

// cpuBackend is the reference implementation of Backend, running every
// stage of spec.md §2 on the CPU, sharded across a WorkerPool the way
// the teacher's tile compositor shards over tiles
// (internal/parallel/tile.go).
type cpuBackend struct {
	pool             *parallel.WorkerPool
	auxKeys, auxVals []uint32
}

func newCPUBackend() *cpuBackend {
	return &cpuBackend{pool: parallel.NewWorkerPool(runtime.GOMAXPROCS(0))}
}

func (b *cpuBackend) Name() string { return BackendCPU }

func (b *cpuBackend) Render(frame *Frame) (Stats, error) {
	cfg := frame.Config
	tileCountX, tileCountY := model.TileGridSize(frame.Width, frame.Height, cfg.TileSize)
	frame.EnsureCapacity(len(frame.Splats), tileCountX, tileCountY, cfg.SortCapacity)
	frame.Reset()

	stats := Stats{Backend: BackendCPU}

	t0 := time.Now()
	project.Run(frame, b.pool)
	stats.ProjectTime = time.Since(t0).Nanoseconds()
	stats.EmittedSplats = frame.ProjectedLen

	t0 = time.Now()
	bin.Count(frame, b.pool)
	stats.BinTime = time.Since(t0).Nanoseconds()

	t0 = time.Now()
	total, overflow := scan.Run(frame, cfg.SortCapacity)
	stats.ScanTime = time.Since(t0).Nanoseconds()
	stats.TotalOverlaps = total
	stats.Overflow = overflow
	if overflow {
		Logger().Warn("splatcore: sort capacity exceeded, excess overlaps dropped",
			"capacity", cfg.SortCapacity, "requested", total)
	}

	t0 = time.Now()
	sortkey.Emit(frame, b.pool)
	sortkey.Sort(frame, b.pool, &b.auxKeys, &b.auxVals)
	stats.SortTime = time.Since(t0).Nanoseconds()

	t0 = time.Now()
	raster.Run(frame, b.pool)
	stats.RasterTime = time.Since(t0).Nanoseconds()

	return stats, nil
}

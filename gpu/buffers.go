package gpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BufferPlan describes one storage/uniform buffer a full GPU
// implementation would allocate for a frame, grounded on the teacher's
// BufferDescriptor (internal/gpu/buffer.go) and its CreateBuffer
// validation (Label/Size/Usage, 4-byte copy alignment). splatcore never
// calls hal.Device.CreateBuffer itself (no adapter/device pair is
// guaranteed to exist in this module's execution environment); PlanBuffers
// builds the hal.BufferDescriptor values a real device would consume so
// the binding layout stays exercised and reviewable independent of
// device availability.
type BufferPlan struct {
	Splats      hal.BufferDescriptor
	Projected   hal.BufferDescriptor
	TileCounts  hal.BufferDescriptor
	TileOffsets hal.BufferDescriptor
	SortKeys    hal.BufferDescriptor
	SortValues  hal.BufferDescriptor
	Framebuffer hal.BufferDescriptor
}

const copyBufferAlignment uint64 = 4

func alignedSize(n int, elemSize uint64) uint64 {
	size := uint64(n) * elemSize
	return (size + copyBufferAlignment - 1) &^ (copyBufferAlignment - 1)
}

// PlanBuffers computes the buffer layout for a frame of the given splat
// count and tile grid, mirroring the storage/uniform usage flags a
// compute pass binding each of the five kernels (shaders.go) would
// require: splats and the tile grid are read-only inputs, everything
// else is read_write storage the pipeline's later stages consume.
func PlanBuffers(numSplats, numTiles, sortCapacity, framebufferLen int) BufferPlan {
	storageRW := gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	storageRO := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst

	const splatStride = 64        // WGSL Splat: vec3 fields 16-byte aligned, struct padded to 16
	const projectedStride = 44    // WGSL ProjectedSplat: eleven 4-byte fields, no padding
	const wordStride = 4          // one uint32

	return BufferPlan{
		Splats: hal.BufferDescriptor{
			Label: "splatcore.splats",
			Size:  alignedSize(numSplats, splatStride),
			Usage: storageRO,
		},
		Projected: hal.BufferDescriptor{
			Label: "splatcore.projected",
			Size:  alignedSize(numSplats, projectedStride),
			Usage: storageRW,
		},
		TileCounts: hal.BufferDescriptor{
			Label: "splatcore.tile_counts",
			Size:  alignedSize(numTiles, wordStride),
			Usage: storageRW,
		},
		TileOffsets: hal.BufferDescriptor{
			Label: "splatcore.tile_offsets",
			Size:  alignedSize(numTiles+1, wordStride),
			Usage: storageRW,
		},
		SortKeys: hal.BufferDescriptor{
			Label: "splatcore.sort_keys",
			Size:  alignedSize(sortCapacity, wordStride),
			Usage: storageRW,
		},
		SortValues: hal.BufferDescriptor{
			Label: "splatcore.sort_values",
			Size:  alignedSize(sortCapacity, wordStride),
			Usage: storageRW,
		},
		Framebuffer: hal.BufferDescriptor{
			Label: "splatcore.framebuffer",
			Size:  alignedSize(framebufferLen, wordStride),
			Usage: storageRW | gputypes.BufferUsageMapRead,
		},
	}
}

// ReadbackMode is the gputypes.MapMode a caller would use to read the
// framebuffer buffer back to host memory once a dispatch completes.
const ReadbackMode = gputypes.MapModeRead

package splatcore

import "github.com/termsplat/splatcore/internal/model"

// Color channels are packed 0xAABBGGRR: R in bits 0-7, G in bits 8-15,
// B in bits 16-23, A in bits 24-31 (spec.md §3, §6).

// UnpackColor splits a packed 0xAABBGGRR color into its four 8-bit
// channels.
func UnpackColor(c uint32) (r, g, b, a uint8) {
	return model.UnpackColorRGBA(c)
}

// PackColor combines four 8-bit channels into the packed 0xAABBGGRR
// layout used throughout splatcore.
func PackColor(r, g, b, a uint8) uint32 {
	return model.PackColorRGBA(r, g, b, a)
}

// clampByte clamps a float accumulator to [0, 255] and rounds it to the
// nearest byte. The rasterizer's own color finalization truncates instead
// (internal/raster's clampByteTrunc); only its alpha channel rounds.
func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

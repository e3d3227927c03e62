// Package kernel implements the software pixel kernels: alpha
// blending, plain copy and fill, over RGB565 and RGB888, in strided
// and direct (linear-run) variants, with an optional color-key mask.
//
// All blends use the fixed-point convention prescribed by the spec:
// out = (src*ratio + dst*(256-ratio)) >> 8 per channel. This means
// ratio=255 is not quite a pure-source pass-through (a value of 256
// would be, but ratio is an 8-bit field) — that is the documented
// behavior, not a bug.
package kernel

// rgb565 holds the three unpacked channels of an RGB565 pixel, each in
// its native bit width (5, 6, 5).
type rgb565 struct {
	R, G, B uint16
}

func unpack565(c uint16) rgb565 {
	return rgb565{
		R: (c >> 11) & 0x1F,
		G: (c >> 5) & 0x3F,
		B: c & 0x1F,
	}
}

func pack565(p rgb565) uint16 {
	return (p.R&0x1F)<<11 | (p.G&0x3F)<<5 | (p.B & 0x1F)
}

func blend565(s, t rgb565, ratio uint8) rgb565 {
	hi := uint16(ratio)
	lo := uint16(256 - int(ratio))

	return rgb565{
		R: (s.R*hi + t.R*lo) >> 8,
		G: (s.G*hi + t.G*lo) >> 8,
		B: (s.B*hi + t.B*lo) >> 8,
	}
}

// rowAdvance returns the number of pixels to skip to reach the next row of a strided region; stride and
// width are both in pixels.
func rowAdvance(stride, width int32) int32 {
	return stride - width
}

// BlendRGB565Strided alpha-blends src into dst in place, row by row,
// honoring strides that may exceed width (a sub-tile view). src and
// dst may be the same slice. width/height of zero is a no-op.
func BlendRGB565Strided(src, dst []uint16, srcOff, dstOff, srcStride, dstStride int32, width, height uint32, ratio uint8) {
	if width == 0 || height == 0 {
		return
	}

	srcAdv := rowAdvance(srcStride, int32(width))
	dstAdv := rowAdvance(dstStride, int32(width))

	si, di := srcOff, dstOff
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			dst[di] = pack565(blend565(unpack565(src[si]), unpack565(dst[di]), ratio))
			si++
			di++
		}
		si += srcAdv
		di += dstAdv
	}
}

// BlendRGB565Direct treats src, background and destination as linear
// runs of count pixels — used when the caller has already verified
// srcStride == dstStride == width, so there is no per-row bookkeeping.
// background lets the caller compose two read-only operands into a
// third destination buffer. srcOff and dstOff are independent: src and
// background/destination need not start at the same index (they are
// ordinarily different buffers entirely, and even when they alias the
// same root buffer a vertically offset target region gives them
// different offsets).
func BlendRGB565Direct(src, background, destination []uint16, srcOff, dstOff int32, count uint32, ratio uint8) {
	if count == 0 {
		return
	}

	for i := int32(0); i < int32(count); i++ {
		destination[dstOff+i] = pack565(blend565(unpack565(src[srcOff+i]), unpack565(background[dstOff+i]), ratio))
	}
}

// BlendRGB565StridedMasked is identical to BlendRGB565Strided except
// source pixels equal to key are skipped (the target is left
// untouched at that position).
func BlendRGB565StridedMasked(src, dst []uint16, srcOff, dstOff, srcStride, dstStride int32, width, height uint32, ratio uint8, key uint16) {
	if width == 0 || height == 0 {
		return
	}

	srcAdv := rowAdvance(srcStride, int32(width))
	dstAdv := rowAdvance(dstStride, int32(width))

	si, di := srcOff, dstOff
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			if src[si] != key {
				dst[di] = pack565(blend565(unpack565(src[si]), unpack565(dst[di]), ratio))
			}
			si++
			di++
		}
		si += srcAdv
		di += dstAdv
	}
}

// FillRGB565 fills a strided rectangle with a solid color.
func FillRGB565(dst []uint16, dstOff, dstStride int32, width, height uint32, color uint16) {
	if width == 0 || height == 0 {
		return
	}

	adv := rowAdvance(dstStride, int32(width))
	di := dstOff
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			dst[di] = color
			di++
		}
		di += adv
	}
}

// CopyRGB565 copies a strided rectangle verbatim, with no blending.
func CopyRGB565(src, dst []uint16, srcOff, dstOff, srcStride, dstStride int32, width, height uint32) {
	if width == 0 || height == 0 {
		return
	}

	srcAdv := rowAdvance(srcStride, int32(width))
	dstAdv := rowAdvance(dstStride, int32(width))

	si, di := srcOff, dstOff
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			dst[di] = src[si]
			si++
			di++
		}
		si += srcAdv
		di += dstAdv
	}
}

package kernel

// rgb888 holds the four unpacked bytes of an RGB888 pixel (R, G, B and
// a fourth padding/alpha byte). The kernel blends all four channels
// identically — it does not special-case byte 3; callers who need the
// alpha slot preserved must zero it themselves.
type rgb888 struct {
	C [4]uint32
}

func unpack888(c uint32) rgb888 {
	return rgb888{C: [4]uint32{
		c & 0xFF,
		(c >> 8) & 0xFF,
		(c >> 16) & 0xFF,
		(c >> 24) & 0xFF,
	}}
}

func pack888(p rgb888) uint32 {
	return p.C[0] | p.C[1]<<8 | p.C[2]<<16 | p.C[3]<<24
}

func blend888(s, t rgb888, ratio uint8) rgb888 {
	hi := uint32(ratio)
	lo := uint32(256 - int(ratio))

	var out rgb888
	for i := 0; i < 4; i++ {
		out.C[i] = (s.C[i]*hi + t.C[i]*lo) >> 8
	}
	return out
}

// BlendRGB888Strided is the RGB888 analogue of BlendRGB565Strided.
func BlendRGB888Strided(src, dst []uint32, srcOff, dstOff, srcStride, dstStride int32, width, height uint32, ratio uint8) {
	if width == 0 || height == 0 {
		return
	}

	srcAdv := rowAdvance(srcStride, int32(width))
	dstAdv := rowAdvance(dstStride, int32(width))

	si, di := srcOff, dstOff
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			dst[di] = pack888(blend888(unpack888(src[si]), unpack888(dst[di]), ratio))
			si++
			di++
		}
		si += srcAdv
		di += dstAdv
	}
}

// BlendRGB888Direct is the RGB888 analogue of BlendRGB565Direct.
func BlendRGB888Direct(src, background, destination []uint32, srcOff, dstOff int32, count uint32, ratio uint8) {
	if count == 0 {
		return
	}

	for i := int32(0); i < int32(count); i++ {
		destination[dstOff+i] = pack888(blend888(unpack888(src[srcOff+i]), unpack888(background[dstOff+i]), ratio))
	}
}

// BlendRGB888StridedMasked is the RGB888 analogue of
// BlendRGB565StridedMasked.
func BlendRGB888StridedMasked(src, dst []uint32, srcOff, dstOff, srcStride, dstStride int32, width, height uint32, ratio uint8, key uint32) {
	if width == 0 || height == 0 {
		return
	}

	srcAdv := rowAdvance(srcStride, int32(width))
	dstAdv := rowAdvance(dstStride, int32(width))

	si, di := srcOff, dstOff
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			if src[si] != key {
				dst[di] = pack888(blend888(unpack888(src[si]), unpack888(dst[di]), ratio))
			}
			si++
			di++
		}
		si += srcAdv
		di += dstAdv
	}
}

// FillRGB888 fills a strided rectangle with a solid color.
func FillRGB888(dst []uint32, dstOff, dstStride int32, width, height uint32, color uint32) {
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

// CopyRGB888 copies a strided rectangle verbatim, with no blending.
func CopyRGB888(src, dst []uint32, srcOff, dstOff, srcStride, dstStride int32, width, height uint32) {
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

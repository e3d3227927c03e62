// Package convert implements pixel-format conversion between the
// engine's native RGB565/RGB888 tile formats and the standard library's
// image.Image, plus the raw per-pixel conversions the dispatcher needs
// when a CopyLike sub-task's source and target tiles disagree on
// format. Resampling for mismatched sizes is delegated to
// golang.org/x/image/draw rather than hand-rolled, matching the rest of
// the corpus's reliance on that package for anything beyond 1:1 pixel
// copies.
package convert

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/pix2d/engine/geometry"
)

// RGB565From888 truncates a 32-bit RGB888 pixel (low three bytes,
// R/G/B order) to RGB565 by dropping the low bits of each channel (no
// rounding).
func RGB565From888(c uint32) uint16 {
	r := uint16(c&0xFF) >> 3
	g := uint16((c>>8)&0xFF) >> 2
	b := uint16((c>>16)&0xFF) >> 3
	return r<<11 | g<<5 | b
}

// RGB888From565 expands an RGB565 pixel to RGB888 by replicating the
// high bits into the newly available low bits of each channel, rather
// than zero-filling, so full-scale white/black round-trip exactly.
func RGB888From565(c uint16) uint32 {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F

	r := r5<<3 | r5>>2
	g := g6<<2 | g6>>4
	b := b5<<3 | b5>>2

	return r | g<<8 | b<<16
}

// CopyPixel converts and copies one pixel from src to dst at the given
// offsets, resolving whatever format mismatch exists between the two
// root buffers. It panics if either root buffer's format tag doesn't
// match the slice it actually populated, which would indicate a
// construction bug elsewhere in the engine.
func CopyPixel(dst geometry.WorkRect, dstIdx int32, src geometry.WorkRect, srcIdx int32) {
	switch {
	case src.Root.Format == geometry.RGB565 && dst.Root.Format == geometry.RGB888:
		dst.Root.Px888[dst.Offset+dstIdx] = RGB888From565(src.Root.Px565[src.Offset+srcIdx])
	case src.Root.Format == geometry.RGB888 && dst.Root.Format == geometry.RGB565:
		dst.Root.Px565[dst.Offset+dstIdx] = RGB565From888(src.Root.Px888[src.Offset+srcIdx])
	case src.Root.Format == dst.Root.Format && dst.Root.Format == geometry.RGB565:
		dst.Root.Px565[dst.Offset+dstIdx] = src.Root.Px565[src.Offset+srcIdx]
	case src.Root.Format == dst.Root.Format && dst.Root.Format == geometry.RGB888:
		dst.Root.Px888[dst.Offset+dstIdx] = src.Root.Px888[src.Offset+srcIdx]
	default:
		panic(fmt.Sprintf("convert: unhandled format pair %v -> %v", src.Root.Format, dst.Root.Format))
	}
}

// Tile converts every pixel of a strided rectangle from src's format
// into dst's, row by row. Used by the dispatcher's CopyLike fallback
// (see op.BackendTable.Convert) whenever the two sides disagree on
// color format.
func Tile(dst, src geometry.WorkRect) {
	if src.Size.Empty() {
		return
	}

	for y := uint32(0); y < src.Size.H; y++ {
		rowSrc := src.Offset + int32(y)*src.Stride
		rowDst := dst.Offset + int32(y)*dst.Stride
		for x := uint32(0); x < src.Size.W; x++ {
			CopyPixel(
				geometry.WorkRect{Root: dst.Root, Offset: rowDst, Stride: dst.Stride, Size: dst.Size}, int32(x),
				geometry.WorkRect{Root: src.Root, Offset: rowSrc, Stride: src.Stride, Size: src.Size}, int32(x),
			)
		}
	}
}

// FromImage converts an arbitrary image.Image into a freshly allocated
// root tile of the given format and size. When the image's bounds
// don't match the requested size, it is resampled first via
// golang.org/x/image/draw's approximate-bilinear scaler.
func FromImage(img image.Image, format geometry.ColorFormat, width, height uint32) *geometry.Tile {
	bounds := img.Bounds()
	if uint32(bounds.Dx()) != width || uint32(bounds.Dy()) != height {
		scaled := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
	}

	tile := geometry.NewRootTile(format, width, height, int32(width))
	root, _ := tile.Root()

	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			r, g, b, _ := img.At(int(x), int(y)).RGBA()
			// RGBA() returns 16-bit-per-channel premultiplied
			// values; shift down to 8 bits.
			c8 := uint32(r>>8) | uint32(g>>8)<<8 | uint32(b>>8)<<16
			idx := int32(y)*root.Stride + int32(x)
			switch format {
			case geometry.RGB565:
				root.Px565[idx] = RGB565From888(c8)
			case geometry.RGB888:
				root.Px888[idx] = c8
			}
		}
	}

	return tile
}

// ToImage renders tile into a standard library image.NRGBA, primarily
// for demo display and for tests that want to assert on pixel content
// using stdlib image comparisons.
func ToImage(tile *geometry.Tile) (*image.NRGBA, error) {
	wr, ok := geometry.TileClip(tile, nil)
	if !ok {
		return nil, fmt.Errorf("convert: tile has no visible pixels")
	}

	size := tile.Size()
	out := image.NewNRGBA(image.Rect(0, 0, int(size.W), int(size.H)))

	for y := uint32(0); y < size.H; y++ {
		for x := uint32(0); x < size.W; x++ {
			idx := wr.Offset + int32(y)*wr.Stride + int32(x)
			var c32 uint32
			switch wr.Root.Format {
			case geometry.RGB565:
				c32 = RGB888From565(wr.Root.Px565[idx])
			case geometry.RGB888:
				c32 = wr.Root.Px888[idx]
			default:
				return nil, fmt.Errorf("convert: unknown color format %v", wr.Root.Format)
			}

			out.Set(int(x), int(y), color.NRGBA{
				R: uint8(c32 & 0xFF),
				G: uint8((c32 >> 8) & 0xFF),
				B: uint8((c32 >> 16) & 0xFF),
				A: 0xFF,
			})
		}
	}

	return out, nil
}

// Package geometry implements the tile/region data model: locations,
// sizes, regions, and the root/child tile ownership graph, plus the
// intersection and absolute-address resolution used to turn a
// (tile, region) pair into the rectangle of pixels an operation should
// actually touch.
package geometry

import "fmt"

// ColorFormat tags the pixel layout of a tile.
type ColorFormat uint8

const (
	RGB565 ColorFormat = iota
	RGB888
)

// PixelBits returns the number of bits occupied by one pixel in this
// format.
func (f ColorFormat) PixelBits() int {
	switch f {
	case RGB565:
		return 16
	case RGB888:
		return 32
	default:
		panic(fmt.Sprintf("geometry: unknown color format %d", f))
	}
}

func (f ColorFormat) String() string {
	switch f {
	case RGB565:
		return "RGB565"
	case RGB888:
		return "RGB888"
	default:
		return fmt.Sprintf("ColorFormat(%d)", uint8(f))
	}
}

// Location is a signed 2D integer coordinate.
type Location struct {
	X, Y int32
}

// Size is an unsigned 2D extent. A Size is empty when either W or H is
// zero.
type Size struct {
	W, H uint32
}

// Empty reports whether the size covers no pixels.
func (s Size) Empty() bool {
	return s.W == 0 || s.H == 0
}

// Region is a Location plus a Size, expressed in the coordinate frame
// of whichever tile it is paired with.
type Region struct {
	Location
	Size
}

// Right and Bottom are the exclusive bounds of the region, kept as
// signed 32-bit arithmetic per the spec's invariant.
func (r Region) Right() int32  { return r.X + int32(r.W) }
func (r Region) Bottom() int32 { return r.Y + int32(r.H) }

// Intersect computes the axis-aligned intersection of two regions. The
// second return value is false (and the first meaningless) when the
// regions don't overlap at all.
func (a Region) Intersect(b Region) (Region, bool) {
	x0 := max32(a.X, b.X)
	y0 := max32(a.Y, b.Y)
	x1 := min32(a.Right(), b.Right())
	y1 := min32(a.Bottom(), b.Bottom())

	if x1 <= x0 || y1 <= y0 {
		return Region{}, false
	}

	return Region{
		Location: Location{X: x0, Y: y0},
		Size:     Size{W: uint32(x1 - x0), H: uint32(y1 - y0)},
	}, true
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

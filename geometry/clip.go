package geometry

// WorkRect is the resolved output of TileClip: an absolute rectangle
// of pixels to touch, expressed as an offset (in pixels, row-major)
// into a RootBuffer plus the stride to advance between rows.
type WorkRect struct {
	Root   *RootBuffer
	Offset int32 // pixel index of (0,0) of the rectangle within Root
	Stride int32 // in pixels
	Size   Size
}

// Empty reports whether the work rect covers zero pixels. Per the
// spec, a work rect with width or height 0 must be reported as
// OutOfRegion by the caller rather than dispatched.
func (w WorkRect) Empty() bool {
	return w.Size.Empty()
}

// TileClip intersects region (nil means "the whole tile") with tile's
// bounds and resolves the result to an absolute WorkRect. ok is false
// when the intersection is empty, signaling OUT_OF_REGION to the
// caller.
func TileClip(tile *Tile, region *Region) (WorkRect, bool) {
	bounds := tile.Bounds()

	target := bounds
	if region != nil {
		isect, overlap := bounds.Intersect(*region)
		if !overlap {
			return WorkRect{}, false
		}
		target = isect
	}

	if target.Size.Empty() {
		return WorkRect{}, false
	}

	root, base := tile.Root()
	stride := root.Stride

	px := base.X + target.X
	py := base.Y + target.Y

	return WorkRect{
		Root:   root,
		Offset: py*stride + px,
		Stride: stride,
		Size:   target.Size,
	}, true
}

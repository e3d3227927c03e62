package geometry

import "fmt"

// RootBuffer is the pixel memory owned by a root tile. Exactly one of
// Px565/Px888 is populated, matching the tile's ColorFormat.
type RootBuffer struct {
	Format ColorFormat
	Stride int32 // in pixels, not bytes
	Px565  []uint16
	Px888  []uint32
}

// Tile is a rectangular pixel buffer descriptor. It is either a root
// (owns pixel memory, via owner) or a child (carries a Parent plus a
// Region within it). A Tile's parent is fixed at construction time by
// NewChildTile, so the parent graph can never contain a cycle: you
// cannot name a tile as your parent before that tile itself exists.
type Tile struct {
	format ColorFormat
	size   Size

	owner  *RootBuffer // set when this tile is a root
	parent *Tile       // set when this tile is a child
	region Region       // valid when parent != nil
}

// NewRootTile allocates a root tile backed by a freshly allocated
// pixel buffer of the given stride (in pixels) and height.
func NewRootTile(format ColorFormat, width, height uint32, stride int32) *Tile {
	if stride < int32(width) {
		panic("geometry: stride must be at least as large as width")
	}

	rb := &RootBuffer{Format: format, Stride: stride}
	switch format {
	case RGB565:
		rb.Px565 = make([]uint16, int(stride)*int(height))
	case RGB888:
		rb.Px888 = make([]uint32, int(stride)*int(height))
	default:
		panic(fmt.Sprintf("geometry: unknown color format %d", format))
	}

	return &Tile{
		format: format,
		size:   Size{W: width, H: height},
		owner:  rb,
	}
}

// WrapRootBuffer builds a root tile around pixel memory the caller
// already owns (e.g. a framebuffer supplied by a display driver).
func WrapRootBuffer(rb *RootBuffer, width, height uint32) *Tile {
	return &Tile{format: rb.Format, size: Size{W: width, H: height}, owner: rb}
}

// NewChildTile creates a sub-tile of parent, covering region (in
// parent's coordinate frame). The child inherits parent's color
// format.
func NewChildTile(parent *Tile, region Region) *Tile {
	if parent == nil {
		panic("geometry: child tile must have a non-nil parent")
	}

	return &Tile{
		format: parent.format,
		size:   region.Size,
		parent: parent,
		region: region,
	}
}

// Format returns the tile's color format tag.
func (t *Tile) Format() ColorFormat { return t.format }

// Size returns the tile's overall size.
func (t *Tile) Size() Size { return t.size }

// IsRoot reports whether the tile owns its own pixel memory.
func (t *Tile) IsRoot() bool { return t.owner != nil }

// Bounds returns the region, rooted at (0,0), covering the whole tile
// in its own coordinate frame.
func (t *Tile) Bounds() Region {
	return Region{Size: t.size}
}

// Root walks the parent chain (if any) and returns the owning
// RootBuffer together with the accumulated absolute offset of this
// tile's (0,0) pixel within that buffer.
func (t *Tile) Root() (*RootBuffer, Location) {
	var off Location
	cur := t

	for cur.owner == nil {
		if cur.parent == nil {
			panic("geometry: tile is neither root nor child")
		}
		off.X += cur.region.X
		off.Y += cur.region.Y
		cur = cur.parent
	}

	return cur.owner, off
}

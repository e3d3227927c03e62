package engine

import (
	"context"
	"testing"

	"github.com/pix2d/engine/geometry"
	"github.com/pix2d/engine/op"
	"github.com/pix2d/engine/status"
)

func newEngine(feature op.RuntimeFeature) *Engine {
	return New(Config{PoolCapacity: 4, Feature: feature})
}

func TestFillRGB565PaintsSolidColor(t *testing.T) {
	e := newEngine(op.RuntimeFeature{})
	target := geometry.NewRootTile(geometry.RGB565, 4, 4, 4)

	_, result := e.Fill(target, nil, 0x1234, op.SWOnly, nil, nil)
	if result != status.Async {
		t.Fatalf("Fill result = %v, want Async", result)
	}

	root, _ := target.Root()
	for i, got := range root.Px565 {
		if got != 0x1234 {
			t.Errorf("pixel %d = %#x, want %#x", i, got, 0x1234)
		}
	}
}

func TestAlphaBlendRGB565RatioZeroLeavesTargetUnchanged(t *testing.T) {
	e := newEngine(op.RuntimeFeature{})
	source := geometry.NewRootTile(geometry.RGB565, 2, 2, 2)
	target := geometry.NewRootTile(geometry.RGB565, 2, 2, 2)

	srcRoot, _ := source.Root()
	for i := range srcRoot.Px565 {
		srcRoot.Px565[i] = 0xFFFF
	}
	dstRoot, _ := target.Root()
	for i := range dstRoot.Px565 {
		dstRoot.Px565[i] = 0x0000
	}

	_, result := e.AlphaBlendRGB565(source, target, nil, 0, op.SWOnly, nil, nil)
	if result != status.Async {
		t.Fatalf("AlphaBlendRGB565 result = %v, want Async", result)
	}

	for i, got := range dstRoot.Px565 {
		if got != 0x0000 {
			t.Errorf("pixel %d = %#x, want unchanged 0x0000 at ratio 0", i, got)
		}
	}
}

func TestAlphaBlendRGB565WithVerticallyOffsetTargetRegionUsesMatchingSourceRows(t *testing.T) {
	// A full-width source blended into a full-width but vertically
	// offset target region makes DirectEligible true (both strides
	// equal width) while dst.Offset != src.Offset. The direct kernel
	// must still read source starting at its own offset (0), not at
	// the target's offset — and must not index past the end of the
	// (deliberately exactly-sized) source buffer.
	e := newEngine(op.RuntimeFeature{})
	source := geometry.NewRootTile(geometry.RGB565, 4, 3, 4) // 12 pixels, no slack
	target := geometry.NewRootTile(geometry.RGB565, 4, 5, 4)

	srcRoot, _ := source.Root()
	for i := range srcRoot.Px565 {
		srcRoot.Px565[i] = 0xFFFF
	}

	region := &geometry.Region{Location: geometry.Location{X: 0, Y: 2}, Size: geometry.Size{W: 4, H: 3}}

	_, result := e.AlphaBlendRGB565(source, target, region, 255, op.SWOnly, nil, nil)
	if result != status.Async {
		t.Fatalf("result = %v, want Async", result)
	}

	dstRoot, _ := target.Root()
	const want = 0xF7DE // blend565(white, black, ratio=255), see kernel doc comment on ratio=255
	for i, got := range dstRoot.Px565 {
		row := i / 4
		if row >= 2 {
			if got != want {
				t.Errorf("pixel %d (row %d, in region) = %#04x, want %#04x", i, row, got, want)
			}
		} else if got != 0x0000 {
			t.Errorf("pixel %d (row %d, outside region) = %#04x, want unchanged 0x0000", i, row, got)
		}
	}
}

func TestAlphaBlendOutOfRegionWhenRegionMisses(t *testing.T) {
	e := newEngine(op.RuntimeFeature{})
	source := geometry.NewRootTile(geometry.RGB565, 2, 2, 2)
	target := geometry.NewRootTile(geometry.RGB565, 4, 4, 4)

	region := &geometry.Region{Location: geometry.Location{X: 100, Y: 100}, Size: geometry.Size{W: 2, H: 2}}

	record, result := e.AlphaBlendRGB565(source, target, region, 128, op.SWOnly, nil, nil)
	if result != status.OutOfRegion {
		t.Fatalf("result = %v, want OutOfRegion", result)
	}
	if !record.IsComplete() || !record.IOError() {
		t.Errorf("record should be Complete with IOError after an OutOfRegion result")
	}
}

func TestFillPoolExhaustionReturnsNotSupport(t *testing.T) {
	e := newEngine(op.RuntimeFeature{})
	target := geometry.NewRootTile(geometry.RGB565, 2, 2, 2)

	for i := 0; i < 4; i++ {
		if ok := e.pool.Reserve(1); !ok {
			t.Fatalf("Reserve %d unexpectedly failed against a fresh capacity-4 pool", i)
		}
	}

	_, result := e.Fill(target, nil, 0, op.SWOnly, nil, nil)
	if result != status.NotSupport {
		t.Fatalf("Fill against an exhausted pool returned %v, want NotSupport", result)
	}
}

func TestCopyConvertsAcrossFormats(t *testing.T) {
	e := newEngine(op.RuntimeFeature{})
	source := geometry.NewRootTile(geometry.RGB888, 2, 2, 2)
	target := geometry.NewRootTile(geometry.RGB565, 2, 2, 2)

	srcRoot, _ := source.Root()
	srcRoot.Px888[0] = 0x0000FF

	backends := &op.BackendTable{Convert: convertStub}
	e2 := New(Config{PoolCapacity: 4, Backends: backends})

	_, result := e2.Copy(source, target, nil, op.SWOnly, nil, nil)
	if result != status.Async {
		t.Fatalf("Copy result = %v, want Async", result)
	}

	dstRoot, _ := target.Root()
	if dstRoot.Px565[0] != 0xF800 {
		t.Errorf("dst[0] = %#x, want 0xF800 (converted red)", dstRoot.Px565[0])
	}
}

func convertStub(dst, src geometry.WorkRect) {
	for y := uint32(0); y < src.Size.H; y++ {
		for x := uint32(0); x < src.Size.W; x++ {
			c := src.Root.Px888[src.Offset+int32(y)*src.Stride+int32(x)]
			r := uint16(c&0xFF) >> 3
			g := uint16((c>>8)&0xFF) >> 2
			b := uint16((c>>16)&0xFF) >> 3
			dst.Root.Px565[dst.Offset+int32(y)*dst.Stride+int32(x)] = r<<11 | g<<5 | b
		}
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	e := newEngine(op.RuntimeFeature{HasDedicatedThreadFor2DTask: true})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	cancel()
	<-done
}

// Package native implements a hardware backend (C9) that delegates
// pixel work to a vendor-supplied shared library, loaded at runtime via
// github.com/ebitengine/purego rather than cgo. This mirrors how an SoC
// vendor would ship a closed-source 2D accelerator driver without the
// engine needing a build-time dependency on it.
package native

import (
	"fmt"

	"github.com/ebitengine/purego"

	"github.com/pix2d/engine/op"
	"github.com/pix2d/engine/status"
)

// blitFunc matches the vendor ABI this backend expects:
//
//	void blit(uint16_t *src, uint16_t *dst, int32_t src_off,
//	          int32_t dst_off, int32_t src_stride, int32_t dst_stride,
//	          uint32_t width, uint32_t height, uint8_t ratio)
type blitFunc func(src, dst uintptr, srcOff, dstOff, srcStride, dstStride int32, width, height uint32, ratio uint8)

// Backend binds a vendor shared library's RGB565 blit entry point to the
// op.Backend interface. A zero-value Backend is never usable; build one
// with Load.
type Backend struct {
	handle uintptr
	blit565 blitFunc
}

// Load opens the shared library at path and resolves the symbols this
// backend needs. It returns an error rather than panicking, since a
// missing or incompatible vendor library is an expected condition in
// the field, not a programming error.
func Load(path string) (*Backend, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("native: dlopen %s: %w", path, err)
	}

	b := &Backend{handle: handle}
	// A missing symbol leaves blit565 nil, so Dispatch reports
	// NotSupport instead of Load panicking.
	if sym, err := purego.Dlsym(handle, "pix2d_blit_rgb565"); err == nil {
		purego.RegisterFunc(&b.blit565, sym)
	}

	return b, nil
}

// Dispatch implements op.Backend. It only services unmasked RGB565
// blend sub-tasks; anything else (including color-keyed blends), or any
// task reaching it while the library
// failed to expose the expected symbol, reports NotSupport so the
// dispatcher falls back to software.
func (b *Backend) Dispatch(t *op.Task) status.Status {
	if b == nil || b.blit565 == nil {
		return status.NotSupport
	}
	if t.IOType != op.FillLike {
		return status.NotSupport
	}

	p := t.Fill
	if p.Size.Empty() {
		return status.OutOfRegion
	}
	if t.Op == nil || t.Op.Kind != op.KindAlphaBlendRGB565 {
		return status.NotSupport
	}
	if p.Source.Root.Px565 == nil || p.Target.Root.Px565 == nil {
		return status.NotSupport
	}

	b.blit565(
		uintptrOfSlice(p.Source.Root.Px565), uintptrOfSlice(p.Target.Root.Px565),
		p.Source.Offset, p.Target.Offset, p.Source.Stride, p.Target.Stride,
		p.Size.W, p.Size.H, t.Op.Ratio,
	)

	return status.CPL
}

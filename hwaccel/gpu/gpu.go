// Package gpu implements a hardware backend (C9) that offloads the
// RGB565 alpha blend kernel to the GPU via
// github.com/hajimehoshi/ebiten/v2 and a Kage shader, the same
// rendering stack the teacher uses for on-screen presentation.
// Reading pixels back from an ebiten.Image forces a sync point with
// the GPU driver, so a blocking Dispatch would stall the caller for as
// long as the driver takes to flush its command queue — instead
// Dispatch enqueues the draw and returns Async immediately, and a
// worker goroutine performs the (blocking) readback and reports
// completion through the interrupt-domain path.
package gpu

import (
	_ "embed"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/pix2d/engine/geometry"
	"github.com/pix2d/engine/op"
	"github.com/pix2d/engine/status"
)

//go:embed blend.kage
var blendShaderSrc []byte

// Backend runs alpha blends on the GPU. The zero value is not usable;
// construct one with New.
type Backend struct {
	shader *ebiten.Shader

	mu      sync.Mutex
	pending int
}

// New compiles the blend shader. It returns an error if the Kage
// source fails to compile, which should only happen if the shader file
// itself is broken — there is no hardware-dependent failure mode here,
// unlike native.Load.
func New() (*Backend, error) {
	shader, err := ebiten.NewShader(blendShaderSrc)
	if err != nil {
		return nil, err
	}
	return &Backend{shader: shader}, nil
}

// Dispatch implements op.Backend. It only services unmasked RGB565
// blend sub-tasks; anything else (including color-keyed blends) reports
// NotSupport so the dispatcher falls back to software.
func (b *Backend) Dispatch(t *op.Task) status.Status {
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

	b.mu.Lock()
	b.pending++
	b.mu.Unlock()

	rec := t.Op
	go b.runAndNotify(t, rec, p)

	return status.Async
}

func (b *Backend) runAndNotify(t *op.Task, rec *op.Record, p op.BlendParams) {
	src := ebiten.NewImage(int(p.Size.W), int(p.Size.H))
	dst := ebiten.NewImage(int(p.Size.W), int(p.Size.H))

	writePixels565(src, p.Source)
	writePixels565(dst, p.Target)

	out := ebiten.NewImage(int(p.Size.W), int(p.Size.H))
	opts := &ebiten.DrawRectShaderOptions{}
	opts.Images[0] = src
	opts.Images[1] = dst
	opts.Uniforms = map[string]any{
		"Ratio": float32(rec.Ratio) / 255,
	}
	out.DrawRectShader(int(p.Size.W), int(p.Size.H), b.shader, opts)

	readPixels565(out, p.Target)

	b.mu.Lock()
	b.pending--
	b.mu.Unlock()

	rec.NotifySubTaskComplete(t, status.CPL, true)
}

func writePixels565(img *ebiten.Image, wr geometry.WorkRect) {
	pix := make([]byte, 4*int(wr.Size.W)*int(wr.Size.H))
	i := 0
	for y := uint32(0); y < wr.Size.H; y++ {
		row := wr.Offset + int32(y)*wr.Stride
		for x := uint32(0); x < wr.Size.W; x++ {
			c := wr.Root.Px565[row+int32(x)]
			r := (c >> 11) & 0x1F
			g := (c >> 5) & 0x3F
			bl := c & 0x1F
			pix[i] = byte(r << 3)
			pix[i+1] = byte(g << 2)
			pix[i+2] = byte(bl << 3)
			pix[i+3] = 0xFF
			i += 4
		}
	}
	img.WritePixels(pix)
}

func readPixels565(img *ebiten.Image, wr geometry.WorkRect) {
	pix := make([]byte, 4*int(wr.Size.W)*int(wr.Size.H))
	img.ReadPixels(pix)

	i := 0
	for y := uint32(0); y < wr.Size.H; y++ {
		row := wr.Offset + int32(y)*wr.Stride
		for x := uint32(0); x < wr.Size.W; x++ {
			r := uint16(pix[i]) >> 3
			g := uint16(pix[i+1]) >> 2
			bl := uint16(pix[i+2]) >> 3
			wr.Root.Px565[row+int32(x)] = r<<11 | g<<5 | bl
			i += 4
		}
	}
}

// Pending returns the number of in-flight GPU blends, exposed for
// tests and for callers that want to wait for outstanding readbacks.
func (b *Backend) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

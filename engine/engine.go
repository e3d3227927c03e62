// Package engine is the façade (C7): it wires a sub-task pool, FIFO and
// backend table together and exposes the handful of user-facing
// operations (alpha blend, fill, copy) described in spec.md §6.
package engine

import (
	"context"

	"github.com/pix2d/engine/geometry"
	"github.com/pix2d/engine/op"
	"github.com/pix2d/engine/status"
)

// Config bundles the construction-time knobs for an Engine.
type Config struct {
	PoolCapacity int
	Feature      op.RuntimeFeature
	Backends     *op.BackendTable
}

// Engine owns the sub-task pool and FIFO shared by every operation
// issued through it.
type Engine struct {
	pool     *op.Pool
	fifo     *op.FIFO
	backends *op.BackendTable
	feature  op.RuntimeFeature
}

// New builds an Engine from cfg. A nil cfg.Backends runs the engine
// entirely in software.
func New(cfg Config) *Engine {
	backends := cfg.Backends
	if backends == nil {
		backends = &op.BackendTable{}
	}

	fifo := op.NewFIFO()

	return &Engine{
		pool:     op.NewPool(cfg.PoolCapacity),
		fifo:     fifo,
		backends: backends,
		feature:  cfg.Feature,
	}
}

// Pump drains every sub-task currently queued, dispatching each
// through the HW/SW policy and notifying its parent operation record.
// Mirrors console.Bus.Run's tick loop, but drains to empty instead of
// running forever, since a sub-task queue (unlike an NES PPU) has a
// natural end.
func (e *Engine) Pump() {
	for {
		t, ok := e.fifo.Dequeue()
		if !ok {
			return
		}
		result := op.DispatchSubTask(t, e.backends)
		if result != status.Async {
			// An Async sub-task now belongs to its hardware backend,
			// which reports its completion itself.
			t.Op.NotifySubTaskComplete(t, result, false)
		}
	}
}

// Run drains the FIFO each time the FIFO's arrival notification fires
// (an empty queue becoming non-empty), until ctx is cancelled, for
// callers with HasDedicatedThreadFor2DTask=true that want a background
// worker instead of an inline pump from Invoke.
func (e *Engine) Run(ctx context.Context) {
	notify := make(chan struct{}, 1)
	e.fifo.OnArrive = func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-notify:
			e.Pump()
		}
	}
}

func (e *Engine) invoke(kind op.Kind, pref op.Preference, prep func(r *op.Record) status.Status, cb op.Callback, userData any, onAsyncComplete func()) (*op.Record, status.Status) {
	r := op.NewRecord(e.pool, e.fifo, kind, pref, cb, userData, onAsyncComplete)

	pump := e.pump
	if e.feature.HasDedicatedThreadFor2DTask {
		pump = nil
	}

	result := r.Invoke(func() status.Status { return prep(r) }, e.feature, pump)
	return r, result
}

func (e *Engine) pump() { e.Pump() }

// reserveAndClip books n sub-task slots and resolves (tile, region) to
// a WorkRect. ok is false — with fail carrying the reason (NotSupport
// if the pool couldn't book n slots, matching spec.md §8's "5th
// reserve call fails" scenario, or OutOfRegion if the clipped
// rectangle is empty) — whenever the caller should bail out before
// issuing any sub-task.
func (e *Engine) reserveAndClip(n int, tile *geometry.Tile, region *geometry.Region) (wr geometry.WorkRect, ok bool, fail status.Status) {
	if !e.pool.Reserve(n) {
		return geometry.WorkRect{}, false, status.NotSupport
	}

	wr, clipped := geometry.TileClip(tile, region)
	if !clipped {
		return geometry.WorkRect{}, false, status.OutOfRegion
	}

	return wr, true, status.CPL
}

// AlphaBlendRGB565 composites source onto target over their
// intersection with region (nil for the whole target tile), using the
// given blend ratio and dispatch preference.
func (e *Engine) AlphaBlendRGB565(source, target *geometry.Tile, region *geometry.Region, ratio uint8, pref op.Preference, cb op.Callback, userData any) (*op.Record, status.Status) {
	return e.alphaBlend(op.KindAlphaBlendRGB565, source, target, region, ratio, pref, cb, userData)
}

// AlphaBlendRGB888 is the RGB888 analogue of AlphaBlendRGB565.
func (e *Engine) AlphaBlendRGB888(source, target *geometry.Tile, region *geometry.Region, ratio uint8, pref op.Preference, cb op.Callback, userData any) (*op.Record, status.Status) {
	return e.alphaBlend(op.KindAlphaBlendRGB888, source, target, region, ratio, pref, cb, userData)
}

func (e *Engine) alphaBlend(kind op.Kind, source, target *geometry.Tile, region *geometry.Region, ratio uint8, pref op.Preference, cb op.Callback, userData any) (*op.Record, status.Status) {
	return e.invoke(kind, pref, func(r *op.Record) status.Status {
		r.Ratio = ratio

		srcWR, ok := geometry.TileClip(source, nil)
		if !ok {
			return status.OutOfRegion
		}
		dstWR, ok2, fail := e.reserveAndClip(1, target, region)
		if !ok2 {
			return fail
		}

		size := intersectSize(srcWR.Size, dstWR.Size)
		return r.IssueBlend(op.BlendParams{Source: srcWR, Target: dstWR, Size: size})
	}, cb, userData, nil)
}

// AlphaBlendRGB565Masked is AlphaBlendRGB565 with a transparent color
// key: source pixels equal to key are skipped.
func (e *Engine) AlphaBlendRGB565Masked(source, target *geometry.Tile, region *geometry.Region, ratio uint8, key uint16, pref op.Preference, cb op.Callback, userData any) (*op.Record, status.Status) {
	return e.invoke(op.KindAlphaBlendRGB565Masked, pref, func(r *op.Record) status.Status {
		r.Ratio = ratio
		r.ColorKeyActive = true
		r.ColorKey = uint32(key)

		srcWR, ok := geometry.TileClip(source, nil)
		if !ok {
			return status.OutOfRegion
		}
		dstWR, ok2, fail := e.reserveAndClip(1, target, region)
		if !ok2 {
			return fail
		}

		size := intersectSize(srcWR.Size, dstWR.Size)
		return r.IssueBlend(op.BlendParams{Source: srcWR, Target: dstWR, Size: size})
	}, cb, userData, nil)
}

// AlphaBlendRGB888Masked is AlphaBlendRGB888 with a transparent color
// key.
func (e *Engine) AlphaBlendRGB888Masked(source, target *geometry.Tile, region *geometry.Region, ratio uint8, key uint32, pref op.Preference, cb op.Callback, userData any) (*op.Record, status.Status) {
	return e.invoke(op.KindAlphaBlendRGB888Masked, pref, func(r *op.Record) status.Status {
		r.Ratio = ratio
		r.ColorKeyActive = true
		r.ColorKey = key

		srcWR, ok := geometry.TileClip(source, nil)
		if !ok {
			return status.OutOfRegion
		}
		dstWR, ok2, fail := e.reserveAndClip(1, target, region)
		if !ok2 {
			return fail
		}

		size := intersectSize(srcWR.Size, dstWR.Size)
		return r.IssueBlend(op.BlendParams{Source: srcWR, Target: dstWR, Size: size})
	}, cb, userData, nil)
}

// Fill paints target (clipped to region) with a solid color, in the
// format matching target's tile format.
func (e *Engine) Fill(target *geometry.Tile, region *geometry.Region, color uint32, pref op.Preference, cb op.Callback, userData any) (*op.Record, status.Status) {
	kind := op.KindFillRGB888
	if target.Format() == geometry.RGB565 {
		kind = op.KindFillRGB565
	}

	return e.invoke(kind, pref, func(r *op.Record) status.Status {
		r.FillColor = color

		dstWR, ok2, fail := e.reserveAndClip(1, target, region)
		if !ok2 {
			return fail
		}

		return r.IssueTileProcess(op.TileProcessParams{Target: dstWR, Size: dstWR.Size})
	}, cb, userData, nil)
}

// Copy moves pixels from source to target (clipped to region)
// verbatim. When the two tiles disagree on color format, the pixels are
// converted through the BackendTable's Convert function; without one,
// the sub-task fails with NotSupport.
func (e *Engine) Copy(source, target *geometry.Tile, region *geometry.Region, pref op.Preference, cb op.Callback, userData any) (*op.Record, status.Status) {
	kind := op.KindCopyRGB888
	if target.Format() == geometry.RGB565 {
		kind = op.KindCopyRGB565
	}

	return e.invoke(kind, pref, func(r *op.Record) status.Status {
		srcWR, ok := geometry.TileClip(source, nil)
		if !ok {
			return status.OutOfRegion
		}
		dstWR, ok2, fail := e.reserveAndClip(1, target, region)
		if !ok2 {
			return fail
		}

		size := intersectSize(srcWR.Size, dstWR.Size)
		return r.IssueCopy(op.CopyParams{Source: srcWR, Target: dstWR, Size: size})
	}, cb, userData, nil)
}

func intersectSize(a, b geometry.Size) geometry.Size {
	w, h := a.W, a.H
	if b.W < w {
		w = b.W
	}
	if b.H < h {
		h = b.H
	}
	return geometry.Size{W: w, H: h}
}

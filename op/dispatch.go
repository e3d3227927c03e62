package op

import (
	"github.com/pix2d/engine/geometry"
	"github.com/pix2d/engine/kernel"
	"github.com/pix2d/engine/status"
)

// Backend is implemented by a hardware accelerator capable of servicing
// one IOType slot (copy, blend or tile-process). Dispatch returns
// Async if the backend queued the work for later completion (the
// backend must then call Record.NotifySubTaskComplete(fromHW=true)),
// CPL if it finished synchronously, or a negative Status if it
// couldn't take the task.
type Backend interface {
	Dispatch(t *Task) status.Status
}

// Converter converts a strided rectangle of pixels from one color
// format to another. It is consulted by the default CopyLike kernel
// whenever the source and target root buffers disagree on format; the
// concrete implementation lives in the convert package to avoid a
// dependency cycle between op and convert.
type Converter func(dst, src geometry.WorkRect)

// BackendTable wires up to one hardware Backend per IOType slot, plus
// the Converter used for cross-format copies. A nil Backend means
// "software only" for that slot.
type BackendTable struct {
	Copy        Backend
	Fill        Backend
	TileProcess Backend
	Convert     Converter
}

func (bt *BackendTable) backendFor(ioType IOType) Backend {
	if bt == nil {
		return nil
	}
	switch ioType {
	case CopyLike:
		return bt.Copy
	case FillLike:
		return bt.Fill
	case TileProcessLike:
		return bt.TileProcess
	default:
		return nil
	}
}

// DispatchSubTask runs one sub-task to completion or to Async, applying
// the HW/SW fallback policy: a registered hardware backend is tried
// first whenever the operation's Preference isn't SWOnly; how its
// result is handled depends on that Preference.
func DispatchSubTask(t *Task, backends *BackendTable) status.Status {
	pref := t.Op.Preference
	hw := backends.backendFor(t.IOType)

	if pref != SWOnly {
		if hw == nil {
			if pref == HWOnly || pref == HWRequired {
				return status.NotSupport
			}
		} else {
			result := hw.Dispatch(t)
			switch result {
			case status.Async, status.CPL:
				return result
			case status.OnGoing, status.WaitForObj:
				if pref != HWPreferred {
					return status.IOBusy
				}
			case status.NotSupport:
				if pref == HWOnly || pref == HWRequired {
					return status.NotSupport
				}
			default:
				if result.IsError() {
					return result
				}
			}
		}
	}

	switch t.IOType {
	case CopyLike:
		return defaultCopyIO(t, backends.converter())
	case FillLike:
		return defaultFillLikeIO(t)
	case TileProcessLike:
		return defaultTileProcessIO(t)
	default:
		return status.InvalidOp
	}
}

func (bt *BackendTable) converter() Converter {
	if bt == nil {
		return nil
	}
	return bt.Convert
}

func defaultCopyIO(t *Task, convert Converter) status.Status {
	p := t.Copy
	if p.Size.Empty() {
		return status.OutOfRegion
	}

	src, dst := p.Source, p.Target
	if src.Root.Format != dst.Root.Format {
		if convert == nil {
			return status.NotSupport
		}
		convert(dst, src)
		return status.CPL
	}

	switch dst.Root.Format {
	case geometry.RGB565:
		kernel.CopyRGB565(src.Root.Px565, dst.Root.Px565, src.Offset, dst.Offset, src.Stride, dst.Stride, p.Size.W, p.Size.H)
	case geometry.RGB888:
		kernel.CopyRGB888(src.Root.Px888, dst.Root.Px888, src.Offset, dst.Offset, src.Stride, dst.Stride, p.Size.W, p.Size.H)
	default:
		return status.NotSupport
	}
	return status.CPL
}

func defaultFillLikeIO(t *Task) status.Status {
	p := t.Fill
	if p.Size.Empty() {
		return status.OutOfRegion
	}

	r := t.Op
	src, dst := p.Source, p.Target

	switch r.Kind {
	case KindAlphaBlendRGB565:
		if kernel.DirectEligible(src.Stride, dst.Stride, int32(p.Size.W)) {
			count := p.Size.W * p.Size.H
			kernel.BlendRGB565Direct(src.Root.Px565, dst.Root.Px565, dst.Root.Px565, src.Offset, dst.Offset, count, r.Ratio)
		} else {
			kernel.BlendRGB565Strided(src.Root.Px565, dst.Root.Px565, src.Offset, dst.Offset, src.Stride, dst.Stride, p.Size.W, p.Size.H, r.Ratio)
		}
	case KindAlphaBlendRGB565Masked:
		kernel.BlendRGB565StridedMasked(src.Root.Px565, dst.Root.Px565, src.Offset, dst.Offset, src.Stride, dst.Stride, p.Size.W, p.Size.H, r.Ratio, uint16(r.ColorKey))
	case KindAlphaBlendRGB888:
		if kernel.DirectEligible(src.Stride, dst.Stride, int32(p.Size.W)) {
			count := p.Size.W * p.Size.H
			kernel.BlendRGB888Direct(src.Root.Px888, dst.Root.Px888, dst.Root.Px888, src.Offset, dst.Offset, count, r.Ratio)
		} else {
			kernel.BlendRGB888Strided(src.Root.Px888, dst.Root.Px888, src.Offset, dst.Offset, src.Stride, dst.Stride, p.Size.W, p.Size.H, r.Ratio)
		}
	case KindAlphaBlendRGB888Masked:
		kernel.BlendRGB888StridedMasked(src.Root.Px888, dst.Root.Px888, src.Offset, dst.Offset, src.Stride, dst.Stride, p.Size.W, p.Size.H, r.Ratio, r.ColorKey)
	default:
		return status.InvalidOp
	}
	return status.CPL
}

func defaultTileProcessIO(t *Task) status.Status {
	p := t.TileProcess
	if p.Size.Empty() {
		return status.OutOfRegion
	}

	r := t.Op
	dst := p.Target

	switch r.Kind {
	case KindFillRGB565:
		kernel.FillRGB565(dst.Root.Px565, dst.Offset, dst.Stride, p.Size.W, p.Size.H, uint16(r.FillColor))
	case KindFillRGB888:
		kernel.FillRGB888(dst.Root.Px888, dst.Offset, dst.Stride, p.Size.W, p.Size.H, r.FillColor)
	default:
		return status.InvalidOp
	}
	return status.CPL
}

// Package op implements the asynchronous operation engine: the
// sub-task pool and FIFO (C3/C4), the operation lifecycle state
// machine (C5) and the HW/SW dispatch policy (C6). The four are kept
// in one package because the upstream arm-2d implementation keeps
// them in a single source file (arm_2d_async.c) — they share a single
// set of critical sections and none of them is independently useful.
package op

import "github.com/pix2d/engine/geometry"

// IOType selects which low-level interface a sub-task's work belongs
// to. The dispatcher (C6) consults this to pick the right hardware
// backend slot and default software kernel.
type IOType uint8

const (
	// CopyLike sub-tasks move pixels from a source rectangle to a
	// target rectangle verbatim (or through a format conversion,
	// see the convert package), with no per-pixel compositing math.
	CopyLike IOType = iota
	// FillLike sub-tasks combine a source and a target rectangle
	// pixel-by-pixel — despite the name, this is the interface
	// used by alpha blending, not by the solid-color Fill facade
	// entry. That mismatch comes straight from the upstream
	// arm-2d naming (__arm_2d_issue_sub_task_fill is the blend
	// issuer) and is kept here rather than "fixed", since the
	// asymmetry is the source's, not a Go naming accident.
	FillLike
	// TileProcessLike sub-tasks touch a single target rectangle
	// with no source operand — used by the solid-color Fill facade
	// entry.
	TileProcessLike
)

func (t IOType) String() string {
	switch t {
	case CopyLike:
		return "CopyLike"
	case FillLike:
		return "FillLike"
	case TileProcessLike:
		return "TileProcessLike"
	default:
		return "IOType(invalid)"
	}
}

// CopyParams describes a CopyLike sub-task: move Size pixels from
// Source to Target.
type CopyParams struct {
	Source geometry.WorkRect
	Target geometry.WorkRect
	Size   geometry.Size
}

// BlendParams describes a FillLike sub-task: composite Source onto
// Target over their overlapping Size.
type BlendParams struct {
	Source geometry.WorkRect
	Target geometry.WorkRect
	Size   geometry.Size
}

// TileProcessParams describes a TileProcessLike sub-task: apply a
// target-only effect (currently: solid-color fill) to Target.
type TileProcessParams struct {
	Target geometry.WorkRect
	Size   geometry.Size
}

// Task is one unit of work enqueued to the FIFO. It carries a
// back-pointer to its parent operation Record, an IOType tag and the
// corresponding parameter variant. Next is the intrusive singly-linked
// pointer used by the FIFO; callers must not touch it.
type Task struct {
	Next *Task

	Op     *Record
	IOType IOType

	Copy        CopyParams
	Fill        BlendParams
	TileProcess TileProcessParams
}

package op

import "github.com/pix2d/engine/status"

// Preference is the per-operation hardware-acceleration policy
// consulted by the dispatcher (C6).
type Preference uint8

const (
	// SWOnly never attempts the hardware backend.
	SWOnly Preference = iota
	// HWPreferred ("don't care") tries hardware first but falls
	// back to software whenever the backend reports busy or
	// unsupported.
	HWPreferred
	// HWOnly fails with NotSupport rather than falling back to
	// software when the backend can't handle the request.
	HWOnly
	// HWRequired behaves like HWOnly for fallback purposes: the
	// spec introduces it alongside HWOnly without giving the
	// dispatcher a different rule for it, so the two are treated
	// identically here (see DESIGN.md).
	HWRequired
)

// Kind identifies which facade operation a Record was built for. The
// dispatcher's default software kernels switch on Kind to pick the
// right pixel routine and to know which of Ratio/ColorKey/FillColor
// apply.
type Kind uint8

const (
	KindAlphaBlendRGB565 Kind = iota
	KindAlphaBlendRGB565Masked
	KindAlphaBlendRGB888
	KindAlphaBlendRGB888Masked
	KindFillRGB565
	KindFillRGB888
	KindCopyRGB565
	KindCopyRGB888
)

// Callback is the on-complete notification signature. Its return
// value becomes the Record's Complete flag, letting an advanced caller
// defer completion across a chain of operations. When no callback is
// registered, Complete is simply set to true.
type Callback func(r *Record, final status.Status, userData any) bool

// RuntimeFeature is the small configuration record from spec.md §6.
type RuntimeFeature struct {
	// TreatOutOfRegionAsComplete makes a synchronous OutOfRegion
	// result surface as CPL instead of as a distinct status.
	TreatOutOfRegionAsComplete bool
	// HasDedicatedThreadFor2DTask, when false, makes the facade
	// drain the FIFO inline (via the supplied pump function) before
	// returning from Invoke.
	HasDedicatedThreadFor2DTask bool
}

// Record is the persistent state of a single user call (the
// "operation record"). The caller must keep it alive until IsComplete()
// reports true; ownership stays with the caller throughout.
type Record struct {
	pool *Pool
	fifo *FIFO

	Kind       Kind
	Preference Preference

	Ratio          uint8
	ColorKeyActive bool
	ColorKey       uint32
	FillColor      uint32

	callback        Callback
	userData        any
	onAsyncComplete func()

	busy       bool
	complete   bool
	ioError    bool
	outstanding uint8
	result     status.Status
}

// NewRecord constructs an operation record bound to the given pool and
// FIFO. onAsyncComplete, if non-nil, is invoked whenever a sub-task
// belonging to this record completes from the interrupt/HW domain —
// the capability-record replacement for the upstream weak symbol
// arm_2d_notif_aync_sub_task_cpl.
func NewRecord(pool *Pool, fifo *FIFO, kind Kind, pref Preference, cb Callback, userData any, onAsyncComplete func()) *Record {
	return &Record{
		pool:            pool,
		fifo:            fifo,
		Kind:            kind,
		Preference:      pref,
		callback:        cb,
		userData:        userData,
		onAsyncComplete: onAsyncComplete,
	}
}

// Busy reports whether the operation is currently in flight.
func (r *Record) Busy() bool { return r.busy }

// IsComplete reports whether the operation has reached its terminal
// state.
func (r *Record) IsComplete() bool { return r.complete }

// IOError reports whether any sub-task of this operation failed.
func (r *Record) IOError() bool { return r.ioError }

// Result returns the operation's current result code.
func (r *Record) Result() status.Status { return r.result }

// Outstanding returns the number of sub-tasks still in flight.
func (r *Record) Outstanding() int { return int(r.outstanding) }

// Invoke is the front-end entry point (C5): it refuses to run a record
// that is already busy, otherwise marks it busy and runs prep (which
// is expected to resolve geometry and issue sub-tasks), then runs the
// front-end exit hook.
func (r *Record) Invoke(prep func() status.Status, feature RuntimeFeature, pump func()) status.Status {
	if r.busy {
		return status.IOBusy
	}

	r.busy = true
	result := prep()
	return r.onLeave(result, feature, pump)
}

// onLeave is the front-end exit hook: it eagerly finalizes terminal
// synchronous results, drains the FIFO inline when there is no
// dedicated worker, and always cancels any unconsumed bookings.
func (r *Record) onLeave(result status.Status, feature RuntimeFeature, pump func()) status.Status {
	if result == status.CPL || result == status.OutOfRegion || result.IsError() {
		if result == status.OutOfRegion && feature.TreatOutOfRegionAsComplete {
			result = status.CPL
		}

		r.busy = false
		r.complete = true
		r.ioError = result.IsError()
		r.result = result
	}

	if !feature.HasDedicatedThreadFor2DTask && pump != nil {
		pump()
	}

	r.pool.CancelBookings()

	return result
}

// issue is the shared body of the three issue_sub_task_* helpers: it
// acquires a sub-task, lets fill populate it, bumps the outstanding
// count and enqueues it. It always returns Async, since emitting a
// sub-task always means "queued".
func (r *Record) issue(fill func(t *Task)) status.Status {
	t, ok := r.pool.Acquire()
	if !ok {
		panic("op: issue called without a prior successful Reserve")
	}

	t.Op = r
	fill(t)

	r.outstanding++
	r.fifo.Enqueue(t)

	return status.Async
}

// IssueCopy enqueues a CopyLike sub-task.
func (r *Record) IssueCopy(params CopyParams) status.Status {
	return r.issue(func(t *Task) {
		t.IOType = CopyLike
		t.Copy = params
	})
}

// IssueBlend enqueues a FillLike sub-task (the interface used by
// alpha blending; see the IOType doc comment for the naming note).
func (r *Record) IssueBlend(params BlendParams) status.Status {
	return r.issue(func(t *Task) {
		t.IOType = FillLike
		t.Fill = params
	})
}

// IssueTileProcess enqueues a TileProcessLike sub-task (solid-color
// fill).
func (r *Record) IssueTileProcess(params TileProcessParams) status.Status {
	return r.issue(func(t *Task) {
		t.IOType = TileProcessLike
		t.TileProcess = params
	})
}

// NotifySubTaskComplete is called exactly once per sub-task, either by
// the pump (fromHW=false) or by a hardware backend's completion path
// (fromHW=true). It updates the parent operation's error state, and
// when this was the last outstanding sub-task, fires the completion
// callback (if any) and marks the record Complete — in that order, so
// the callback can still observe the final state before it becomes
// externally visible, and Busy is cleared only after Complete is set.
func (r *Record) NotifySubTaskComplete(t *Task, result status.Status, fromHW bool) {
	if result.IsError() {
		// last error wins: always overwrite, not just on the
		// first failure.
		r.ioError = true
		r.result = result
	} else if result == status.Async && !r.result.IsError() {
		r.result = status.Async
	}

	if result != status.Async {
		if r.outstanding == 0 {
			panic("op: NotifySubTaskComplete called with no outstanding sub-tasks")
		}
		r.outstanding--

		if r.outstanding == 0 {
			if r.callback != nil {
				r.complete = r.callback(r, r.result, r.userData)
			} else {
				r.complete = true
			}
			r.busy = false
		}
	}

	r.pool.Release(t)

	if fromHW && r.onAsyncComplete != nil {
		r.onAsyncComplete()
	}
}

package op

import (
	"testing"

	"github.com/pix2d/engine/geometry"
	"github.com/pix2d/engine/status"
)

func newTestBuffers(w, h uint32) (*geometry.Tile, *geometry.Tile) {
	src := geometry.NewRootTile(geometry.RGB565, w, h, int32(w))
	dst := geometry.NewRootTile(geometry.RGB565, w, h, int32(w))
	return src, dst
}

// pump drains the FIFO synchronously, exactly the way a
// HasDedicatedThreadFor2DTask=false caller would.
func pump(fifo *FIFO, backends *BackendTable) {
	for {
		t, ok := fifo.Dequeue()
		if !ok {
			return
		}
		result := DispatchSubTask(t, backends)
		if result != status.Async {
			t.Op.NotifySubTaskComplete(t, result, false)
		}
	}
}

func TestPoolReserveExhaustionAtCapacity(t *testing.T) {
	pool := NewPool(4)

	if !pool.Reserve(4) {
		t.Fatalf("Reserve(4) on a fresh capacity-4 pool should succeed")
	}
	if pool.Reserve(1) {
		t.Fatalf("Reserve(1) should fail once the pool is fully booked")
	}

	pool.CancelBookings()
	if pool.BookCount() != 0 {
		t.Fatalf("BookCount after CancelBookings = %d, want 0", pool.BookCount())
	}
	if !pool.Reserve(4) {
		t.Fatalf("Reserve(4) should succeed again after bookings are cancelled")
	}
}

func TestPoolConservationAcrossReserveAcquireRelease(t *testing.T) {
	pool := NewPool(4)

	if !pool.Reserve(2) {
		t.Fatalf("Reserve(2) failed")
	}
	if got, want := pool.FreeCount()-pool.BookCount(), 2; got != want {
		t.Fatalf("free-book after Reserve(2) = %d, want %d", got, want)
	}

	t1, ok := pool.Acquire()
	if !ok {
		t.Fatalf("Acquire failed after Reserve(2)")
	}
	t2, ok := pool.Acquire()
	if !ok {
		t.Fatalf("second Acquire failed after Reserve(2)")
	}

	if pool.BookCount() != 0 {
		t.Fatalf("BookCount after two Acquires = %d, want 0", pool.BookCount())
	}
	if pool.FreeCount() != 2 {
		t.Fatalf("FreeCount after two Acquires = %d, want 2", pool.FreeCount())
	}

	pool.Release(t1)
	pool.Release(t2)

	if pool.FreeCount() != 4 {
		t.Fatalf("FreeCount after releasing both = %d, want 4", pool.FreeCount())
	}
	if !pool.Reserve(4) {
		t.Fatalf("pool should be fully available again after both releases")
	}
}

func TestFIFOOrderingIsFCFS(t *testing.T) {
	fifo := NewFIFO()
	pool := NewPool(4)

	tasks := make([]*Task, 0, 3)
	for i := 0; i < 3; i++ {
		tk, ok := pool.Acquire()
		if !ok {
			t.Fatalf("Acquire %d failed", i)
		}
		tasks = append(tasks, tk)
		fifo.Enqueue(tk)
	}

	for i, want := range tasks {
		got, ok := fifo.Dequeue()
		if !ok {
			t.Fatalf("Dequeue %d: queue unexpectedly empty", i)
		}
		if got != want {
			t.Fatalf("Dequeue %d returned wrong task", i)
		}
	}

	if _, ok := fifo.Dequeue(); ok {
		t.Fatalf("Dequeue on drained queue should report ok=false")
	}
}

func TestFIFOOnArriveFiresOnlyOnEmptyToNonEmptyTransition(t *testing.T) {
	fifo := NewFIFO()
	pool := NewPool(4)

	fires := 0
	fifo.OnArrive = func() { fires++ }

	t1, _ := pool.Acquire()
	t2, _ := pool.Acquire()

	fifo.Enqueue(t1)
	fifo.Enqueue(t2)

	if fires != 1 {
		t.Fatalf("OnArrive fired %d times for two enqueues onto an empty queue, want 1", fires)
	}

	fifo.Dequeue()
	fifo.Enqueue(pool.free[len(pool.free)-1])

	if fires != 1 {
		t.Fatalf("OnArrive should not fire while the queue is still non-empty, fired %d times", fires)
	}
}

func TestCopyCompletesSynchronouslyThroughSoftwareKernel(t *testing.T) {
	pool := NewPool(4)
	fifo := NewFIFO()
	src, dst := newTestBuffers(4, 4)

	root, _ := src.Root()
	for i := range root.Px565 {
		root.Px565[i] = 0x1234
	}

	srcWR, ok := geometry.TileClip(src, nil)
	if !ok {
		t.Fatalf("TileClip(src) reported out of region")
	}
	dstWR, ok := geometry.TileClip(dst, nil)
	if !ok {
		t.Fatalf("TileClip(dst) reported out of region")
	}

	done := false
	r := NewRecord(pool, fifo, KindCopyRGB565, SWOnly, func(rec *Record, final status.Status, _ any) bool {
		done = true
		return true
	}, nil, nil)

	feature := RuntimeFeature{HasDedicatedThreadFor2DTask: false}
	backends := &BackendTable{}

	result := r.Invoke(func() status.Status {
		if !pool.Reserve(1) {
			return status.IOBusy
		}
		return r.IssueCopy(CopyParams{Source: srcWR, Target: dstWR, Size: srcWR.Size})
	}, feature, func() { pump(fifo, backends) })

	if result != status.Async {
		t.Fatalf("Invoke result = %v, want Async (front end always reports Async for a queued sub-task)", result)
	}
	if !done {
		t.Fatalf("completion callback never fired despite inline pump")
	}
	if !r.IsComplete() {
		t.Fatalf("record should be Complete after the inline pump drains its sub-task")
	}

	dstRoot, _ := dst.Root()
	for i, got := range dstRoot.Px565 {
		if got != 0x1234 {
			t.Fatalf("dst[%d] = %#x, want %#x after copy", i, got, 0x1234)
		}
	}
}

func TestOutOfRegionSynchronousResultIsRemappedWhenConfigured(t *testing.T) {
	pool := NewPool(4)
	fifo := NewFIFO()

	r := NewRecord(pool, fifo, KindCopyRGB565, SWOnly, nil, nil, nil)
	feature := RuntimeFeature{TreatOutOfRegionAsComplete: true, HasDedicatedThreadFor2DTask: true}

	result := r.Invoke(func() status.Status {
		return status.OutOfRegion
	}, feature, nil)

	if result != status.CPL {
		t.Fatalf("result = %v, want CPL (OutOfRegion remapped)", result)
	}
	if !r.IsComplete() || r.IOError() {
		t.Fatalf("remapped OutOfRegion should be Complete with no IOError, got complete=%v ioError=%v", r.IsComplete(), r.IOError())
	}
}

func TestAsyncCompletionFromHardwareFiresCallbackHook(t *testing.T) {
	pool := NewPool(4)
	fifo := NewFIFO()

	hookFired := false
	r := NewRecord(pool, fifo, KindCopyRGB565, HWPreferred, nil, nil, func() { hookFired = true })

	pool.Reserve(1)
	r.Invoke(func() status.Status {
		return r.IssueCopy(CopyParams{})
	}, RuntimeFeature{HasDedicatedThreadFor2DTask: true}, nil)

	tk, ok := fifo.Dequeue()
	if !ok {
		t.Fatalf("expected one queued sub-task")
	}

	r.NotifySubTaskComplete(tk, status.CPL, true)

	if !hookFired {
		t.Fatalf("async completion hook should fire when fromHW is true")
	}
	if !r.IsComplete() {
		t.Fatalf("record should be Complete once its only sub-task reports terminal")
	}
}

func TestInvokeRejectsReentryWhileBusy(t *testing.T) {
	pool := NewPool(4)
	fifo := NewFIFO()
	r := NewRecord(pool, fifo, KindCopyRGB565, SWOnly, nil, nil, nil)

	pool.Reserve(1)
	r.Invoke(func() status.Status {
		return r.IssueCopy(CopyParams{})
	}, RuntimeFeature{HasDedicatedThreadFor2DTask: true}, nil)

	result := r.Invoke(func() status.Status {
		t.Fatalf("prep should not run while the record is still busy")
		return status.CPL
	}, RuntimeFeature{}, nil)

	if result != status.IOBusy {
		t.Fatalf("re-invoking a busy record returned %v, want IOBusy", result)
	}
}

func TestLastErrorWinsAcrossMultipleSubTasks(t *testing.T) {
	pool := NewPool(4)
	fifo := NewFIFO()
	r := NewRecord(pool, fifo, KindCopyRGB565, SWOnly, nil, nil, nil)

	pool.Reserve(2)
	r.IssueCopy(CopyParams{})
	r.IssueCopy(CopyParams{})

	t1, _ := fifo.Dequeue()
	t2, _ := fifo.Dequeue()

	r.NotifySubTaskComplete(t1, status.NotSupport, false)
	r.NotifySubTaskComplete(t2, status.InvalidOp, false)

	if r.Result() != status.InvalidOp {
		t.Fatalf("Result() = %v, want the second (last) error InvalidOp", r.Result())
	}
	if !r.IOError() {
		t.Fatalf("IOError() should be true after any failing sub-task")
	}
}

func TestDispatchHWOnlyWithoutBackendIsNotSupported(t *testing.T) {
	pool := NewPool(4)
	fifo := NewFIFO()
	r := NewRecord(pool, fifo, KindCopyRGB565, HWOnly, nil, nil, nil)

	pool.Reserve(1)
	r.IssueCopy(CopyParams{})
	tk, _ := fifo.Dequeue()

	result := DispatchSubTask(tk, &BackendTable{})
	if result != status.NotSupport {
		t.Fatalf("DispatchSubTask with HWOnly and no backend = %v, want NotSupport", result)
	}
}

type stubBackend struct {
	result status.Status
}

func (b stubBackend) Dispatch(*Task) status.Status { return b.result }

func TestDispatchHWPreferredFallsBackToSoftwareOnNotSupport(t *testing.T) {
	pool := NewPool(4)
	fifo := NewFIFO()
	src, dst := newTestBuffers(2, 2)
	srcRoot, _ := src.Root()
	srcRoot.Px565[0] = 0xABCD

	srcWR, _ := geometry.TileClip(src, nil)
	dstWR, _ := geometry.TileClip(dst, nil)

	r := NewRecord(pool, fifo, KindCopyRGB565, HWPreferred, nil, nil, nil)
	pool.Reserve(1)
	r.IssueCopy(CopyParams{Source: srcWR, Target: dstWR, Size: srcWR.Size})
	tk, _ := fifo.Dequeue()

	backends := &BackendTable{Copy: stubBackend{result: status.NotSupport}}
	result := DispatchSubTask(tk, backends)

	if result != status.CPL {
		t.Fatalf("fallback dispatch result = %v, want CPL from the software kernel", result)
	}
	dstRoot, _ := dst.Root()
	if dstRoot.Px565[0] != 0xABCD {
		t.Fatalf("software fallback did not actually copy the pixel")
	}
}

func TestDispatchHWBusyWithoutFallbackPreferenceReturnsIOBusy(t *testing.T) {
	pool := NewPool(4)
	fifo := NewFIFO()
	r := NewRecord(pool, fifo, KindCopyRGB565, HWOnly, nil, nil, nil)

	pool.Reserve(1)
	r.IssueCopy(CopyParams{})
	tk, _ := fifo.Dequeue()

	backends := &BackendTable{Copy: stubBackend{result: status.OnGoing}}
	result := DispatchSubTask(tk, backends)

	if result != status.IOBusy {
		t.Fatalf("result = %v, want IOBusy (HWOnly must not fall back on OnGoing)", result)
	}
}

func TestZeroSizeSubTaskReportsOutOfRegion(t *testing.T) {
	pool := NewPool(4)
	fifo := NewFIFO()
	r := NewRecord(pool, fifo, KindCopyRGB565, SWOnly, nil, nil, nil)

	pool.Reserve(1)
	r.IssueCopy(CopyParams{Size: geometry.Size{}})
	tk, _ := fifo.Dequeue()

	result := DispatchSubTask(tk, &BackendTable{})
	if result != status.OutOfRegion {
		t.Fatalf("zero-size sub-task dispatched to %v, want OutOfRegion", result)
	}
}

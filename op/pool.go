package op

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool is the fixed-capacity sub-task pool (C3). It hands out
// pre-allocated *Task values from a free list, while a weighted
// semaphore tracks how many are available to book: Reserve(n) is
// exactly the semaphore's non-blocking TryAcquire, so the "available
// ≥ n, else no side effect" check the spec requires falls out of the
// primitive for free.
type Pool struct {
	mu        sync.Mutex
	free      []*Task
	sem       *semaphore.Weighted
	bookCount int
}

// NewPool allocates a pool with the given fixed capacity. capacity
// must be at least 4 — a smaller pool can't even satisfy the two
// sub-tasks a single blit-with-background op can require plus slack
// for a second in-flight operation.
func NewPool(capacity int) *Pool {
	if capacity < 4 {
		panic("op: sub-task pool capacity must be >= 4")
	}

	free := make([]*Task, capacity)
	for i := range free {
		free[i] = &Task{}
	}

	return &Pool{
		free: free,
		sem:  semaphore.NewWeighted(int64(capacity)),
	}
}

// Reserve atomically checks that at least n sub-tasks are available
// and, if so, books them. It returns false without any side effect if
// the pool cannot currently satisfy the request.
func (p *Pool) Reserve(n int) bool {
	if n <= 0 {
		return true
	}
	if !p.sem.TryAcquire(int64(n)) {
		return false
	}

	p.mu.Lock()
	p.bookCount += n
	p.mu.Unlock()
	return true
}

// CancelBookings drops any reservations made via Reserve that were
// never consumed by a matching Acquire, returning their capacity to
// the pool.
func (p *Pool) CancelBookings() {
	p.mu.Lock()
	n := p.bookCount
	p.bookCount = 0
	p.mu.Unlock()

	if n > 0 {
		p.sem.Release(int64(n))
	}
}

// Acquire pops one sub-task off the free list, zero-initializing it
// so stale content from a previous use can't leak into the new
// booking. Callers that previously reserved capacity via Reserve must
// successfully Acquire — this only reports false if the pool is
// genuinely empty, which should not happen when the reserve protocol
// is followed.
func (p *Pool) Acquire() (*Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.free)
	if n == 0 {
		return nil, false
	}

	t := p.free[n-1]
	p.free = p.free[:n-1]
	if p.bookCount > 0 {
		p.bookCount--
	}

	*t = Task{}
	return t, true
}

// Release returns t to the free list and restores the capacity it had
// been consuming.
func (p *Pool) Release(t *Task) {
	if t == nil {
		return
	}

	p.mu.Lock()
	t.Next = nil
	p.free = append(p.free, t)
	p.mu.Unlock()

	p.sem.Release(1)
}

// FreeCount returns the number of sub-tasks currently on the free
// list. Exposed for tests asserting the pool-conservation invariant.
func (p *Pool) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// BookCount returns the number of reservations made but not yet
// consumed by Acquire.
func (p *Pool) BookCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bookCount
}

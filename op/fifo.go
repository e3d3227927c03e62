package op

import "sync"

// FIFO is the sub-task queue (C4): a singly-linked, strictly ordered
// queue safe for multiple producers and a single consumer. When a
// sub-task arrives on a previously empty queue, OnArrive (if set)
// fires once — a worker blocked on an empty queue can be released
// promptly instead of polling. The default is nil (no-op), matching
// the weak-symbol default in the upstream implementation.
type FIFO struct {
	mu    sync.Mutex
	head  *Task
	tail  *Task
	count int

	OnArrive func()
}

// NewFIFO returns an empty FIFO.
func NewFIFO() *FIFO {
	return &FIFO{}
}

// Enqueue appends t to the tail of the queue.
func (f *FIFO) Enqueue(t *Task) {
	f.mu.Lock()
	wasEmpty := f.count == 0

	t.Next = nil
	if f.tail == nil {
		f.head = t
	} else {
		f.tail.Next = t
	}
	f.tail = t
	f.count++
	f.mu.Unlock()

	if wasEmpty && f.OnArrive != nil {
		f.OnArrive()
	}
}

// Dequeue removes and returns the head of the queue. ok is false when
// the queue is empty.
func (f *FIFO) Dequeue() (t *Task, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.head == nil {
		return nil, false
	}

	t = f.head
	f.head = t.Next
	if f.head == nil {
		f.tail = nil
	}
	t.Next = nil
	f.count--

	return t, true
}

// Len returns the number of sub-tasks currently queued.
func (f *FIFO) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

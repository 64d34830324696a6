// Package lockfree provides lock-free structures for handing values between
// the render goroutine and background workers without blocking either side.
package lockfree

import (
	"runtime"
	"sync/atomic"
)

// Queue is a bounded lock-free multi-producer multi-consumer queue. Each slot
// carries a sequence number that tells producers and consumers whether it is
// ready for them, so neither side ever waits on a lock.
type Queue[T any] struct {
	buffer   []cell[T]
	capacity uint64
	mask     uint64

	// Separate enqueue and dequeue indices on different cache lines
	enqueuePos atomic.Uint64
	_padding1  [7]uint64 //nolint:unused

	dequeuePos atomic.Uint64
	_padding2  [7]uint64 //nolint:unused
}

type cell[T any] struct {
	sequence atomic.Uint64
	value    T
}

// NewQueue creates a queue holding at least capacity items.
// Capacity will be rounded up to the next power of 2 for efficient masking.
func NewQueue[T any](capacity int) *Queue[T] {
	size := uint64(2)
	for size < uint64(capacity) {
		size <<= 1
	}

	q := &Queue[T]{
		buffer:   make([]cell[T], size),
		capacity: size,
		mask:     size - 1,
	}
	for i := uint64(0); i < size; i++ {
		q.buffer[i].sequence.Store(i)
	}
	return q
}

// Enqueue adds an item. It returns false without blocking when the queue is full.
func (q *Queue[T]) Enqueue(item T) bool {
	for {
		pos := q.enqueuePos.Load()
		c := &q.buffer[pos&q.mask]
		diff := int64(c.sequence.Load()) - int64(pos)

		switch {
		case diff == 0:
			if q.enqueuePos.CompareAndSwap(pos, pos+1) {
				c.value = item
				c.sequence.Store(pos + 1)
				return true
			}
		case diff < 0:
			return false
		}

		// Another producer claimed the slot first, retry
		runtime.Gosched()
	}
}

// Dequeue removes the oldest item. It returns the zero value and false when
// the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	for {
		pos := q.dequeuePos.Load()
		c := &q.buffer[pos&q.mask]
		diff := int64(c.sequence.Load()) - int64(pos+1)

		switch {
		case diff == 0:
			if q.dequeuePos.CompareAndSwap(pos, pos+1) {
				item := c.value
				c.value = zero
				c.sequence.Store(pos + q.capacity)
				return item, true
			}
		case diff < 0:
			return zero, false
		}

		runtime.Gosched()
	}
}

// Len returns the number of queued items.
// This is an approximation in concurrent scenarios.
func (q *Queue[T]) Len() int {
	enq := q.enqueuePos.Load()
	deq := q.dequeuePos.Load()
	if enq < deq {
		return 0
	}
	return int(enq - deq)
}

// Cap returns the queue's capacity.
func (q *Queue[T]) Cap() int {
	return int(q.capacity)
}

// Counter is a lock-free counter for statistics.
type Counter struct {
	value atomic.Uint64
}

// Increment atomically increments the counter by one.
func (c *Counter) Increment() {
	c.value.Add(1)
}

// Add atomically adds delta.
func (c *Counter) Add(delta uint64) {
	c.value.Add(delta)
}

// Get returns the current value.
func (c *Counter) Get() uint64 {
	return c.value.Load()
}

// Reset sets the counter back to zero and returns the previous value.
func (c *Counter) Reset() uint64 {
	return c.value.Swap(0)
}

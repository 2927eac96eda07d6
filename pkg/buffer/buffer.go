// Package buffer provides a generic, thread-safe ring buffer with a
// configurable overflow policy.
package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/c360/objkit/errors"
)

// OverflowPolicy defines what Write does when the buffer is full.
type OverflowPolicy int

const (
	// DropOldest evicts the oldest item to make room.
	DropOldest OverflowPolicy = iota
	// DropNewest discards the item being written.
	DropNewest
)

// String returns the policy name.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	default:
		return "Unknown"
	}
}

// DropCallback receives every item lost to the overflow policy. It runs
// outside the buffer lock.
type DropCallback[T any] func(item T)

// Option configures a Ring.
type Option[T any] func(*Ring[T])

// WithOverflowPolicy sets the overflow behavior. The default is DropOldest.
func WithOverflowPolicy[T any](policy OverflowPolicy) Option[T] {
	return func(r *Ring[T]) { r.policy = policy }
}

// WithDropCallback sets a callback for dropped items.
func WithDropCallback[T any](fn DropCallback[T]) Option[T] {
	return func(r *Ring[T]) { r.onDrop = fn }
}

// Stats are counters of a Ring's lifetime.
type Stats struct {
	Writes  int64
	Reads   int64
	Dropped int64
}

// Ring is a fixed-capacity FIFO.
type Ring[T any] struct {
	mu     sync.Mutex
	items  []T
	head   int // next write
	size   int
	closed bool

	policy OverflowPolicy
	onDrop DropCallback[T]

	writes, reads, dropped atomic.Int64
}

// New creates a ring holding at most capacity items. A capacity below one
// is raised to one.
func New[T any](capacity int, opts ...Option[T]) *Ring[T] {
	r := &Ring[T]{items: make([]T, max(capacity, 1))}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Write appends item, applying the overflow policy when full.
func (r *Ring[T]) Write(item T) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errors.WrapInvalid(errors.ErrClosed, "Buffer", "Write", "write to closed buffer")
	}

	var (
		dropped T
		drop    bool
	)
	if r.size == len(r.items) {
		drop = true
		if r.policy == DropNewest {
			r.mu.Unlock()
			r.dropped.Add(1)
			if r.onDrop != nil {
				r.onDrop(item)
			}
			return nil
		}
		dropped = r.items[r.tail()]
		r.size--
	}

	r.items[r.head] = item
	r.head = (r.head + 1) % len(r.items)
	r.size++
	r.writes.Add(1)
	r.mu.Unlock()

	if drop {
		r.dropped.Add(1)
		if r.onDrop != nil {
			r.onDrop(dropped)
		}
	}
	return nil
}

func (r *Ring[T]) tail() int {
	return (r.head - r.size + len(r.items)) % len(r.items)
}

// Read removes and returns the oldest item.
func (r *Ring[T]) Read() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	if r.size == 0 {
		return zero, false
	}
	t := r.tail()
	item := r.items[t]
	r.items[t] = zero
	r.size--
	r.reads.Add(1)
	return item, true
}

// Drain removes and returns every item, oldest first.
func (r *Ring[T]) Drain() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.snapshot()
	clear(r.items)
	r.size = 0
	r.reads.Add(int64(len(out)))
	return out
}

// Snapshot returns the items, oldest first, without removing them.
func (r *Ring[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Ring[T]) snapshot() []T {
	out := make([]T, r.size)
	t := r.tail()
	for i := range out {
		out[i] = r.items[(t+i)%len(r.items)]
	}
	return out
}

// Len returns the number of buffered items.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap returns the capacity.
func (r *Ring[T]) Cap() int { return len(r.items) }

// Stats returns the lifetime counters.
func (r *Ring[T]) Stats() Stats {
	return Stats{Writes: r.writes.Load(), Reads: r.reads.Load(), Dropped: r.dropped.Load()}
}

// Close rejects further writes. Buffered items stay readable.
func (r *Ring[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Package refcount provides the intrusive reference counter carried by every
// framework object.
//
// A Count starts at zero. Ref increments, Unref decrements, and the destructor
// supplied at construction runs exactly once, on the Unref that brings the
// count to zero (or on an Unref issued while the count is already zero).
// A Count created with NewDisabled never destroys anything and reports the
// Disabled sentinel from every call: the owner's lifetime is managed elsewhere.
//
// The integer is updated atomically, but a Count does not make the object it
// guards safe for concurrent mutation.
package refcount

import (
	"fmt"
	"sync/atomic"
)

// Disabled is reported by every operation on a counter whose counting is
// turned off.
const Disabled int32 = -1

// Count is an intrusive reference counter.
type Count struct {
	n         atomic.Int32
	disabled  bool
	destroyed atomic.Bool
	onZero    func()
}

// New returns an enabled counter at zero. onZero may be nil.
func New(onZero func()) *Count {
	return &Count{onZero: onZero}
}

// NewDisabled returns a counter that never counts and never destroys.
func NewDisabled() *Count {
	c := &Count{disabled: true}
	c.n.Store(Disabled)
	return c
}

// Ref increments the count and returns the new value.
func (c *Count) Ref() int32 {
	if c.disabled {
		return Disabled
	}
	if c.destroyed.Load() {
		panic("refcount: Ref on destroyed object")
	}
	return c.n.Add(1)
}

// Unref decrements the count. When the count reaches zero, or was already
// zero, the destructor runs and zero is returned. Unref on a destroyed
// counter panics.
func (c *Count) Unref() int32 {
	if c.disabled {
		return Disabled
	}
	for {
		cur := c.n.Load()
		next := cur - 1
		if cur <= 0 {
			next = 0
		}
		if !c.n.CompareAndSwap(cur, next) {
			continue
		}
		if next == 0 {
			c.destroy()
		}
		return next
	}
}

// Value returns the current count without changing it.
func (c *Count) Value() int32 {
	if c.disabled {
		return Disabled
	}
	return c.n.Load()
}

// Enabled reports whether counting is active.
func (c *Count) Enabled() bool {
	return !c.disabled
}

// Destroyed reports whether the destructor has run.
func (c *Count) Destroyed() bool {
	return c.destroyed.Load()
}

func (c *Count) destroy() {
	if !c.destroyed.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("refcount: double destruction (count %d)", c.n.Load()))
	}
	if c.onZero != nil {
		c.onZero()
	}
}

// Package timestamp provides the int64 Unix-millisecond timestamps stamped on
// observed values.
//
// Zero means "not set": FromUnixMs(0) is the zero time.Time and Format(0) is
// the empty string. The clock behind Now can be swapped in tests with
// SetClock.
package timestamp

import (
	"sync/atomic"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

var clock atomic.Pointer[Clock]

func init() {
	c := Clock(time.Now)
	clock.Store(&c)
}

// SetClock replaces the clock behind Now and returns a function restoring the
// previous one.
func SetClock(c Clock) (restore func()) {
	prev := clock.Swap(&c)
	return func() { clock.Store(prev) }
}

// Now returns the current time as Unix milliseconds.
func Now() int64 {
	return ToUnixMs((*clock.Load())())
}

// ToUnixMs converts t to Unix milliseconds. The zero time maps to 0.
func ToUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMs converts Unix milliseconds to a UTC time. 0 maps to the zero time.
func FromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Format renders ms as RFC3339 with millisecond precision, or "" for 0.
func Format(ms int64) string {
	if ms == 0 {
		return ""
	}
	return FromUnixMs(ms).Format("2006-01-02T15:04:05.000Z07:00")
}

// Since returns the time elapsed since ms according to the current clock.
// It returns 0 for an unset timestamp.
func Since(ms int64) time.Duration {
	if ms == 0 {
		return 0
	}
	return time.Duration(Now()-ms) * time.Millisecond
}

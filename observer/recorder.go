package observer

import (
	"sync/atomic"

	"github.com/c360/objkit/observable"
	"github.com/c360/objkit/pkg/buffer"
)

// Recorder keeps the last capacity observed values, dropping the oldest.
// Stored values are retained and released when they are dropped.
type Recorder struct {
	ring      *buffer.Ring[observable.ObservedValue]
	completed atomic.Int32
}

// NewRecorder creates a recorder holding up to capacity values.
func NewRecorder(capacity int) *Recorder {
	return &Recorder{ring: buffer.New(capacity,
		buffer.WithDropCallback[observable.ObservedValue](observable.ObservedValue.Release))}
}

// OnNext implements observable.Observer.
func (r *Recorder) OnNext(v observable.ObservedValue) {
	v.Retain()
	if err := r.ring.Write(v); err != nil {
		v.Release()
	}
}

// OnComplete implements observable.Observer.
func (r *Recorder) OnComplete() { r.completed.Add(1) }

// Values returns the recorded values, oldest first. They stay owned by the
// recorder.
func (r *Recorder) Values() []observable.ObservedValue { return r.ring.Snapshot() }

// Drain returns and forgets the recorded values. The caller takes over
// their references and releases them when done.
func (r *Recorder) Drain() []observable.ObservedValue { return r.ring.Drain() }

// Reset forgets and releases every recorded value.
func (r *Recorder) Reset() {
	for _, v := range r.ring.Drain() {
		v.Release()
	}
}

// Named returns the recorded values of one name, oldest first.
func (r *Recorder) Named(name string) []observable.ObservedValue {
	var out []observable.ObservedValue
	for _, v := range r.ring.Snapshot() {
		if v.Name == name {
			out = append(out, v)
		}
	}
	return out
}

// Dropped returns how many values were evicted for lack of room.
func (r *Recorder) Dropped() int64 { return r.ring.Stats().Dropped }

// Completed returns how many subjects completed while subscribed.
func (r *Recorder) Completed() int { return int(r.completed.Load()) }

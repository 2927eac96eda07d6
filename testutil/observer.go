package testutil

import (
	"sync"

	"github.com/c360/objkit/observable"
)

// RecordingObserver stores every observed value and counts completions.
// Stored values are retained until Reset.
type RecordingObserver struct {
	mu        sync.Mutex
	values    []observable.ObservedValue
	completed int
}

// NewRecordingObserver creates an empty recorder.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

// OnNext implements observable.Observer.
func (r *RecordingObserver) OnNext(v observable.ObservedValue) {
	v.Retain()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

// Reset forgets and releases every stored value.
func (r *RecordingObserver) Reset() {
	r.mu.Lock()
	values := r.values
	r.values = nil
	r.mu.Unlock()
	for _, v := range values {
		v.Release()
	}
}

// OnComplete implements observable.Observer.
func (r *RecordingObserver) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

// Values returns a copy of the observed values.
func (r *RecordingObserver) Values() []observable.ObservedValue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]observable.ObservedValue(nil), r.values...)
}

// Names returns the observed names in delivery order.
func (r *RecordingObserver) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.values))
	for i, v := range r.values {
		names[i] = v.Name
	}
	return names
}

// Len returns the number of observed values.
func (r *RecordingObserver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// Completed returns how many times OnComplete was called.
func (r *RecordingObserver) Completed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

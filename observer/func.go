package observer

import "github.com/c360/objkit/observable"

// Func adapts functions to observable.Observer. Either may be nil.
type Func struct {
	Next     func(observable.ObservedValue)
	Complete func()
}

// OnNext implements observable.Observer.
func (f Func) OnNext(v observable.ObservedValue) {
	if f.Next != nil {
		f.Next(v)
	}
}

// OnComplete implements observable.Observer.
func (f Func) OnComplete() {
	if f.Complete != nil {
		f.Complete()
	}
}

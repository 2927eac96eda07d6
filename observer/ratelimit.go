package observer

import (
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/c360/objkit/observable"
)

// RateLimited forwards observations to another observer while its token
// bucket allows and drops the rest. Completion is always forwarded.
type RateLimited struct {
	next    observable.Observer
	limiter *rate.Limiter
	dropped atomic.Int64
}

// NewRateLimited allows perSecond deliveries with bursts of burst.
func NewRateLimited(next observable.Observer, perSecond float64, burst int) *RateLimited {
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// OnNext implements observable.Observer.
func (r *RateLimited) OnNext(v observable.ObservedValue) {
	if !r.limiter.Allow() {
		r.dropped.Add(1)
		return
	}
	r.next.OnNext(v)
}

// OnComplete implements observable.Observer.
func (r *RateLimited) OnComplete() { r.next.OnComplete() }

// Dropped returns the number of observations not forwarded.
func (r *RateLimited) Dropped() int64 { return r.dropped.Load() }

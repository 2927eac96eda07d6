package observer

import (
	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/observable"
	"github.com/c360/objkit/pkg/cache"
)

// Latest keeps the newest value of every (source, name) pair. Pairs beyond
// the capacity are evicted least recently updated first. Stored values are
// retained and released when replaced or evicted.
type Latest struct {
	values *cache.LRU[observable.ObservedValue]
}

// NewLatest creates a Latest holding up to size pairs.
func NewLatest(size int) (*Latest, error) {
	release := func(_ string, v observable.ObservedValue) { v.Release() }
	c, err := cache.NewLRU(size,
		cache.WithEvictionCallback[observable.ObservedValue](release),
		cache.WithReplaceCallback[observable.ObservedValue](release))
	if err != nil {
		return nil, errors.Wrap(err, "Latest", "NewLatest", "create cache")
	}
	return &Latest{values: c}, nil
}

// Key returns the lookup key of an observation.
func Key(source, name string) string { return source + "/" + name }

// OnNext implements observable.Observer.
func (l *Latest) OnNext(v observable.ObservedValue) {
	v.Retain()
	if _, err := l.values.Set(Key(v.Source, v.Name), v); err != nil {
		v.Release()
	}
}

// OnComplete implements observable.Observer.
func (l *Latest) OnComplete() {}

// Get returns the newest value observed for name from source.
func (l *Latest) Get(source, name string) (observable.ObservedValue, bool) {
	return l.values.Get(Key(source, name))
}

// Keys returns the stored keys in lexical order.
func (l *Latest) Keys() []string { return l.values.SortedKeys() }

// Reset forgets and releases every stored value.
func (l *Latest) Reset() {
	for _, key := range l.values.Keys() {
		if v, ok := l.values.Get(key); ok {
			l.values.Delete(key)
			v.Release()
		}
	}
}

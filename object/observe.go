package object

import (
	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/observable"
	"github.com/c360/objkit/param"
)

// CurrentIteration is the parameter CurrentStep reads.
const CurrentIteration = "current_iteration"

// RegisterObservable declares name as observable. Observations of names that
// were never declared are dropped.
func (b *Base) RegisterObservable(name, description string) {
	b.subject.Register(name, description)
}

// ObservableNames returns the declared names in declaration order.
func (b *Base) ObservableNames() []string {
	return b.subject.Names()
}

// Subscribe attaches obs and returns its subscription id.
func (b *Base) Subscribe(obs observable.Observer) observable.SubscriptionID {
	id := b.subject.Subscribe(obs)
	b.metrics().AddSubscriptions(b.name, 1)
	b.logger.Debug("Observer subscribed", "subscription", id)
	return id
}

// Unsubscribe detaches a subscription and reports whether it existed.
func (b *Base) Unsubscribe(id observable.SubscriptionID) bool {
	if !b.subject.Unsubscribe(id) {
		return false
	}
	b.metrics().AddSubscriptions(b.name, -1)
	return true
}

// NumSubscriptions returns the number of active subscriptions.
func (b *Base) NumSubscriptions() int { return b.subject.Len() }

// Observe delivers a copy of value to every subscriber. Without subscribers
// it does nothing, not even copy the value.
func (b *Base) Observe(step int64, name string, value anyvalue.Value, props param.Properties) {
	if !b.subject.Active() {
		return
	}
	if _, ok := b.subject.Declared(name); !ok {
		b.metrics().RecordDropped(b.name, "undeclared")
		b.logger.Warn("Dropping observation of undeclared parameter", "name", name)
		return
	}
	if value.IsFunc() {
		value = anyvalue.FromReflect(value.Reflect())
	}

	ov, err := observable.Snapshot(step, name, value, props)
	if err != nil {
		b.metrics().RecordDropped(b.name, "not_cloneable")
		b.logger.Warn("Dropping observation", "name", name, "error", err)
		return
	}
	ov.Source = b.self.Name()
	ov.SourceID = b.id
	ov.Retain()
	b.subject.Emit(ov)
	ov.Release()
	b.metrics().RecordObservation(b.name, name)
}

// ObserveParameter observes the current value of parameter name with its
// registered properties.
func (b *Base) ObserveParameter(step int64, name string) error {
	p, ok := b.params.Lookup(name)
	if !ok {
		err := errors.NotFound(b.name, name)
		b.recordError(err)
		return err
	}
	b.Observe(step, name, p.Value(), p.Properties())
	return nil
}

// ObserveValue is Observe for a plain Go value.
func ObserveValue[T any](o Object, step int64, name string, value T, props param.Properties) {
	b := o.Core()
	if !b.subject.Active() {
		return
	}
	b.Observe(step, name, anyvalue.Make(value), props)
}

// CurrentStep returns the integer parameter current_iteration, or -1 when
// the object has none.
func (b *Base) CurrentStep() int64 {
	p, ok := b.params.Lookup(CurrentIteration)
	if !ok {
		return -1
	}
	n, ok := p.Value().Int()
	if !ok {
		return -1
	}
	return n
}

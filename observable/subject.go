// Package observable implements the per-object publish channel for parameter
// snapshots.
//
// A Subject holds a static whitelist of observable names and an ordered table
// of subscribers. Emit delivers synchronously, in subscription order, on the
// caller's goroutine; a slow observer stalls the producer. A Subject with no
// subscribers is Idle and Emit does nothing. Subscribe and Unsubscribe are not
// safe to call concurrently with Emit, and unsubscribing from inside OnNext
// is not supported.
package observable

import (
	"log/slog"
	"slices"
)

// Observer receives observed values. The value is only guaranteed to be
// alive during OnNext; an observer that stores it calls Retain.
type Observer interface {
	OnNext(v ObservedValue)
	OnComplete()
}

// SubscriptionID identifies a subscription. IDs increase monotonically and
// are never reused within a Subject.
type SubscriptionID int64

// State is the subscription state of a Subject.
type State int

// Subject states.
const (
	Idle State = iota
	Observing
)

func (s State) String() string {
	if s == Observing {
		return "observing"
	}
	return "idle"
}

// Declaration is a whitelisted observable name.
type Declaration struct {
	Name        string
	Description string
}

type subscription struct {
	id  SubscriptionID
	obs Observer
}

// Subject is a synchronous multicast channel.
type Subject struct {
	logger   *slog.Logger
	declared []Declaration
	index    map[string]int
	subs     []subscription
	nextID   SubscriptionID
}

// NewSubject returns an idle subject. A nil logger uses slog.Default().
func NewSubject(logger *slog.Logger) *Subject {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subject{logger: logger, index: make(map[string]int)}
}

// Register adds name to the whitelist. Registering a name again replaces its
// description.
func (s *Subject) Register(name, description string) {
	if i, ok := s.index[name]; ok {
		s.declared[i].Description = description
		return
	}
	s.index[name] = len(s.declared)
	s.declared = append(s.declared, Declaration{Name: name, Description: description})
}

// Names returns the whitelisted names in registration order.
func (s *Subject) Names() []string {
	names := make([]string, len(s.declared))
	for i, d := range s.declared {
		names[i] = d.Name
	}
	return names
}

// Declared returns the declaration for name.
func (s *Subject) Declared(name string) (Declaration, bool) {
	i, ok := s.index[name]
	if !ok {
		return Declaration{}, false
	}
	return s.declared[i], true
}

// Subscribe adds obs and returns its id.
func (s *Subject) Subscribe(obs Observer) SubscriptionID {
	if obs == nil {
		panic("observable: nil observer")
	}
	s.nextID++
	s.subs = append(s.subs, subscription{id: s.nextID, obs: obs})
	return s.nextID
}

// Unsubscribe removes the subscription and reports whether it existed. The
// observer does not receive OnComplete.
func (s *Subject) Unsubscribe(id SubscriptionID) bool {
	i := slices.IndexFunc(s.subs, func(sub subscription) bool { return sub.id == id })
	if i < 0 {
		return false
	}
	next := make([]subscription, 0, len(s.subs)-1)
	next = append(next, s.subs[:i]...)
	s.subs = append(next, s.subs[i+1:]...)
	return true
}

// Len returns the number of active subscriptions.
func (s *Subject) Len() int { return len(s.subs) }

// State reports whether anyone is subscribed.
func (s *Subject) State() State {
	if len(s.subs) == 0 {
		return Idle
	}
	return Observing
}

// Active is State() == Observing.
func (s *Subject) Active() bool { return len(s.subs) > 0 }

// Emit delivers v to every subscriber in subscription order. Values whose
// name was never registered are dropped with a warning.
func (s *Subject) Emit(v ObservedValue) {
	if len(s.subs) == 0 {
		return
	}
	d, ok := s.Declared(v.Name)
	if !ok {
		s.logger.Warn("Dropping observation of undeclared parameter", "name", v.Name, "source", v.Source)
		return
	}
	if v.Description == "" {
		v.Description = d.Description
	}
	for _, sub := range s.subs {
		sub.obs.OnNext(v)
	}
}

// Complete signals OnComplete to every subscriber and clears the table. The
// id counter is not reset.
func (s *Subject) Complete() {
	subs := s.subs
	s.subs = nil
	for _, sub := range subs {
		sub.obs.OnComplete()
	}
}

// Filtered restricts obs to values whose name is one of names.
func Filtered(obs Observer, names ...string) Observer {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return &filtered{obs: obs, names: set}
}

type filtered struct {
	obs   Observer
	names map[string]struct{}
}

func (f *filtered) OnNext(v ObservedValue) {
	if _, ok := f.names[v.Name]; ok {
		f.obs.OnNext(v)
	}
}

func (f *filtered) OnComplete() { f.obs.OnComplete() }

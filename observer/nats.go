package observer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/observable"
	"github.com/c360/objkit/pkg/retry"
)

// Publisher sends a message on a subject. *natsclient.Client and
// *nats.Conn satisfy it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSOption configures a NATS observer.
type NATSOption func(*NATS)

// WithRetry sets the publish retry policy. The default is
// errors.DefaultRetryConfig().
func WithRetry(cfg retry.Config) NATSOption {
	return func(n *NATS) { n.retry = cfg }
}

// WithPublishTimeout bounds one delivery including retries.
func WithPublishTimeout(d time.Duration) NATSOption {
	return func(n *NATS) { n.timeout = d }
}

// WithNATSLogger sets the logger for failed deliveries.
func WithNATSLogger(logger *slog.Logger) NATSOption {
	return func(n *NATS) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NATS publishes each observation as JSON on "<prefix>.<source>.<name>".
// Failed deliveries are logged and counted, never returned to the producer.
type NATS struct {
	pub     Publisher
	prefix  string
	retry   retry.Config
	timeout time.Duration
	logger  *slog.Logger

	published atomic.Int64
	failed    atomic.Int64
}

// NewNATS creates an observer publishing through pub under prefix.
func NewNATS(pub Publisher, prefix string, opts ...NATSOption) *NATS {
	n := &NATS{
		pub:     pub,
		prefix:  prefix,
		retry:   errors.DefaultRetryConfig().ToRetryConfig(),
		timeout: 5 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Subject returns the subject an observation is published on.
func (n *NATS) Subject(v observable.ObservedValue) string {
	return n.prefix + "." + token(v.Source) + "." + token(v.Name)
}

// token makes s usable as a single subject token.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}

// OnNext implements observable.Observer.
func (n *NATS) OnNext(v observable.ObservedValue) {
	data, err := json.Marshal(v)
	if err != nil {
		n.failed.Add(1)
		n.logger.Error("Cannot encode observation", "name", v.Name, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	subject := n.Subject(v)
	err = retry.Do(ctx, n.retry, func() error {
		return n.pub.Publish(subject, data)
	})
	if err != nil {
		n.failed.Add(1)
		n.logger.Warn("Dropping observation after failed publish",
			"subject", subject, "step", v.Step, "error", err)
		return
	}
	n.published.Add(1)
}

// OnComplete flushes the publisher when it supports flushing.
func (n *NATS) OnComplete() {
	if f, ok := n.pub.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			n.logger.Warn("Flush after completion failed", "error", err)
		}
	}
}

// Published returns the number of delivered observations.
func (n *NATS) Published() int64 { return n.published.Load() }

// Failed returns the number of observations that could not be delivered.
func (n *NATS) Failed() int64 { return n.failed.Load() }

// Package testutil provides helpers for objkit tests.
//
// NewEnvironment builds an isolated env.Environment that logs into a buffer
// and records metrics into a private registry, so tests can assert on both:
//
//	te := testutil.NewEnvironment(t)
//	k := model.NewGaussianKernel(object.WithEnvironment(te.Env))
//	...
//	assert.Contains(t, te.Logs.String(), "Dropping observation")
//
// RecordingObserver collects everything an object emits. MockPublisher
// stands in for a NATS connection, stores published messages per subject and
// can be told to fail the next N publishes. ErrMockConnection is the
// transient error it returns by default.
package testutil

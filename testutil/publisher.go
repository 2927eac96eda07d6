package testutil

import (
	"errors"
	"sync"
	"testing"
)

// ErrMockConnection is returned by MockPublisher when told to fail.
var ErrMockConnection = errors.New("mock connection error")

// MockPublisher is an in-memory stand-in for a NATS connection.
// Thread-safe for concurrent use from multiple goroutines.
type MockPublisher struct {
	mu       sync.RWMutex
	messages map[string][][]byte
	failures int
	failErr  error
	attempts int
	closed   bool
}

// NewMockPublisher creates an empty publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

// Publish stores data under subject.
func (p *MockPublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.attempts++
	if p.closed {
		return errors.New("publisher is closed")
	}
	if p.failures > 0 {
		p.failures--
		return p.failErr
	}
	p.messages[subject] = append(p.messages[subject], append([]byte(nil), data...))
	return nil
}

// FailNext makes the next n publishes return err; a nil err means
// ErrMockConnection.
func (p *MockPublisher) FailNext(n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		err = ErrMockConnection
	}
	p.failures, p.failErr = n, err
}

// Messages returns a copy of the messages published on subject.
func (p *MockPublisher) Messages(subject string) [][]byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	msgs := p.messages[subject]
	if msgs == nil {
		return nil
	}
	out := make([][]byte, len(msgs))
	copy(out, msgs)
	return out
}

// Count returns the number of messages on subject.
func (p *MockPublisher) Count(subject string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.messages[subject])
}

// Attempts returns the number of Publish calls, failed ones included.
func (p *MockPublisher) Attempts() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.attempts
}

// Close makes every later Publish fail.
func (p *MockPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// AssertNoMessages fails the test if anything was published on subject.
func AssertNoMessages(t *testing.T, p *MockPublisher, subject string) {
	t.Helper()
	if n := p.Count(subject); n > 0 {
		t.Fatalf("expected no messages on subject %s, got %d", subject, n)
	}
}

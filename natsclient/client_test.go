package natsclient

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/objkit/errors"
)

func TestConnectionStatus_String(t *testing.T) {
	tests := map[ConnectionStatus]string{
		StatusDisconnected:   "disconnected",
		StatusConnecting:     "connecting",
		StatusConnected:      "connected",
		StatusReconnecting:   "reconnecting",
		StatusClosed:         "closed",
		ConnectionStatus(42): "unknown",
	}
	for s, want := range tests {
		assert.Equal(t, want, s.String())
	}
}

func TestClient_PublishWithoutConnection(t *testing.T) {
	c := New("nats://127.0.0.1:4222")
	assert.Equal(t, StatusDisconnected, c.Status())

	err := c.Publish("objkit.observed", []byte("{}"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNoConnection))
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, int64(0), c.Published())

	assert.Error(t, c.Flush())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, StatusClosed, c.Status())
}

func TestClient_ConnectFailure(t *testing.T) {
	// port 1 is never a NATS server
	c := New("nats://127.0.0.1:1", WithTimeout(200*time.Millisecond), WithReconnect(0, 0))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.Connect(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, StatusDisconnected, c.Status())
}

func TestClient_ConnectCancelled(t *testing.T) {
	c := New("nats://10.255.255.1:4222", WithTimeout(10*time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Connect(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.NotEqual(t, StatusConnected, c.Status())
}

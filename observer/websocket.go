package observer

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/c360/objkit/observable"
	"github.com/c360/objkit/pkg/timestamp"
)

// Envelope frames every message sent to WebSocket clients.
//
// Types:
//   - "data": Payload holds one ObservedValue
//   - "complete": a subject the observer was attached to finished
type Envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// WebSocketOption configures a WebSocket observer.
type WebSocketOption func(*WebSocket)

// WithWriteTimeout bounds a single write to one client.
func WithWriteTimeout(d time.Duration) WebSocketOption {
	return func(w *WebSocket) { w.writeTimeout = d }
}

// WithWebSocketLogger sets the logger for connection events.
func WithWebSocketLogger(logger *slog.Logger) WebSocketOption {
	return func(w *WebSocket) {
		if logger != nil {
			w.logger = logger
		}
	}
}

type wsClient struct {
	conn        *websocket.Conn
	connectedAt time.Time
	writeMu     sync.Mutex // gorilla/websocket panics on concurrent writes
	closeOnce   sync.Once
}

// WebSocket broadcasts observations as JSON to every connected client. It
// is an http.Handler: mount it on a mux and clients connect by upgrading a
// GET request. A client that cannot be written to is dropped.
type WebSocket struct {
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	logger       *slog.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]*wsClient
	closed  bool

	sent    atomic.Int64
	dropped atomic.Int64
}

// NewWebSocket creates an observer with no clients.
func NewWebSocket(opts ...WebSocketOption) *WebSocket {
	w := &WebSocket{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(_ *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		writeTimeout: 10 * time.Second,
		logger:       slog.Default(),
		clients:      make(map[*websocket.Conn]*wsClient),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ServeHTTP upgrades the request and registers the client.
func (w *WebSocket) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Debug("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &wsClient{conn: conn, connectedAt: time.Now()}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		_ = conn.Close()
		return
	}
	w.clients[conn] = c
	n := len(w.clients)
	w.mu.Unlock()
	w.logger.Debug("WebSocket client connected", "remote", r.RemoteAddr, "clients", n)

	go w.readLoop(c)
}

// readLoop discards client frames and notices disconnects.
func (w *WebSocket) readLoop(c *wsClient) {
	defer w.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (w *WebSocket) remove(c *wsClient) {
	c.closeOnce.Do(func() {
		w.mu.Lock()
		delete(w.clients, c.conn)
		n := len(w.clients)
		w.mu.Unlock()
		_ = c.conn.Close()
		w.logger.Debug("WebSocket client disconnected",
			"connected_for", time.Since(c.connectedAt), "clients", n)
	})
}

func (w *WebSocket) snapshot() []*wsClient {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*wsClient, 0, len(w.clients))
	for _, c := range w.clients {
		out = append(out, c)
	}
	return out
}

func (w *WebSocket) broadcast(kind string, payload json.RawMessage) {
	clients := w.snapshot()
	if len(clients) == 0 {
		return
	}
	data, err := json.Marshal(Envelope{
		Type:      kind,
		ID:        uuid.NewString(),
		Timestamp: timestamp.Now(),
		Payload:   payload,
	})
	if err != nil {
		w.dropped.Add(int64(len(clients)))
		w.logger.Error("Cannot encode envelope", "type", kind, "error", err)
		return
	}
	for _, c := range clients {
		if err := w.write(c, websocket.TextMessage, data); err != nil {
			w.dropped.Add(1)
			w.remove(c)
			continue
		}
		w.sent.Add(1)
	}
}

func (w *WebSocket) write(c *wsClient, kind int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	return c.conn.WriteMessage(kind, data)
}

// OnNext implements observable.Observer.
func (w *WebSocket) OnNext(v observable.ObservedValue) {
	payload, err := json.Marshal(v)
	if err != nil {
		w.dropped.Add(1)
		w.logger.Error("Cannot encode observation", "name", v.Name, "error", err)
		return
	}
	w.broadcast("data", payload)
}

// OnComplete tells clients that an observed object finished.
func (w *WebSocket) OnComplete() {
	w.broadcast("complete", nil)
}

// Clients returns the number of connected clients.
func (w *WebSocket) Clients() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.clients)
}

// Sent returns the number of messages written to clients.
func (w *WebSocket) Sent() int64 { return w.sent.Load() }

// Dropped returns the number of messages that could not be written.
func (w *WebSocket) Dropped() int64 { return w.dropped.Load() }

// Close sends a close frame to every client and refuses new ones.
func (w *WebSocket) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
	for _, c := range w.snapshot() {
		_ = w.write(c, websocket.CloseMessage, msg)
		w.remove(c)
	}
}

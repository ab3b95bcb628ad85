package protocol

import (
	"context"
	"sync"
)

// LoopbackClient is an in-memory Client. It never touches a network:
// events are injected with Emit. Used by tests and by deployments that
// have not configured a wire adapter yet.
type LoopbackClient struct {
	mu        sync.Mutex
	handlers  []Handler
	resolver  MessageResolver
	sent      []SentMessage
	closed    bool
	loggedOut bool
}

// SentMessage records one Send call on a LoopbackClient.
type SentMessage struct {
	To      string
	Payload []byte
}

func NewLoopbackClient() *LoopbackClient {
	return &LoopbackClient{}
}

func (c *LoopbackClient) Connect(ctx context.Context) error { return nil }

func (c *LoopbackClient) Send(ctx context.Context, to string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, SentMessage{To: to, Payload: payload})
	return nil
}

func (c *LoopbackClient) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggedOut = true
	return nil
}

func (c *LoopbackClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *LoopbackClient) AddEventHandler(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
}

func (c *LoopbackClient) SetMessageResolver(r MessageResolver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolver = r
}

// Emit delivers an event to all registered handlers, synchronously and
// in registration order. Mirrors the single-threaded-per-session
// delivery contract of real clients.
func (c *LoopbackClient) Emit(evt Event) {
	c.mu.Lock()
	handlers := make([]Handler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()
	for _, h := range handlers {
		h(evt)
	}
}

// Resolve runs the registered message resolver, as the wire library
// would when retrying a delivery.
func (c *LoopbackClient) Resolve(key MessageKey) ([]byte, int, bool) {
	c.mu.Lock()
	r := c.resolver
	c.mu.Unlock()
	if r == nil {
		return nil, 0, false
	}
	return r(key)
}

// Closed reports whether Close has been called.
func (c *LoopbackClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// LoggedOut reports whether Logout has been called.
func (c *LoopbackClient) LoggedOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggedOut
}

// Sent returns a copy of all messages sent through the client.
func (c *LoopbackClient) Sent() []SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentMessage, len(c.sent))
	copy(out, c.sent)
	return out
}

// LoopbackDialer hands out LoopbackClients and remembers them by
// connection id so callers can drive events.
type LoopbackDialer struct {
	mu      sync.Mutex
	clients map[int][]*LoopbackClient
}

func NewLoopbackDialer() *LoopbackDialer {
	return &LoopbackDialer{clients: make(map[int][]*LoopbackClient)}
}

func (d *LoopbackDialer) Dial(ctx context.Context, connectionID int, credentials []byte) (Client, error) {
	c := NewLoopbackClient()
	d.mu.Lock()
	d.clients[connectionID] = append(d.clients[connectionID], c)
	d.mu.Unlock()
	return c, nil
}

// Client returns the most recently dialed client for a connection id.
func (d *LoopbackDialer) Client(connectionID int) (*LoopbackClient, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cs := d.clients[connectionID]
	if len(cs) == 0 {
		return nil, false
	}
	return cs[len(cs)-1], true
}

// DialCount returns how many clients were dialed for a connection id.
func (d *LoopbackDialer) DialCount(connectionID int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients[connectionID])
}

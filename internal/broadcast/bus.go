// Package broadcast pushes session and presence updates to interested
// subscribers: in-process handlers (UI bridges, tests) and, when
// configured, Redis pub/sub channels for other processes.
package broadcast

import "sync"

// Handler receives every published payload with the channel it was
// addressed to. Handlers should be non-blocking.
type Handler func(channel string, payload []byte)

// Bus fans published payloads out to in-process subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]Handler)}
}

// Subscribe registers a subscriber under an id. Re-subscribing with
// the same id replaces the previous handler.
func (b *Bus) Subscribe(id string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[id] = h
}

// Unsubscribe removes a subscriber.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Publish delivers a payload to all subscribers.
func (b *Bus) Publish(channel string, payload []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, h := range b.subs {
		h(channel, payload)
	}
}

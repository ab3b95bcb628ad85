package wbot

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nextlevelbuilder/wagate/internal/protocol"
)

// RetryCacheConfig bounds the message retry cache.
type RetryCacheConfig struct {
	Capacity   int           // max cached payloads (default 1000)
	MessageTTL time.Duration // payload lifetime (default 60s)
	AttemptTTL time.Duration // attempt-counter lifetime (default 600s)
}

// DefaultRetryCacheConfig returns the reference limits.
func DefaultRetryCacheConfig() RetryCacheConfig {
	return RetryCacheConfig{
		Capacity:   1000,
		MessageTTL: 60 * time.Second,
		AttemptTTL: 600 * time.Second,
	}
}

// RetryCache answers the protocol client's "resend this message"
// lookups from a bounded, time-expiring store. A miss is a valid,
// expected outcome: entries carry no durability guarantee.
type RetryCache struct {
	messages *expirable.LRU[string, []byte]
	attempts *expirable.LRU[string, int]

	// attempts has no atomic read-modify-write, so Bump serializes.
	mu sync.Mutex
}

func NewRetryCache(cfg RetryCacheConfig) *RetryCache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1000
	}
	if cfg.MessageTTL <= 0 {
		cfg.MessageTTL = 60 * time.Second
	}
	if cfg.AttemptTTL <= 0 {
		cfg.AttemptTTL = 600 * time.Second
	}
	return &RetryCache{
		messages: expirable.NewLRU[string, []byte](cfg.Capacity, nil, cfg.MessageTTL),
		attempts: expirable.NewLRU[string, int](cfg.Capacity, nil, cfg.AttemptTTL),
	}
}

// Put caches a sent payload for later resend lookups.
func (c *RetryCache) Put(k protocol.MessageKey, payload []byte) {
	c.messages.Add(cacheKey(k), payload)
}

// Get returns the cached payload for a key, if still present.
func (c *RetryCache) Get(k protocol.MessageKey) ([]byte, bool) {
	return c.messages.Get(cacheKey(k))
}

// Bump records one resend attempt and returns the running count.
func (c *RetryCache) Bump(k protocol.MessageKey) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := c.attempts.Get(cacheKey(k))
	n++
	c.attempts.Add(cacheKey(k), n)
	return n
}

// Attempts returns the recorded resend count for a key.
func (c *RetryCache) Attempts(k protocol.MessageKey) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := c.attempts.Get(cacheKey(k))
	return n
}

// Resolver adapts the cache to the protocol capability's lookup
// callback. Every hit counts as one resend attempt; the count rides
// back to the client so it can back off on deliveries that keep
// failing.
func (c *RetryCache) Resolver() protocol.MessageResolver {
	return func(k protocol.MessageKey) ([]byte, int, bool) {
		payload, ok := c.Get(k)
		if !ok {
			return nil, 0, false
		}
		return payload, c.Bump(k), true
	}
}

func cacheKey(k protocol.MessageKey) string {
	return k.RemoteParty + "|" + k.MessageID
}

package wbot

import (
	"sync"
	"time"
)

// TimerRegistry holds one watchdog timer per connection id. Arm
// replaces any existing timer; Disarm is race-free against a
// concurrent fire: a timer that loses the race runs no callback, and
// disarming after the callback has started is a no-op.
type TimerRegistry struct {
	mu     sync.Mutex
	timers map[int]*time.Timer
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{timers: make(map[int]*time.Timer)}
}

// Arm schedules onExpire to run after d, replacing any timer already
// armed for id.
func (t *TimerRegistry) Arm(id int, d time.Duration, onExpire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.timers[id]; ok {
		old.Stop()
	}

	var tm *time.Timer
	tm = time.AfterFunc(d, func() {
		// Only fire if we are still the registered timer: a Disarm or
		// a replacing Arm that ran between expiry and this callback
		// wins.
		t.mu.Lock()
		cur, ok := t.timers[id]
		if !ok || cur != tm {
			t.mu.Unlock()
			return
		}
		delete(t.timers, id)
		t.mu.Unlock()

		onExpire()
	})
	t.timers[id] = tm
}

// Disarm cancels and removes the timer for id, if present.
func (t *TimerRegistry) Disarm(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tm, ok := t.timers[id]; ok {
		tm.Stop()
		delete(t.timers, id)
	}
}

// RetryCounter counts pairing-code regenerations per connection id.
type RetryCounter struct {
	mu     sync.Mutex
	counts map[int]int
}

func NewRetryCounter() *RetryCounter {
	return &RetryCounter{counts: make(map[int]int)}
}

// Increment bumps the counter for id and returns the new count.
func (c *RetryCounter) Increment(id int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[id]++
	return c.counts[id]
}

// Reset clears the counter for id.
func (c *RetryCounter) Reset(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, id)
}

// Get returns the current count for id, 0 if never incremented.
func (c *RetryCounter) Get(id int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[id]
}

package wbot

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerRegistry_Fires(t *testing.T) {
	tr := NewTimerRegistry()
	var fired atomic.Int32

	tr.Arm(7, 10*time.Millisecond, func() { fired.Add(1) })

	waitFor(t, 500*time.Millisecond, func() bool { return fired.Load() == 1 })
}

func TestTimerRegistry_DisarmPreventsFire(t *testing.T) {
	tr := NewTimerRegistry()
	var fired atomic.Int32

	tr.Arm(7, 20*time.Millisecond, func() { fired.Add(1) })
	tr.Disarm(7)

	time.Sleep(60 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("disarmed timer fired")
	}
}

func TestTimerRegistry_DisarmIdempotent(t *testing.T) {
	tr := NewTimerRegistry()

	tr.Disarm(7) // never armed: no-op
	tr.Arm(7, 10*time.Millisecond, func() {})
	tr.Disarm(7)
	tr.Disarm(7) // second disarm: no-op, not an error
}

func TestTimerRegistry_ArmReplaces(t *testing.T) {
	tr := NewTimerRegistry()
	var first, second atomic.Int32

	tr.Arm(7, 20*time.Millisecond, func() { first.Add(1) })
	tr.Arm(7, 40*time.Millisecond, func() { second.Add(1) })

	time.Sleep(100 * time.Millisecond)
	if first.Load() != 0 {
		t.Error("replaced timer fired")
	}
	if second.Load() != 1 {
		t.Errorf("replacement fired %d times, want 1", second.Load())
	}
}

func TestTimerRegistry_DisarmAfterFireIsNoop(t *testing.T) {
	tr := NewTimerRegistry()
	var fired atomic.Int32

	tr.Arm(7, 5*time.Millisecond, func() { fired.Add(1) })
	waitFor(t, 500*time.Millisecond, func() bool { return fired.Load() == 1 })

	tr.Disarm(7) // callback already ran: no-op
	if fired.Load() != 1 {
		t.Errorf("fired %d times, want 1", fired.Load())
	}
}

func TestTimerRegistry_IndependentKeys(t *testing.T) {
	tr := NewTimerRegistry()
	var a, b atomic.Int32

	tr.Arm(1, 10*time.Millisecond, func() { a.Add(1) })
	tr.Arm(2, 10*time.Millisecond, func() { b.Add(1) })
	tr.Disarm(1)

	time.Sleep(50 * time.Millisecond)
	if a.Load() != 0 {
		t.Error("disarmed key fired")
	}
	if b.Load() != 1 {
		t.Error("independent key did not fire")
	}
}

func TestRetryCounter(t *testing.T) {
	c := NewRetryCounter()

	if c.Get(7) != 0 {
		t.Error("fresh counter should read 0")
	}
	if n := c.Increment(7); n != 1 {
		t.Errorf("first increment = %d", n)
	}
	if n := c.Increment(7); n != 2 {
		t.Errorf("second increment = %d", n)
	}
	if c.Get(9) != 0 {
		t.Error("other keys must be independent")
	}

	c.Reset(7)
	if c.Get(7) != 0 {
		t.Error("reset should clear the count")
	}
	c.Reset(99) // absent: no-op
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

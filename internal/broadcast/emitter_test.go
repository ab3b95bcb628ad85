package broadcast

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/nextlevelbuilder/wagate/internal/store"
)

type capture struct {
	mu       sync.Mutex
	payloads map[string][][]byte
}

func newCapture(bus *Bus) *capture {
	c := &capture{payloads: make(map[string][][]byte)}
	bus.Subscribe("test", func(channel string, payload []byte) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.payloads[channel] = append(c.payloads[channel], payload)
	})
	return c
}

func (c *capture) on(channel string) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payloads[channel]
}

func TestEmitter_SessionUpdate(t *testing.T) {
	bus := NewBus()
	sub := newCapture(bus)
	e := NewEmitter(bus, nil)

	conn := &store.Connection{ID: 7, CompanyID: 2, Status: store.StatusConnected, Number: "5511999"}
	e.SessionUpdate(context.Background(), conn)

	got := sub.on(SessionChannel(2))
	if len(got) != 1 {
		t.Fatalf("expected 1 payload on company channel, got %d", len(got))
	}

	var p SessionUpdatePayload
	if err := json.Unmarshal(got[0], &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Event != EventSessionUpdate {
		t.Errorf("event = %q", p.Event)
	}
	if p.Connection.Status != store.StatusConnected {
		t.Errorf("status = %q", p.Connection.Status)
	}
	if p.ID == "" {
		t.Error("missing event id")
	}
	if p.QrcodePNG != "" {
		t.Error("no qr image expected for connected state")
	}
}

func TestEmitter_SessionUpdateRendersQR(t *testing.T) {
	bus := NewBus()
	sub := newCapture(bus)
	e := NewEmitter(bus, nil)

	conn := &store.Connection{ID: 7, CompanyID: 2, Status: store.StatusQrcode, Qrcode: "2@pairing-payload"}
	e.SessionUpdate(context.Background(), conn)

	var p SessionUpdatePayload
	if err := json.Unmarshal(sub.on(SessionChannel(2))[0], &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.HasPrefix(p.QrcodePNG, "data:image/png;base64,") {
		t.Errorf("expected png data uri, got %q", p.QrcodePNG[:min(len(p.QrcodePNG), 30)])
	}
}

func TestEmitter_PresenceChannels(t *testing.T) {
	bus := NewBus()
	sub := newCapture(bus)
	e := NewEmitter(bus, nil)

	e.Presence(context.Background(), 2, 41, 5, "composing")

	for _, ch := range []string{TicketChannel(2, 41), SessionChannel(2), QueueChannel(2, 5)} {
		if len(sub.on(ch)) != 1 {
			t.Errorf("expected 1 payload on %s, got %d", ch, len(sub.on(ch)))
		}
	}

	// Unassigned queue: no queue channel.
	e.Presence(context.Background(), 2, 42, 0, "available")
	if len(sub.on(QueueChannel(2, 0))) != 0 {
		t.Error("queue channel should not receive payloads for queueID 0")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	var n int
	bus.Subscribe("a", func(string, []byte) { n++ })
	bus.Publish("ch", []byte("x"))
	bus.Unsubscribe("a")
	bus.Publish("ch", []byte("y"))
	if n != 1 {
		t.Errorf("expected 1 delivery, got %d", n)
	}
}

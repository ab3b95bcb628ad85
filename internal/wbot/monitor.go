package wbot

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/wagate/internal/broadcast"
	"github.com/nextlevelbuilder/wagate/internal/metrics"
	"github.com/nextlevelbuilder/wagate/internal/protocol"
	"github.com/nextlevelbuilder/wagate/internal/store"
)

// Presence broadcasts per ticket per second; chatter beyond this adds
// nothing for subscribers.
const (
	presencePerSecond = 2
	presenceBurst     = 5

	// limiterHighWater caps the per-ticket limiter map; the map is
	// dropped wholesale when it grows past this.
	limiterHighWater = 4096
)

// Monitor routes a connected session's presence stream: it resolves
// the remote party to a known contact and an open or pending ticket,
// then broadcasts. Events for unknown contacts or closed tickets are
// silently dropped — most presence chatter is irrelevant. Lookup
// failures are logged and never touch session state.
type Monitor struct {
	contacts store.ContactStore
	tickets  store.TicketStore
	emit     *broadcast.Emitter

	mu       sync.Mutex
	limiters map[int]*rate.Limiter
}

func NewMonitor(contacts store.ContactStore, tickets store.TicketStore, emit *broadcast.Emitter) *Monitor {
	return &Monitor{
		contacts: contacts,
		tickets:  tickets,
		emit:     emit,
		limiters: make(map[int]*rate.Limiter),
	}
}

// HandlePresence processes one presence event from a live session.
func (m *Monitor) HandlePresence(ctx context.Context, sess *Session, evt protocol.PresenceEvent) {
	contact, err := m.contacts.FindContact(ctx, evt.RemoteParty, sess.CompanyID)
	if err != nil {
		slog.Warn("wbot: presence contact lookup failed",
			"connection", sess.ID, "party", evt.RemoteParty, "error", err)
		metrics.PresenceDropped.WithLabelValues(metrics.DropLookupError).Inc()
		return
	}
	if contact == nil {
		metrics.PresenceDropped.WithLabelValues(metrics.DropUnknownContact).Inc()
		return
	}

	ticket, err := m.tickets.FindOpenOrPending(ctx, contact.ID, sess.ID)
	if err != nil {
		slog.Warn("wbot: presence ticket lookup failed",
			"connection", sess.ID, "contact", contact.ID, "error", err)
		metrics.PresenceDropped.WithLabelValues(metrics.DropLookupError).Inc()
		return
	}
	if ticket == nil {
		metrics.PresenceDropped.WithLabelValues(metrics.DropNoTicket).Inc()
		return
	}

	if !m.allow(ticket.ID) {
		metrics.PresenceDropped.WithLabelValues(metrics.DropRateLimited).Inc()
		return
	}

	m.emit.Presence(ctx, sess.CompanyID, ticket.ID, ticket.QueueID, evt.Presence)
	metrics.PresenceRouted.Inc()
}

func (m *Monitor) allow(ticketID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.limiters) > limiterHighWater {
		m.limiters = make(map[int]*rate.Limiter)
	}
	l, ok := m.limiters[ticketID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(presencePerSecond), presenceBurst)
		m.limiters[ticketID] = l
	}
	return l.Allow()
}

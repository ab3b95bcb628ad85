// Package metrics exposes Prometheus instrumentation for the session
// lifecycle core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconnect reasons for SessionReconnects.
const (
	ReasonTransient    = "transient"
	ReasonForcedLogout = "forced_logout"
	ReasonWatchdog     = "watchdog"
)

// Drop causes for PresenceDropped.
const (
	DropUnknownContact = "unknown_contact"
	DropNoTicket       = "no_ticket"
	DropLookupError    = "lookup_error"
	DropRateLimited    = "rate_limited"
)

var (
	// SessionsActive tracks live sessions in the registry.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wagate_sessions_active",
		Help: "Number of live protocol sessions.",
	})

	// SessionReconnects counts scheduled reconnect attempts by cause.
	SessionReconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagate_session_reconnects_total",
		Help: "Reconnect attempts scheduled, by cause.",
	}, []string{"reason"})

	// QRCodesIssued counts pairing codes handed to tenants.
	QRCodesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagate_qr_codes_issued_total",
		Help: "Pairing codes issued across all connections.",
	})

	// PairingExhausted counts sessions terminated after too many
	// pairing-code regenerations.
	PairingExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagate_pairing_exhausted_total",
		Help: "Sessions terminated after exceeding pairing retries.",
	})

	// PresenceRouted counts presence events broadcast to subscribers.
	PresenceRouted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wagate_presence_routed_total",
		Help: "Presence events routed to broadcast channels.",
	})

	// PresenceDropped counts presence events dropped without
	// broadcast, by cause. Rate-limit drops are routine shedding;
	// lookup errors are not, so they must stay distinguishable.
	PresenceDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagate_presence_dropped_total",
		Help: "Presence events dropped without broadcast, by cause.",
	}, []string{"cause"})
)

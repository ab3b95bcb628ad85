package wbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/wagate/internal/broadcast"
	"github.com/nextlevelbuilder/wagate/internal/metrics"
	"github.com/nextlevelbuilder/wagate/internal/protocol"
	"github.com/nextlevelbuilder/wagate/internal/store"
)

// ManagerConfig tunes the lifecycle state machine. Zero values take
// the reference deployment's defaults.
type ManagerConfig struct {
	// ConnectTimeout bounds how long a session may stay connecting
	// with no event before the watchdog forces a restart.
	ConnectTimeout time.Duration

	// ReconnectDelay is the pause before redialing after a transport
	// close (transient or forced).
	ReconnectDelay time.Duration

	// WatchdogReconnectDelay is the pause before redialing after a
	// watchdog-forced restart.
	WatchdogReconnectDelay time.Duration

	// MaxPairingRetries caps pairing-code regenerations per attempt;
	// beyond it the session goes terminal until a manual restart.
	MaxPairingRetries int

	// StartConcurrency bounds parallel dials during StartAll.
	StartConcurrency int
}

// DefaultManagerConfig returns the reference timings: 60s watchdog,
// 2s/3s fixed reconnect delays, 3 pairing retries. The delays are
// deliberately fixed, not exponential: pairing state survives outside
// the process and repeated attempts are cheap.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ConnectTimeout:         60 * time.Second,
		ReconnectDelay:         2 * time.Second,
		WatchdogReconnectDelay: 3 * time.Second,
		MaxPairingRetries:      3,
		StartConcurrency:       8,
	}
}

// Manager supervises one lifecycle controller per tenant connection:
// creation, event binding, state transitions, reconnect scheduling,
// and teardown. It is the only entry point the supervisor-facing API
// (StartSession, RestartAllForCompany) goes through.
type Manager struct {
	cfg ManagerConfig

	connections store.ConnectionStore
	creds       store.CredentialStore
	dialer      protocol.Dialer
	emit        *broadcast.Emitter
	monitor     *Monitor

	registry *Registry
	timers   *TimerRegistry
	retries  *RetryCounter
	cache    *RetryCache

	// starting tracks connect attempts that have not yet produced a
	// registrable event; the registry alone cannot answer "is a
	// connect in flight".
	mu       sync.Mutex
	starting map[int]bool
}

func NewManager(cfg ManagerConfig, connections store.ConnectionStore, creds store.CredentialStore,
	dialer protocol.Dialer, emit *broadcast.Emitter, monitor *Monitor) *Manager {

	def := DefaultManagerConfig()
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.WatchdogReconnectDelay <= 0 {
		cfg.WatchdogReconnectDelay = def.WatchdogReconnectDelay
	}
	if cfg.MaxPairingRetries <= 0 {
		cfg.MaxPairingRetries = def.MaxPairingRetries
	}
	if cfg.StartConcurrency <= 0 {
		cfg.StartConcurrency = def.StartConcurrency
	}

	return &Manager{
		cfg:         cfg,
		connections: connections,
		creds:       creds,
		dialer:      dialer,
		emit:        emit,
		monitor:     monitor,
		registry:    NewRegistry(),
		timers:      NewTimerRegistry(),
		retries:     NewRetryCounter(),
		cache:       NewRetryCache(DefaultRetryCacheConfig()),
		starting:    make(map[int]bool),
	}
}

// ErrNoSession is returned when an operation needs a live session and
// none is registered for the connection.
var ErrNoSession = errors.New("wbot: no live session")

// Registry exposes the live session set.
func (m *Manager) Registry() *Registry { return m.registry }

// Cache exposes the message retry cache so senders can populate it.
func (m *Manager) Cache() *RetryCache { return m.cache }

// Send delivers a payload through a connection's live session and
// caches it so the protocol client's resend lookups can find it.
func (m *Manager) Send(ctx context.Context, id int, to, messageID string, payload []byte) error {
	s, ok := m.registry.Get(id)
	if !ok {
		return ErrNoSession
	}
	if err := s.Client.Send(ctx, to, payload); err != nil {
		return fmt.Errorf("send via connection %d: %w", id, err)
	}
	m.cache.Put(protocol.MessageKey{RemoteParty: to, MessageID: messageID}, payload)
	return nil
}

// StartSession creates and connects a session for a tenant connection.
// Idempotent: if a live session is registered, it is returned; if a
// connect attempt is already in flight, the call is a no-op returning
// (nil, nil).
func (m *Manager) StartSession(ctx context.Context, id int) (*Session, error) {
	if s, ok := m.registry.Get(id); ok {
		return s, nil
	}

	m.mu.Lock()
	if m.starting[id] {
		m.mu.Unlock()
		return nil, nil
	}
	m.starting[id] = true
	m.mu.Unlock()

	conn, err := m.connections.Load(ctx, id)
	if err != nil {
		m.clearStarting(id)
		return nil, fmt.Errorf("load connection %d: %w", id, err)
	}

	// Stale watchdogs and pairing counters never survive a recreate.
	m.timers.Disarm(id)
	m.retries.Reset(id)

	m.persistAndBroadcast(ctx, id, store.ConnectionUpdate{
		Status: store.P(store.StatusConnecting),
		Qrcode: store.P(""),
	})

	blob, err := m.creds.LoadCredentials(ctx, id)
	if err != nil {
		// Dial without stored credentials: worst case is a fresh
		// pairing cycle.
		slog.Warn("wbot: load credentials failed", "connection", id, "error", err)
		blob = nil
	}

	client, err := m.dialer.Dial(ctx, id, blob)
	if err != nil {
		m.clearStarting(id)
		m.persistAndBroadcast(ctx, id, store.ConnectionUpdate{
			Status: store.P(store.StatusDisconnected),
		})
		return nil, fmt.Errorf("dial connection %d: %w", id, err)
	}

	sess := &Session{ID: id, CompanyID: conn.CompanyID, Client: client}
	client.SetMessageResolver(m.cache.Resolver())
	client.AddEventHandler(func(evt protocol.Event) {
		m.handleEvent(context.Background(), sess, evt)
	})

	m.timers.Arm(id, m.cfg.ConnectTimeout, func() {
		m.onWatchdog(context.Background(), sess)
	})

	go func() {
		if err := client.Connect(context.Background()); err != nil {
			slog.Warn("wbot: connect failed to start", "connection", id, "error", err)
		}
	}()

	slog.Info("wbot: session starting", "connection", id, "company", conn.CompanyID)
	return sess, nil
}

// RestartAllForCompany tears down every live session under a company:
// watchdogs disarmed, pairing counters cleared, transports closed
// without logout. Re-creation goes through StartSession, never inline.
func (m *Manager) RestartAllForCompany(ctx context.Context, companyID int) error {
	conns, err := m.connections.List(ctx, companyID)
	if err != nil {
		return fmt.Errorf("list connections for company %d: %w", companyID, err)
	}

	for _, c := range conns {
		m.timers.Disarm(c.ID)
		m.retries.Reset(c.ID)
		m.clearStarting(c.ID)
		m.registry.Remove(c.ID, false)
	}
	metrics.SessionsActive.Set(float64(m.registry.Len()))

	slog.Info("wbot: company sessions torn down for restart",
		"company", companyID, "connections", len(conns))
	return nil
}

// StartAll starts a session for every known connection, bounding
// concurrency. Individual failures are logged, not propagated: one bad
// tenant must not stop the rest from coming up.
func (m *Manager) StartAll(ctx context.Context) error {
	conns, err := m.connections.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list connections: %w", err)
	}

	g := new(errgroup.Group)
	g.SetLimit(m.cfg.StartConcurrency)
	for _, c := range conns {
		c := c
		g.Go(func() error {
			if _, err := m.StartSession(ctx, c.ID); err != nil {
				slog.Error("wbot: start session failed", "connection", c.ID, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Shutdown closes every live session without logout, for process exit.
func (m *Manager) Shutdown(ctx context.Context) {
	for _, id := range m.registry.IDs() {
		m.timers.Disarm(id)
		m.registry.Remove(id, false)
	}
	metrics.SessionsActive.Set(0)
}

// --- Event handling ---

func (m *Manager) handleEvent(ctx context.Context, sess *Session, evt protocol.Event) {
	switch e := evt.(type) {
	case protocol.QREvent:
		m.onQR(ctx, sess, e)
	case protocol.ConnectedEvent:
		m.onConnected(ctx, sess, e)
	case protocol.CredentialsEvent:
		m.onCredentials(ctx, sess, e)
	case protocol.DisconnectedEvent:
		m.onDisconnected(ctx, sess, e)
	case protocol.PresenceEvent:
		m.monitor.HandlePresence(ctx, sess, e)
	}
}

func (m *Manager) onQR(ctx context.Context, sess *Session, evt protocol.QREvent) {
	id := sess.ID

	// Connection updates beat the watchdog.
	m.timers.Disarm(id)

	attempt := m.retries.Increment(id)
	if attempt > m.cfg.MaxPairingRetries {
		slog.Info("wbot: pairing attempts exhausted",
			"connection", id, "attempts", attempt)
		metrics.PairingExhausted.Inc()

		m.persistAndBroadcast(ctx, id, store.ConnectionUpdate{
			Status: store.P(store.StatusDisconnected),
			Qrcode: store.P(""),
		})
		if err := m.creds.WipeCredentials(ctx, id); err != nil {
			slog.Warn("wbot: wipe credentials failed", "connection", id, "error", err)
		}
		m.teardown(sess, false)
		m.clearStarting(id)
		// Terminal: no reschedule, the tenant must restart manually.
		return
	}

	metrics.QRCodesIssued.Inc()
	m.persistAndBroadcast(ctx, id, store.ConnectionUpdate{
		Status:  store.P(store.StatusQrcode),
		Qrcode:  store.P(evt.Code),
		Retries: store.P(0),
		Number:  store.P(""),
	})

	m.registry.Put(sess)
	m.clearStarting(id)
	metrics.SessionsActive.Set(float64(m.registry.Len()))
}

func (m *Manager) onConnected(ctx context.Context, sess *Session, evt protocol.ConnectedEvent) {
	id := sess.ID

	m.timers.Disarm(id)
	m.retries.Reset(id)

	m.persistAndBroadcast(ctx, id, store.ConnectionUpdate{
		Status:  store.P(store.StatusConnected),
		Qrcode:  store.P(""),
		Retries: store.P(0),
		Number:  store.P(evt.Number),
	})

	m.registry.Put(sess)
	m.clearStarting(id)
	metrics.SessionsActive.Set(float64(m.registry.Len()))

	slog.Info("wbot: session connected", "connection", id, "number", evt.Number)
}

// onCredentials persists the client's session blob so the next dial
// resumes instead of re-pairing. Not a connection update: the watchdog
// stays armed.
func (m *Manager) onCredentials(ctx context.Context, sess *Session, evt protocol.CredentialsEvent) {
	if err := m.creds.SaveCredentials(ctx, sess.ID, evt.Blob); err != nil {
		slog.Warn("wbot: save credentials failed", "connection", sess.ID, "error", err)
	}
}

func (m *Manager) onDisconnected(ctx context.Context, sess *Session, evt protocol.DisconnectedEvent) {
	id := sess.ID

	m.timers.Disarm(id)
	m.clearStarting(id)

	if evt.ForcedLogout() {
		slog.Info("wbot: session invalidated by remote",
			"connection", id, "status", evt.StatusCode, "reason", evt.Reason)

		m.persistAndBroadcast(ctx, id, store.ConnectionUpdate{
			Status: store.P(store.StatusPending),
			Qrcode: store.P(""),
			Number: store.P(""),
		})
		if err := m.creds.WipeCredentials(ctx, id); err != nil {
			slog.Warn("wbot: wipe credentials failed", "connection", id, "error", err)
		}

		// Already invalid remotely: no graceful logout.
		m.teardown(sess, false)
		metrics.SessionReconnects.WithLabelValues(metrics.ReasonForcedLogout).Inc()
		m.scheduleReconnect(id, m.cfg.ReconnectDelay)
		return
	}

	slog.Info("wbot: transport closed, reconnecting",
		"connection", id, "status", evt.StatusCode, "reason", evt.Reason)
	m.teardown(sess, false)
	metrics.SessionReconnects.WithLabelValues(metrics.ReasonTransient).Inc()
	m.scheduleReconnect(id, m.cfg.ReconnectDelay)
}

// onWatchdog handles a connect attempt that produced no terminal event
// within ConnectTimeout: a suspected stuck handshake.
func (m *Manager) onWatchdog(ctx context.Context, sess *Session) {
	id := sess.ID

	retries := 0
	if conn, err := m.connections.Load(ctx, id); err != nil {
		slog.Warn("wbot: load connection on watchdog failed", "connection", id, "error", err)
	} else {
		retries = conn.Retries
	}

	slog.Warn("wbot: connect watchdog fired", "connection", id, "retries", retries+1)
	m.persistAndBroadcast(ctx, id, store.ConnectionUpdate{
		Status:  store.P(store.StatusDisconnected),
		Qrcode:  store.P(""),
		Retries: store.P(retries + 1),
	})

	m.teardown(sess, false)
	m.clearStarting(id)
	metrics.SessionReconnects.WithLabelValues(metrics.ReasonWatchdog).Inc()
	m.scheduleReconnect(id, m.cfg.WatchdogReconnectDelay)
}

// --- Internal ---

// persistAndBroadcast applies a partial update and republishes the
// resulting record. Collaborator failures are logged and swallowed:
// the external system's data is secondary to keeping the transport
// alive.
func (m *Manager) persistAndBroadcast(ctx context.Context, id int, upd store.ConnectionUpdate) {
	if err := m.connections.Save(ctx, id, upd); err != nil {
		slog.Warn("wbot: save connection failed", "connection", id, "error", err)
	}
	conn, err := m.connections.Load(ctx, id)
	if err != nil {
		slog.Warn("wbot: load connection for broadcast failed", "connection", id, "error", err)
		return
	}
	m.emit.SessionUpdate(ctx, conn)
}

// teardown removes the session from the registry (closing it), or
// closes the raw client when the session never reached the registry.
func (m *Manager) teardown(sess *Session, logout bool) {
	if cur, ok := m.registry.Get(sess.ID); ok && cur == sess {
		m.registry.Remove(sess.ID, logout)
	} else {
		sess.Shutdown(context.Background(), logout)
	}
	metrics.SessionsActive.Set(float64(m.registry.Len()))
}

func (m *Manager) scheduleReconnect(id int, delay time.Duration) {
	time.AfterFunc(delay, func() {
		if _, err := m.StartSession(context.Background(), id); err != nil {
			slog.Error("wbot: reconnect failed", "connection", id, "error", err)
		}
	})
}

func (m *Manager) clearStarting(id int) {
	m.mu.Lock()
	delete(m.starting, id)
	m.mu.Unlock()
}

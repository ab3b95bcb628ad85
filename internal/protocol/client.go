// Package protocol defines the capability boundary to the chat protocol
// client library. The gateway never touches the wire codec directly: it
// consumes an event stream and a small set of imperative operations, so
// the concrete library (multi-device handshake, encryption, framing)
// stays swappable behind the Dialer.
package protocol

import "context"

// MessageKey identifies a previously sent message the protocol client
// may ask the gateway to re-fetch for a delivery retry.
type MessageKey struct {
	RemoteParty string
	MessageID   string
}

// MessageResolver answers the client's resend lookups. attempt is the
// running count of resend lookups for the key, so the client can back
// off on repeatedly failing deliveries. A false return means "no
// cached copy" and must be treated as a normal outcome.
type MessageResolver func(key MessageKey) (payload []byte, attempt int, ok bool)

// Handler receives events from a live client. Delivery is
// single-threaded per client: a handler runs to completion before the
// next event for the same client is dispatched.
type Handler func(evt Event)

// Client is one live protocol connection.
type Client interface {
	// Connect starts the handshake. Progress and failure are reported
	// through events, not the return value; an error here means the
	// attempt could not even start.
	Connect(ctx context.Context) error

	// Send delivers a payload to a remote party.
	Send(ctx context.Context, to string, payload []byte) error

	// Logout invalidates the pairing on the remote side before the
	// transport goes down.
	Logout(ctx context.Context) error

	// Close tears down the transport. Safe to call more than once.
	Close() error

	AddEventHandler(h Handler)
	SetMessageResolver(r MessageResolver)
}

// Dialer creates a client for one tenant connection. credentials is the
// previously stored (already decrypted) session blob, or nil for a
// fresh pairing.
type Dialer interface {
	Dial(ctx context.Context, connectionID int, credentials []byte) (Client, error)
}

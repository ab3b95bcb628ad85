package protocol

// StatusForcedLogout is the close status the remote side uses when it
// explicitly invalidates a session (stream error 403).
const StatusForcedLogout = 403

// ReasonLoggedOut is the close reason reported when the client library
// itself detects a logout.
const ReasonLoggedOut = "loggedOut"

// Presence kinds delivered by PresenceEvent.
const (
	PresenceAvailable   = "available"
	PresenceUnavailable = "unavailable"
	PresenceComposing   = "composing"
	PresenceRecording   = "recording"
	PresencePaused      = "paused"
)

// Event is a connection-state change, pairing-code issuance, or
// presence update delivered by a live client.
type Event interface{ event() }

// QREvent carries a freshly issued pairing code.
type QREvent struct {
	Code string
}

// ConnectedEvent reports a successful handshake. Number is the paired
// identity on the remote network.
type ConnectedEvent struct {
	Number string
}

// CredentialsEvent carries the serialized session state whenever the
// client library changes it (pairing completion, key rotation). The
// blob is opaque; the gateway only stores it and hands it back to
// Dial.
type CredentialsEvent struct {
	Blob []byte
}

// DisconnectedEvent reports transport closure. StatusCode and Reason
// classify the cause; both zero-valued means a plain transient drop.
type DisconnectedEvent struct {
	StatusCode int
	Reason     string
}

// PresenceEvent reports a remote party's presence change.
type PresenceEvent struct {
	RemoteParty string
	Presence    string
}

func (QREvent) event()           {}
func (ConnectedEvent) event()    {}
func (CredentialsEvent) event()  {}
func (DisconnectedEvent) event() {}
func (PresenceEvent) event()     {}

// ForcedLogout reports whether the closure means the remote side
// invalidated the session and stored credentials are now useless.
func (e DisconnectedEvent) ForcedLogout() bool {
	return e.StatusCode == StatusForcedLogout || e.Reason == ReasonLoggedOut
}

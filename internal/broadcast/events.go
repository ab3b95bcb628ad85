package broadcast

import (
	"fmt"

	"github.com/nextlevelbuilder/wagate/internal/store"
)

// Event names pushed to subscribers.
const (
	EventSessionUpdate = "session-update"
	EventPresence      = "presence"
)

// SessionUpdatePayload is broadcast on every connection state
// transition. QrcodePNG is a data URI rendering of the pairing code,
// present only while the connection is in QRCODE state.
type SessionUpdatePayload struct {
	Event      string            `json:"event"`
	ID         string            `json:"id"`
	CompanyID  int               `json:"companyId"`
	Connection *store.Connection `json:"connection"`
	QrcodePNG  string            `json:"qrcodePng,omitempty"`
}

// PresencePayload is broadcast when a remote party's presence changes
// on an open or pending ticket.
type PresencePayload struct {
	Event     string `json:"event"`
	ID        string `json:"id"`
	CompanyID int    `json:"companyId"`
	TicketID  int    `json:"ticketId"`
	Presence  string `json:"presence"`
}

// SessionChannel is the company-scoped channel for session updates.
func SessionChannel(companyID int) string {
	return fmt.Sprintf("company-%d-session", companyID)
}

// TicketChannel is the ticket-scoped channel for presence updates.
func TicketChannel(companyID, ticketID int) string {
	return fmt.Sprintf("company-%d-ticket-%d", companyID, ticketID)
}

// QueueChannel is the queue-scoped channel for presence updates.
func QueueChannel(companyID, queueID int) string {
	return fmt.Sprintf("company-%d-queue-%d", companyID, queueID)
}

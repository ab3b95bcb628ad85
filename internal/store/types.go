package store

import "time"

// ConnectionStatus is the lifecycle state of a tenant connection as
// persisted and broadcast to subscribers.
type ConnectionStatus string

const (
	StatusPending      ConnectionStatus = "PENDING"
	StatusConnecting   ConnectionStatus = "CONNECTING"
	StatusQrcode       ConnectionStatus = "QRCODE"
	StatusConnected    ConnectionStatus = "CONNECTED"
	StatusDisconnected ConnectionStatus = "DISCONNECTED"
)

// Connection is one tenant's configured messaging endpoint.
//
// Invariants: CONNECTED implies Qrcode == "" and Number != "";
// QRCODE implies Qrcode != "".
type Connection struct {
	ID        int              `db:"id" json:"id"`
	CompanyID int              `db:"company_id" json:"companyId"`
	Name      string           `db:"name" json:"name"`
	Status    ConnectionStatus `db:"status" json:"status"`
	Qrcode    string           `db:"qrcode" json:"qrcode"`
	Retries   int              `db:"retries" json:"retries"`
	Number    string           `db:"number" json:"number"`
	UpdatedAt time.Time        `db:"updated_at" json:"updatedAt"`
}

// ConnectionUpdate is a partial update: only non-nil fields are
// written, so a save never clobbers columns it did not mean to touch.
type ConnectionUpdate struct {
	Status  *ConnectionStatus
	Qrcode  *string
	Retries *int
	Number  *string
}

// Contact is a known remote party under a company.
type Contact struct {
	ID        int    `db:"id" json:"id"`
	CompanyID int    `db:"company_id" json:"companyId"`
	Name      string `db:"name" json:"name"`
	Number    string `db:"number" json:"number"`
}

// Ticket is a conversation thread between a contact and a company.
// QueueID is 0 when the ticket is not assigned to a queue.
type Ticket struct {
	ID           int    `db:"id" json:"id"`
	ContactID    int    `db:"contact_id" json:"contactId"`
	ConnectionID int    `db:"connection_id" json:"connectionId"`
	CompanyID    int    `db:"company_id" json:"companyId"`
	QueueID      int    `db:"queue_id" json:"queueId"`
	Status       string `db:"status" json:"status"`
}

// P returns a pointer to v, for building ConnectionUpdate literals.
func P[T any](v T) *T { return &v }

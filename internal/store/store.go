// Package store defines the persistence collaborator interfaces for
// the session gateway and the shared model types. Implementations live
// in the pg subpackage; the core never assumes more than these
// contracts.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no connection exists for an id.
var ErrNotFound = errors.New("store: not found")

// ConnectionStore persists tenant connection records.
type ConnectionStore interface {
	Load(ctx context.Context, id int) (*Connection, error)
	List(ctx context.Context, companyID int) ([]*Connection, error)
	ListAll(ctx context.Context) ([]*Connection, error)

	// Save applies a partial update to one connection.
	Save(ctx context.Context, id int, upd ConnectionUpdate) error
}

// ContactStore resolves remote parties to known contacts.
// FindContact returns (nil, nil) when the number is unknown.
type ContactStore interface {
	FindContact(ctx context.Context, number string, companyID int) (*Contact, error)
}

// TicketStore resolves contacts to conversation tickets.
// FindOpenOrPending returns (nil, nil) when no open or pending ticket
// references the contact on that connection.
type TicketStore interface {
	FindOpenOrPending(ctx context.Context, contactID, connectionID int) (*Ticket, error)
}

// CredentialStore persists protocol session credentials per
// connection. Load returns (nil, nil) when nothing is stored.
type CredentialStore interface {
	SaveCredentials(ctx context.Context, connectionID int, blob []byte) error
	LoadCredentials(ctx context.Context, connectionID int) ([]byte, error)
	WipeCredentials(ctx context.Context, connectionID int) error
}

package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nextlevelbuilder/wagate/internal/store"
)

// ContactStore implements store.ContactStore backed by Postgres.
type ContactStore struct {
	db *sqlx.DB
}

func NewContactStore(db *sqlx.DB) *ContactStore {
	return &ContactStore{db: db}
}

func (s *ContactStore) FindContact(ctx context.Context, number string, companyID int) (*store.Contact, error) {
	var c store.Contact
	err := s.db.GetContext(ctx, &c,
		"SELECT id, company_id, name, number FROM contacts WHERE number = $1 AND company_id = $2",
		number, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find contact %s: %w", number, err)
	}
	return &c, nil
}

// TicketStore implements store.TicketStore backed by Postgres.
type TicketStore struct {
	db *sqlx.DB
}

func NewTicketStore(db *sqlx.DB) *TicketStore {
	return &TicketStore{db: db}
}

func (s *TicketStore) FindOpenOrPending(ctx context.Context, contactID, connectionID int) (*store.Ticket, error) {
	var t store.Ticket
	err := s.db.GetContext(ctx, &t,
		`SELECT id, contact_id, connection_id, company_id, COALESCE(queue_id, 0) AS queue_id, status
		 FROM tickets
		 WHERE contact_id = $1 AND connection_id = $2 AND status IN ('open', 'pending')
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		contactID, connectionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find ticket for contact %d: %w", contactID, err)
	}
	return &t, nil
}

package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nextlevelbuilder/wagate/internal/crypto"
)

// CredentialStore implements store.CredentialStore backed by Postgres.
// Blobs are sealed with AES-256-GCM when an encryption key is
// configured; an empty key stores them as-is.
type CredentialStore struct {
	db  *sqlx.DB
	key string
}

func NewCredentialStore(db *sqlx.DB, encryptionKey string) *CredentialStore {
	return &CredentialStore{db: db, key: encryptionKey}
}

func (s *CredentialStore) SaveCredentials(ctx context.Context, connectionID int, blob []byte) error {
	sealed, err := crypto.Seal(blob, s.key)
	if err != nil {
		return fmt.Errorf("seal credentials for connection %d: %w", connectionID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_credentials (connection_id, blob, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (connection_id) DO UPDATE SET blob = EXCLUDED.blob, updated_at = EXCLUDED.updated_at`,
		connectionID, sealed, time.Now())
	if err != nil {
		return fmt.Errorf("save credentials for connection %d: %w", connectionID, err)
	}
	return nil
}

func (s *CredentialStore) LoadCredentials(ctx context.Context, connectionID int) ([]byte, error) {
	var sealed []byte
	err := s.db.GetContext(ctx, &sealed,
		"SELECT blob FROM session_credentials WHERE connection_id = $1", connectionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials for connection %d: %w", connectionID, err)
	}

	blob, err := crypto.Open(sealed, s.key)
	if err != nil {
		return nil, fmt.Errorf("open credentials for connection %d: %w", connectionID, err)
	}
	return blob, nil
}

func (s *CredentialStore) WipeCredentials(ctx context.Context, connectionID int) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM session_credentials WHERE connection_id = $1", connectionID)
	if err != nil {
		return fmt.Errorf("wipe credentials for connection %d: %w", connectionID, err)
	}
	return nil
}

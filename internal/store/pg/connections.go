package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nextlevelbuilder/wagate/internal/store"
)

const connectionColumns = "id, company_id, name, status, qrcode, retries, number, updated_at"

// ConnectionStore implements store.ConnectionStore backed by Postgres.
type ConnectionStore struct {
	db *sqlx.DB
}

func NewConnectionStore(db *sqlx.DB) *ConnectionStore {
	return &ConnectionStore{db: db}
}

func (s *ConnectionStore) Load(ctx context.Context, id int) (*store.Connection, error) {
	var c store.Connection
	err := s.db.GetContext(ctx, &c,
		"SELECT "+connectionColumns+" FROM connections WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load connection %d: %w", id, err)
	}
	return &c, nil
}

func (s *ConnectionStore) List(ctx context.Context, companyID int) ([]*store.Connection, error) {
	var conns []*store.Connection
	err := s.db.SelectContext(ctx, &conns,
		"SELECT "+connectionColumns+" FROM connections WHERE company_id = $1 ORDER BY id", companyID)
	if err != nil {
		return nil, fmt.Errorf("list connections for company %d: %w", companyID, err)
	}
	return conns, nil
}

func (s *ConnectionStore) ListAll(ctx context.Context) ([]*store.Connection, error) {
	var conns []*store.Connection
	err := s.db.SelectContext(ctx, &conns,
		"SELECT "+connectionColumns+" FROM connections ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return conns, nil
}

// Save applies a partial update; nil fields keep their stored value.
func (s *ConnectionStore) Save(ctx context.Context, id int, upd store.ConnectionUpdate) error {
	sets := []string{"updated_at = $1"}
	args := []any{time.Now()}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.Qrcode != nil {
		add("qrcode", *upd.Qrcode)
	}
	if upd.Retries != nil {
		add("retries", *upd.Retries)
	}
	if upd.Number != nil {
		add("number", *upd.Number)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE connections SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save connection %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

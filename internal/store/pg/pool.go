// Package pg implements the store interfaces on Postgres.
package pg

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to Postgres using the pgx driver.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)

	slog.Info("postgres connected", "dsn_len", len(dsn))
	return db, nil
}

// Package wbot is the session connection lifecycle core: it creates,
// supervises, reconnects, and tears down one long-lived protocol
// session per tenant connection.
package wbot

import (
	"context"
	"log/slog"

	"github.com/nextlevelbuilder/wagate/internal/protocol"
)

// Session owns one live protocol client for a tenant connection. It is
// a wrapper, not an extension of the client: the extra fields the
// lifecycle needs stay here instead of being grafted onto the
// capability's object.
type Session struct {
	ID        int
	CompanyID int
	Client    protocol.Client
}

// Shutdown closes the session's transport. With logout it performs a
// graceful protocol logout first, invalidating the pairing remotely.
func (s *Session) Shutdown(ctx context.Context, logout bool) {
	if logout {
		if err := s.Client.Logout(ctx); err != nil {
			slog.Warn("wbot: logout failed", "connection", s.ID, "error", err)
		}
	}
	if err := s.Client.Close(); err != nil {
		slog.Warn("wbot: close transport failed", "connection", s.ID, "error", err)
	}
}

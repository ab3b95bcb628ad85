package broadcast

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/nextlevelbuilder/wagate/internal/store"
)

const qrImageSize = 256

// Emitter builds event payloads and delivers them to the local bus and
// the optional out-of-process publisher. Delivery failures are logged
// and swallowed: broadcasting is secondary to keeping sessions alive.
type Emitter struct {
	bus *Bus
	pub Publisher // may be nil
}

func NewEmitter(bus *Bus, pub Publisher) *Emitter {
	return &Emitter{bus: bus, pub: pub}
}

// SessionUpdate broadcasts a connection's current state to its
// company channel.
func (e *Emitter) SessionUpdate(ctx context.Context, conn *store.Connection) {
	p := SessionUpdatePayload{
		Event:      EventSessionUpdate,
		ID:         newEventID(),
		CompanyID:  conn.CompanyID,
		Connection: conn,
	}
	if conn.Qrcode != "" {
		p.QrcodePNG = qrDataURI(conn.Qrcode)
	}

	data, err := json.Marshal(p)
	if err != nil {
		slog.Warn("broadcast: marshal session update failed", "connection", conn.ID, "error", err)
		return
	}
	e.send(ctx, data, SessionChannel(conn.CompanyID))
}

// Presence broadcasts a presence change to the ticket, company, and
// (when assigned) queue channels.
func (e *Emitter) Presence(ctx context.Context, companyID, ticketID, queueID int, presence string) {
	p := PresencePayload{
		Event:     EventPresence,
		ID:        newEventID(),
		CompanyID: companyID,
		TicketID:  ticketID,
		Presence:  presence,
	}

	data, err := json.Marshal(p)
	if err != nil {
		slog.Warn("broadcast: marshal presence failed", "ticket", ticketID, "error", err)
		return
	}

	channels := []string{
		TicketChannel(companyID, ticketID),
		SessionChannel(companyID),
	}
	if queueID > 0 {
		channels = append(channels, QueueChannel(companyID, queueID))
	}
	e.send(ctx, data, channels...)
}

func (e *Emitter) send(ctx context.Context, payload []byte, channels ...string) {
	for _, ch := range channels {
		e.bus.Publish(ch, payload)
		if e.pub != nil {
			if err := e.pub.Publish(ctx, ch, payload); err != nil {
				slog.Warn("broadcast: publish failed", "channel", ch, "error", err)
			}
		}
	}
}

// qrDataURI renders a pairing code as a PNG data URI so subscribers
// can display it without a client-side QR encoder. Falls back to an
// empty string if encoding fails; the raw code is still in the
// payload.
func qrDataURI(code string) string {
	png, err := qrcode.Encode(code, qrcode.Medium, qrImageSize)
	if err != nil {
		slog.Warn("broadcast: qr encode failed", "error", err)
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

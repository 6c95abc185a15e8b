// Package session implements the session builder: orchestrating transport
// open, TLS negotiation, startup transmission, and authentication into a
// single owned SessionSlot, with strict all-or-nothing cleanup on any
// failure path.
package session

import (
	"net"
	"time"

	"github.com/google/uuid"

	"poolcore/pgwire"
)

// Credentials identifies a session to a backend node. Immutable once a
// session is built.
type Credentials struct {
	User            string
	Database        string
	ApplicationName string
	Password        string // optional; empty means no password configured
}

// SessionSlot is the owned bundle of one authenticated backend connection
// and its startup packet. It may only be constructed by Build/BuildNoError
// and destroyed by Discard — both enforce that connection and startup are
// never aliased elsewhere.
type SessionSlot struct {
	Conn      net.Conn
	Startup   *pgwire.StartupPacket
	NodeID    int32
	CloseTime time.Time

	// SlotID is a diagnostic-only identifier for correlating this slot
	// across log lines and metrics; it is never sent over the wire.
	SlotID uuid.UUID

	reader *pgwire.Reader
	writer *pgwire.Writer
}

package session

import (
	"crypto/tls"
	"fmt"
	"net"
)

// TLSNegotiator upgrades a freshly-dialed connection to transport
// security. It may be a no-op for deployments that don't require it
// between the pool and its backend nodes.
type TLSNegotiator interface {
	Negotiate(conn net.Conn) (net.Conn, error)
}

// NoTLS never upgrades the connection.
type NoTLS struct{}

// Negotiate implements TLSNegotiator.
func (NoTLS) Negotiate(conn net.Conn) (net.Conn, error) { return conn, nil }

// ClientTLS upgrades conn using the standard library's TLS client
// handshake. ServerName in Config should match the backend endpoint's host
// whenever InsecureSkipVerify is false.
type ClientTLS struct {
	Config *tls.Config
}

// Negotiate implements TLSNegotiator.
func (c ClientTLS) Negotiate(conn net.Conn) (net.Conn, error) {
	tlsConn := tls.Client(conn, c.Config)
	if err := tlsConn.Handshake(); err != nil {
		return nil, fmt.Errorf("session: tls handshake: %w", err)
	}
	return tlsConn, nil
}

// Package transport opens and tears down the raw socket to a backend node:
// UNIX-domain or TCP, with optional bounded retry, and an idempotent
// blocking-mode toggle used by the session teardown path.
package transport

import "strings"

// Endpoint identifies a backend node's listening address. It is a UNIX
// endpoint when Host begins with "/".
type Endpoint struct {
	Host         string
	Port         int
	IsUnixSocket bool
}

// NewEndpoint derives IsUnixSocket from the host, matching the original's
// "*hostname == '/'" check.
func NewEndpoint(host string, port int) Endpoint {
	return Endpoint{
		Host:         host,
		Port:         port,
		IsUnixSocket: strings.HasPrefix(host, "/"),
	}
}

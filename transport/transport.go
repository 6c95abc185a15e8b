package transport

import (
	"context"
	"fmt"
	"net"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ConnectError reports a failure to establish the backend socket.
type ConnectError struct {
	Endpoint Endpoint
	Reason   error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s:%d failed: %v", e.Endpoint.Host, e.Endpoint.Port, e.Reason)
}

func (e *ConnectError) Unwrap() error { return e.Reason }

// Options configures Connect's dialing behavior.
type Options struct {
	// ConnectTimeout bounds a single dial attempt.
	ConnectTimeout time.Duration
	// Retry selects between fail-fast (false) and bounded exponential
	// retry (true). The retry schedule itself is an external-collaborator
	// concern elsewhere in the stack; here it is just exponential backoff
	// bounded by MaxElapsed.
	Retry bool
	// MaxElapsed bounds the total time spent retrying. Zero means a
	// conservative built-in default is used.
	MaxElapsed time.Duration
}

// unixSocketPath builds the conventional UNIX-domain socket path for a
// backend listening on the given directory and port, e.g.
// "/tmp/.s.PGSQL.5432".
func unixSocketPath(dir string, port int) string {
	return path.Join(dir, fmt.Sprintf(".s.PGSQL.%d", port))
}

// Connect opens a socket to endpoint, honoring opts.Retry. For UNIX
// endpoints, Host is the directory the server socket lives in; the actual
// socket file is derived via the ".s.PGSQL.<port>" convention. For TCP
// endpoints, Host:Port are dialed directly after standard DNS resolution.
func Connect(ctx context.Context, endpoint Endpoint, opts Options) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}

	network := "tcp"
	addr := fmt.Sprintf("%s:%d", endpoint.Host, endpoint.Port)
	if endpoint.IsUnixSocket {
		network = "unix"
		addr = unixSocketPath(endpoint.Host, endpoint.Port)
	}

	dial := func() (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	if !opts.Retry {
		conn, err := dial()
		if err != nil {
			return nil, &ConnectError{Endpoint: endpoint, Reason: err}
		}
		return conn, nil
	}

	maxElapsed := opts.MaxElapsed
	if maxElapsed <= 0 {
		maxElapsed = 30 * time.Second
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed

	var conn net.Conn
	operation := func() error {
		c, err := dial()
		if err != nil {
			return err
		}
		conn = c
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, &ConnectError{Endpoint: endpoint, Reason: err}
	}
	return conn, nil
}

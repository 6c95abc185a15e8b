package transport

import (
	"fmt"
	"net"
	"syscall"
)

// SetNonblocking idempotently toggles the underlying file descriptor's
// O_NONBLOCK flag. It is used by the session teardown path to perform a
// best-effort flush that cannot invoke the failover machinery if the
// backend has already closed its side of the connection — see the
// discussion on the Terminate message in the session package.
func SetNonblocking(conn net.Conn, on bool) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return fmt.Errorf("transport: connection does not support raw fd access")
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return fmt.Errorf("transport: raw conn: %w", err)
	}

	var opErr error
	err = raw.Control(func(fd uintptr) {
		opErr = syscall.SetNonblock(int(fd), on)
	})
	if err != nil {
		return err
	}
	return opErr
}

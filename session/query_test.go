package session

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"poolcore/transport"
)

func writeVersionRow(conn net.Conn, text string) {
	row := []byte{}
	row = binary.BigEndian.AppendUint16(row, 1)
	row = binary.BigEndian.AppendUint32(row, uint32(len(text)))
	row = append(row, text...)

	msg := []byte{'D'}
	msg = binary.BigEndian.AppendUint32(msg, uint32(4+len(row)))
	msg = append(msg, row...)
	conn.Write(msg)

	ready := []byte{'Z'}
	ready = binary.BigEndian.AppendUint32(ready, 5)
	ready = append(ready, 'I')
	conn.Write(ready)
}

func TestExecuteScalarQuery(t *testing.T) {
	endpoint := startFakeBackend(t, func(conn net.Conn) {
		defer conn.Close()
		if err := readStartupPacket(conn); err != nil {
			return
		}
		writeAuthOkAndReady(conn)

		// Wait for the client's simple-query message, then answer it.
		buf := make([]byte, 5)
		if _, err := conn.Read(buf); err != nil {
			return
		}
		length := binary.BigEndian.Uint32(buf[1:5])
		body := make([]byte, length-4)
		conn.Read(body)

		writeVersionRow(conn, "PostgreSQL 14.2 on x86_64-pc-linux-gnu")
	})

	builder := NewBuilder(nil, nil, transport.Options{ConnectTimeout: 2 * time.Second})
	slot, err := builder.Build(context.Background(), BuildParams{
		Endpoint:    endpoint,
		Credentials: Credentials{User: "alice", Database: "app"},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer Discard(slot)

	result, err := slot.ExecuteScalarQuery("SELECT version()")
	if err != nil {
		t.Fatalf("ExecuteScalarQuery failed: %v", err)
	}
	if result != "PostgreSQL 14.2 on x86_64-pc-linux-gnu" {
		t.Errorf("result = %q", result)
	}
}

package pgwire

import (
	"encoding/binary"
	"fmt"
)

// OverflowField identifies which part of the startup packet's parameter
// block would have exceeded StartupBodyCapacity.
type OverflowField int

const (
	FieldUser OverflowField = iota
	FieldDatabase
	FieldApplicationName
	FieldTerminator
)

func (f OverflowField) String() string {
	switch f {
	case FieldUser:
		return "user name"
	case FieldDatabase:
		return "database name"
	case FieldApplicationName:
		return "application name"
	case FieldTerminator:
		return "parameter block terminator"
	default:
		return "parameter"
	}
}

// FrameError reports that a startup packet parameter would overflow the
// fixed-capacity body buffer. The detection order matches the point at
// which the original implementation's snprintf-based writer would have
// overrun: user before database before the terminating NUL.
type FrameError struct {
	Field OverflowField
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s is too long", e.Field)
}

// startupWriter accumulates NUL-terminated key/value pairs into a
// fixed-capacity buffer, mirroring the original's manual snprintf
// bookkeeping but with an explicit capacity check per field.
type startupWriter struct {
	buf []byte
	cap int
}

func newStartupWriter(capacity int) *startupWriter {
	return &startupWriter{buf: make([]byte, 0, capacity), cap: capacity}
}

// writeParam appends "key\0value\0" if it fits, or returns a FrameError
// tagged with field otherwise.
func (w *startupWriter) writeParam(key, value string, field OverflowField) error {
	need := len(key) + 1 + len(value) + 1
	if len(w.buf)+need >= w.cap {
		return &FrameError{Field: field}
	}
	w.buf = append(w.buf, key...)
	w.buf = append(w.buf, 0)
	w.buf = append(w.buf, value...)
	w.buf = append(w.buf, 0)
	return nil
}

func (w *startupWriter) writeTerminator() error {
	if len(w.buf)+1 > w.cap {
		return &FrameError{Field: FieldTerminator}
	}
	w.buf = append(w.buf, 0)
	return nil
}

// BuildStartup frames a startup packet for the given credentials. Detection
// order is user, then database, then application name (if present), then
// the terminator — matching §4.2's required overflow-detection order.
func BuildStartup(user, database, applicationName string) (*StartupPacket, error) {
	w := newStartupWriter(StartupBodyCapacity)

	if err := w.writeParam("user", user, FieldUser); err != nil {
		return nil, err
	}
	if err := w.writeParam("database", database, FieldDatabase); err != nil {
		return nil, err
	}
	if applicationName != "" {
		if err := w.writeParam("application_name", applicationName, FieldApplicationName); err != nil {
			return nil, err
		}
	}
	if err := w.writeTerminator(); err != nil {
		return nil, err
	}

	params := w.buf
	raw := make([]byte, 0, 4+len(params))
	raw = binary.BigEndian.AppendUint32(raw, uint32(ProtocolVersion))
	raw = append(raw, params...)

	length := uint32(4 + len(raw))
	wire := make([]byte, 0, 4+len(raw))
	wire = binary.BigEndian.AppendUint32(wire, length)
	wire = append(wire, raw...)

	return &StartupPacket{
		Raw:             wire,
		Length:          length,
		ProtocolMajor:   3,
		ProtocolMinor:   0,
		Database:        database,
		User:            user,
		ApplicationName: applicationName,
	}, nil
}

// ParseStartup decodes a previously framed startup packet back into its
// shorthand fields. Used by round-trip tests and by any collaborator that
// needs to re-inspect a built packet.
func ParseStartup(wire []byte) (*StartupPacket, error) {
	if len(wire) < 8 {
		return nil, fmt.Errorf("pgwire: startup packet too short: %d bytes", len(wire))
	}
	length := binary.BigEndian.Uint32(wire[0:4])
	if int(length) != len(wire) {
		return nil, fmt.Errorf("pgwire: length field %d does not match buffer size %d", length, len(wire))
	}
	proto := binary.BigEndian.Uint32(wire[4:8])

	sp := &StartupPacket{
		Raw:           wire,
		Length:        length,
		ProtocolMajor: uint16(proto >> 16),
		ProtocolMinor: uint16(proto & 0xFFFF),
	}

	params := wire[8:]
	for len(params) > 1 {
		key, rest := readCString(params)
		if rest == nil {
			break
		}
		value, rest2 := readCString(rest)
		switch key {
		case "user":
			sp.User = value
		case "database":
			sp.Database = value
		case "application_name":
			sp.ApplicationName = value
		}
		params = rest2
	}
	return sp, nil
}

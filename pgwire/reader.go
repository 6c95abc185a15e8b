package pgwire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Reader decodes backend (backend → client) wire protocol messages on a
// connection this core has opened to a backend node.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r for reading backend messages.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadMessage reads one typed message (1-byte type + int32 length-inclusive
// + payload).
func (r *Reader) ReadMessage() (msgType byte, payload []byte, err error) {
	msgType, err = r.r.ReadByte()
	if err != nil {
		return 0, nil, err
	}

	var length int32
	if err := binary.Read(r.r, binary.BigEndian, &length); err != nil {
		return 0, nil, fmt.Errorf("pgwire: read message length: %w", err)
	}
	if length < 4 {
		return 0, nil, fmt.Errorf("pgwire: message length too short: %d", length)
	}

	payload = make([]byte, length-4)
	if len(payload) > 0 {
		if _, err := io.ReadFull(r.r, payload); err != nil {
			return 0, nil, fmt.Errorf("pgwire: read message payload: %w", err)
		}
	}
	return msgType, payload, nil
}

// AuthRequest is the parsed body of an 'R' Authentication message.
type AuthRequest struct {
	Kind int32
	Salt [4]byte // only set when Kind == AuthMD5Password
}

// ParseAuthRequest decodes the payload of an 'R' message.
func ParseAuthRequest(payload []byte) (*AuthRequest, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("pgwire: authentication message too short")
	}
	req := &AuthRequest{Kind: int32(binary.BigEndian.Uint32(payload[:4]))}
	if req.Kind == AuthMD5Password {
		if len(payload) < 8 {
			return nil, fmt.Errorf("pgwire: MD5 authentication message missing salt")
		}
		copy(req.Salt[:], payload[4:8])
	}
	return req, nil
}

// BackendError is the parsed body of an 'E' ErrorResponse (or 'N'
// NoticeResponse) message: a set of severity/code/message fields, each
// tagged by a single identifying byte and NUL-terminated.
type BackendError struct {
	Severity string
	Code     string
	Message  string
}

func (e *BackendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Severity, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Severity, e.Message)
}

// ParseBackendError decodes the payload of an 'E'/'N' message.
func ParseBackendError(payload []byte) *BackendError {
	be := &BackendError{}
	for len(payload) > 0 {
		field := payload[0]
		if field == 0 {
			break
		}
		value, rest := readCString(payload[1:])
		switch field {
		case 'S':
			be.Severity = value
		case 'C':
			be.Code = value
		case 'M':
			be.Message = value
		}
		payload = rest
	}
	return be
}

// DataRowText extracts the text-encoded column values of a 'D' DataRow
// message. A nil-length field represents SQL NULL and decodes to "".
func DataRowText(payload []byte) ([]string, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("pgwire: data row too short")
	}
	numFields := int(binary.BigEndian.Uint16(payload[:2]))
	payload = payload[2:]

	values := make([]string, numFields)
	for i := 0; i < numFields; i++ {
		if len(payload) < 4 {
			return nil, fmt.Errorf("pgwire: data row truncated at field %d", i)
		}
		flen := int32(binary.BigEndian.Uint32(payload[:4]))
		payload = payload[4:]
		if flen < 0 {
			values[i] = ""
			continue
		}
		if len(payload) < int(flen) {
			return nil, fmt.Errorf("pgwire: data row field %d truncated", i)
		}
		values[i] = string(payload[:flen])
		payload = payload[flen:]
	}
	return values, nil
}

// readCString reads a NUL-terminated string from b, returning the string
// and the remaining bytes after the terminator. A missing terminator
// returns the whole slice as the string and a nil remainder.
func readCString(b []byte) (string, []byte) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), b[i+1:]
		}
	}
	return string(b), nil
}

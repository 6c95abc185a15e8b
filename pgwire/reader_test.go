package pgwire

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestReadMessage(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte('Z')
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], 5)
	buf.Write(lenBuf[:])
	buf.WriteByte('I')

	r := NewReader(&buf)
	msgType, payload, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if msgType != 'Z' {
		t.Errorf("msgType = %c, want Z", msgType)
	}
	if !bytes.Equal(payload, []byte{'I'}) {
		t.Errorf("payload = %v", payload)
	}
}

func TestParseAuthRequest_Ok(t *testing.T) {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, uint32(AuthOk))
	req, err := ParseAuthRequest(payload)
	if err != nil {
		t.Fatal(err)
	}
	if req.Kind != AuthOk {
		t.Errorf("kind = %d, want AuthOk", req.Kind)
	}
}

func TestParseAuthRequest_MD5(t *testing.T) {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint32(payload[:4], uint32(AuthMD5Password))
	copy(payload[4:], []byte{1, 2, 3, 4})
	req, err := ParseAuthRequest(payload)
	if err != nil {
		t.Fatal(err)
	}
	if req.Kind != AuthMD5Password {
		t.Errorf("kind = %d, want AuthMD5Password", req.Kind)
	}
	if req.Salt != [4]byte{1, 2, 3, 4} {
		t.Errorf("salt = %v", req.Salt)
	}
}

func TestParseBackendError(t *testing.T) {
	var payload []byte
	payload = append(payload, 'S')
	payload = append(payload, "FATAL\x00"...)
	payload = append(payload, 'C')
	payload = append(payload, "28P01\x00"...)
	payload = append(payload, 'M')
	payload = append(payload, "password authentication failed\x00"...)
	payload = append(payload, 0)

	be := ParseBackendError(payload)
	if be.Severity != "FATAL" || be.Code != "28P01" {
		t.Errorf("got %+v", be)
	}
	if be.Message != "password authentication failed" {
		t.Errorf("message = %q", be.Message)
	}
}

func TestDataRowText(t *testing.T) {
	var payload []byte
	payload = binary.BigEndian.AppendUint16(payload, 1)
	value := "PostgreSQL 12.3 on x86_64"
	payload = binary.BigEndian.AppendUint32(payload, uint32(len(value)))
	payload = append(payload, value...)

	values, err := DataRowText(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 1 || values[0] != value {
		t.Errorf("got %v", values)
	}
}

func TestDataRowText_Null(t *testing.T) {
	var payload []byte
	payload = binary.BigEndian.AppendUint16(payload, 1)
	payload = binary.BigEndian.AppendUint32(payload, uint32(0xFFFFFFFF))

	values, err := DataRowText(payload)
	if err != nil {
		t.Fatal(err)
	}
	if values[0] != "" {
		t.Errorf("expected empty string for NULL, got %q", values[0])
	}
}

package pgwire

import (
	"encoding/binary"
	"io"
)

// TerminateMessage is the fixed 5-byte wire representation of the
// Terminate message: a single 'X' byte followed by a length of 4
// (the length field includes itself but there is no body).
var TerminateMessage = func() []byte {
	buf := make([]byte, 0, 5)
	buf = append(buf, MsgTerminate)
	buf = binary.BigEndian.AppendUint32(buf, 4)
	return buf
}()

// WriteTerminate writes the Terminate message to w.
func WriteTerminate(w io.Writer) error {
	_, err := w.Write(TerminateMessage)
	return err
}

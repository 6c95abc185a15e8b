package pgwire

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Writer encodes frontend (client → backend) messages sent after the
// startup packet: password responses and simple queries.
type Writer struct {
	w   *bufio.Writer
	buf []byte
}

// NewWriter wraps w for writing frontend messages.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), buf: make([]byte, 0, 256)}
}

// Flush flushes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// WritePasswordMessage sends a 'p' PasswordMessage carrying password as a
// NUL-terminated string (cleartext or a pre-hashed "md5..." value).
func (w *Writer) WritePasswordMessage(password string) error {
	w.beginMessage(MsgPasswordMessage)
	w.buf = append(w.buf, password...)
	w.buf = append(w.buf, 0)
	return w.finishMessage()
}

// WriteQuery sends a 'Q' simple-query message.
func (w *Writer) WriteQuery(sql string) error {
	w.beginMessage(MsgQuery)
	w.buf = append(w.buf, sql...)
	w.buf = append(w.buf, 0)
	return w.finishMessage()
}

func (w *Writer) beginMessage(msgType byte) {
	w.buf = w.buf[:0]
	w.buf = append(w.buf, msgType)
	w.buf = append(w.buf, 0, 0, 0, 0)
}

func (w *Writer) finishMessage() error {
	length := uint32(len(w.buf) - 1)
	binary.BigEndian.PutUint32(w.buf[1:5], length)
	_, err := w.w.Write(w.buf)
	return err
}

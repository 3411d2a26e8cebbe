package codec

import (
	"bytes"
	"encoding/binary"
)

// Writer accumulates profile binary data in memory. Multi-byte integers are
// little-endian to mirror Reader. Writes to the backing buffer cannot fail,
// so the write methods do not return errors; encoding-level validation
// happens in the format encoders before bytes are emitted.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter creates an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Bytes returns the accumulated bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// WriteUint8 writes one unsigned byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf.WriteByte(v)
}

// WriteUint16 writes a little-endian unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) {
	var scratch [2]byte
	binary.LittleEndian.PutUint16(scratch[:], v)
	w.buf.Write(scratch[:])
}

// WriteUint32 writes a little-endian unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], v)
	w.buf.Write(scratch[:])
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf.Write(b)
}

// WriteString writes the UTF-8 bytes of s without a length prefix; profile
// headers carry the byte length in a separate field.
func (w *Writer) WriteString(s string) {
	w.buf.WriteString(s)
}

package codec

import (
	"encoding/binary"
	"fmt"
)

// Reader provides sequential reads of profile binary data from an in-memory
// buffer. All multi-byte integers are little-endian, the byte order every
// profile version uses. Reads past the end of the buffer fail with
// ErrTruncatedInput.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a reader over data. The reader does not copy the buffer.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// ReadUint8 reads one unsigned byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, fmt.Errorf("%w: need 1 byte, have 0", ErrTruncatedInput)
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// ReadUint16 reads a little-endian unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, fmt.Errorf("%w: need 2 bytes, have %d", ErrTruncatedInput, r.Remaining())
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadUint32 reads a little-endian unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, fmt.Errorf("%w: need 4 bytes, have %d", ErrTruncatedInput, r.Remaining())
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadBytes reads n bytes into a fresh slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedInput, n, r.Remaining())
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:])
	r.pos += n
	return out, nil
}

// ReadString reads n bytes and interprets them as UTF-8.
func (r *Reader) ReadString(n int) (string, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

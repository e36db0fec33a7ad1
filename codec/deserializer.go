package codec

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// Deserializer reads primitives out of a byte slice with a read cursor.
// Reads past the end of the slice fail with ErrShortRead; reads that
// cannot be interpreted (e.g. non-UTF-8 string bytes) fail with
// ErrInvalidEncoding.
type Deserializer struct {
	buf []byte
	pos int
}

// NewDeserializer wraps data for reading. The slice is not copied; the
// caller must not mutate it while the Deserializer is in use.
func NewDeserializer(data []byte) *Deserializer {
	return &Deserializer{buf: data}
}

// Remaining returns the number of unread bytes.
func (d *Deserializer) Remaining() int {
	return len(d.buf) - d.pos
}

// Position returns the current read cursor.
func (d *Deserializer) Position() int {
	return d.pos
}

func (d *Deserializer) take(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, ErrShortRead
	}
	src := d.buf[d.pos : d.pos+n]
	d.pos += n
	return src, nil
}

// ReadU8 reads a single byte.
func (d *Deserializer) ReadU8() (uint8, error) {
	src, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return src[0], nil
}

// ReadU16 reads a little-endian uint16.
func (d *Deserializer) ReadU16() (uint16, error) {
	src, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(src), nil
}

// ReadU32 reads a little-endian uint32.
func (d *Deserializer) ReadU32() (uint32, error) {
	src, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(src), nil
}

// ReadU64 reads a little-endian uint64.
func (d *Deserializer) ReadU64() (uint64, error) {
	src, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(src), nil
}

// ReadF32 reads a little-endian IEEE-754 float32.
func (d *Deserializer) ReadF32() (float32, error) {
	v, err := d.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadF64 reads a little-endian IEEE-754 float64.
func (d *Deserializer) ReadF64() (float64, error) {
	v, err := d.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadBool reads a single byte as a boolean.
func (d *Deserializer) ReadBool() (bool, error) {
	v, err := d.ReadU8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadString reads a UTF-8 string bounded by a u16 length prefix.
func (d *Deserializer) ReadString() (string, error) {
	n, err := d.ReadU16()
	if err != nil {
		return "", err
	}
	src, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(src) {
		return "", ErrInvalidEncoding
	}
	return string(src), nil
}

// ReadBlob reads a raw byte blob bounded by a u32 length prefix. The
// returned slice is a copy, safe to retain past the Deserializer's
// lifetime.
func (d *Deserializer) ReadBlob() ([]byte, error) {
	n, err := d.ReadU32()
	if err != nil {
		return nil, err
	}
	src, err := d.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

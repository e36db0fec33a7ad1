package codec

import (
	"encoding/binary"
	"math"
)

// MaxStringBytes bounds the UTF-8 byte length of a string field; the wire
// format prefixes strings with a u16 length so this is also the format's
// hard ceiling.
const MaxStringBytes = 0xFFFF

// Serializer writes primitives into a fixed-capacity byte buffer. Writes
// past the buffer's capacity fail with ErrBufferOverflow rather than
// growing the buffer — the caller picks the capacity up front, the same
// way a wire message reserves a fixed frame.
type Serializer struct {
	buf  []byte
	fill int
}

// NewSerializer allocates a Serializer with the given fixed capacity.
func NewSerializer(capacity int) *Serializer {
	return &Serializer{buf: make([]byte, capacity)}
}

// Bytes returns the portion of the buffer written so far.
func (s *Serializer) Bytes() []byte {
	return s.buf[:s.fill]
}

// Len returns the number of bytes written so far.
func (s *Serializer) Len() int {
	return s.fill
}

// Cap returns the fixed capacity of the buffer.
func (s *Serializer) Cap() int {
	return len(s.buf)
}

// Reset rewinds the fill cursor to zero without releasing the buffer.
func (s *Serializer) Reset() {
	s.fill = 0
}

func (s *Serializer) reserve(n int) ([]byte, error) {
	if s.fill+n > len(s.buf) {
		return nil, ErrBufferOverflow
	}
	dst := s.buf[s.fill : s.fill+n]
	s.fill += n
	return dst, nil
}

// WriteU8 writes a single byte.
func (s *Serializer) WriteU8(v uint8) error {
	dst, err := s.reserve(1)
	if err != nil {
		return err
	}
	dst[0] = v
	return nil
}

// WriteU16 writes a little-endian uint16.
func (s *Serializer) WriteU16(v uint16) error {
	dst, err := s.reserve(2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(dst, v)
	return nil
}

// WriteU32 writes a little-endian uint32.
func (s *Serializer) WriteU32(v uint32) error {
	dst, err := s.reserve(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(dst, v)
	return nil
}

// WriteU64 writes a little-endian uint64.
func (s *Serializer) WriteU64(v uint64) error {
	dst, err := s.reserve(8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(dst, v)
	return nil
}

// WriteF32 writes a little-endian IEEE-754 float32.
func (s *Serializer) WriteF32(v float32) error {
	return s.WriteU32(math.Float32bits(v))
}

// WriteF64 writes a little-endian IEEE-754 float64.
func (s *Serializer) WriteF64(v float64) error {
	return s.WriteU64(math.Float64bits(v))
}

// WriteBool writes a boolean as a single byte, 1 for true.
func (s *Serializer) WriteBool(v bool) error {
	if v {
		return s.WriteU8(1)
	}
	return s.WriteU8(0)
}

// WriteString writes a UTF-8 string bounded by a u16 length prefix.
func (s *Serializer) WriteString(v string) error {
	if len(v) > MaxStringBytes {
		return ErrInvalidEncoding
	}
	if err := s.WriteU16(uint16(len(v))); err != nil {
		return err
	}
	dst, err := s.reserve(len(v))
	if err != nil {
		return err
	}
	copy(dst, v)
	return nil
}

// WriteBlob writes a raw byte blob bounded by a u32 length prefix.
func (s *Serializer) WriteBlob(v []byte) error {
	if err := s.WriteU32(uint32(len(v))); err != nil {
		return err
	}
	dst, err := s.reserve(len(v))
	if err != nil {
		return err
	}
	copy(dst, v)
	return nil
}

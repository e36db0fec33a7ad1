package codec

import "errors"

// ErrBufferOverflow is returned by a Serializer write that would exceed
// its fixed capacity.
var ErrBufferOverflow = errors.New("codec: buffer overflow")

// ErrShortRead is returned by a Deserializer read that runs past the end
// of its byte slice.
var ErrShortRead = errors.New("codec: short read")

// ErrInvalidEncoding is returned when bytes cannot be decoded into the
// requested shape (bad UTF-8, a length prefix that does not fit, etc).
var ErrInvalidEncoding = errors.New("codec: invalid encoding")

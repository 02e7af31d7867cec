package btcwire

import (
	"bytes"
)

// WriteBytes appends the given bytes to the provided buffer.
func WriteBytes(buf *bytes.Buffer, b []byte) error {
	_, err := buf.Write(b)
	return err
}

// WriteUint8 appends the uint8 to the provided buffer.
func WriteUint8(buf *bytes.Buffer, n uint8) error {
	return buf.WriteByte(n)
}

// WriteLE appends the little-endian encoding of n to the provided buffer.
func WriteLE[T Integer](buf *bytes.Buffer, n T) error {
	return WriteBytes(buf, PutLE(n))
}

// WriteBE appends the big-endian encoding of n to the provided buffer.
func WriteBE[T Integer](buf *bytes.Buffer, n T) error {
	return WriteBytes(buf, PutBE(n))
}

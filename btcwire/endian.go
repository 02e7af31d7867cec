package btcwire

import (
	"encoding/binary"
)

// Integer is the set of fixed width integers that appear on the wire.
// Named types such as wire.ServiceFlag satisfy it through their underlying
// type.
type Integer interface {
	~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

// sizeOf returns the number of bytes used to encode a value of type T.
func sizeOf[T Integer]() int {
	var v T

	// binary.Size reports the encoded size of fixed size values, which for
	// the types allowed by Integer is their in-memory width.
	return binary.Size(v)
}

// PutLE returns the little-endian encoding of v. The returned slice is
// always exactly as long as T is wide.
func PutLE[T Integer](v T) []byte {
	switch sizeOf[T]() {
	case 2:
		return binary.LittleEndian.AppendUint16(nil, uint16(v))
	case 4:
		return binary.LittleEndian.AppendUint32(nil, uint32(v))
	default:
		return binary.LittleEndian.AppendUint64(nil, uint64(v))
	}
}

// PutBE returns the big-endian encoding of v. The returned slice is always
// exactly as long as T is wide.
func PutBE[T Integer](v T) []byte {
	switch sizeOf[T]() {
	case 2:
		return binary.BigEndian.AppendUint16(nil, uint16(v))
	case 4:
		return binary.BigEndian.AppendUint32(nil, uint32(v))
	default:
		return binary.BigEndian.AppendUint64(nil, uint64(v))
	}
}

// fromLE converts b to a T. It must only be handed a slice obtained from
// Take for exactly sizeOf[T]() bytes, which is why it isn't exported.
func fromLE[T Integer](b []byte) T {
	switch len(b) {
	case 2:
		return T(binary.LittleEndian.Uint16(b))
	case 4:
		return T(binary.LittleEndian.Uint32(b))
	default:
		return T(binary.LittleEndian.Uint64(b))
	}
}

// fromBE is the big-endian counterpart of fromLE.
func fromBE[T Integer](b []byte) T {
	switch len(b) {
	case 2:
		return T(binary.BigEndian.Uint16(b))
	case 4:
		return T(binary.BigEndian.Uint32(b))
	default:
		return T(binary.BigEndian.Uint64(b))
	}
}

// TakeLE reads a little-endian T from the front of buf and returns it along
// with the unread remainder.
func TakeLE[T Integer](buf []byte) (T, []byte, error) {
	b, rest, err := Take(buf, sizeOf[T]())
	if err != nil {
		return 0, buf, err
	}

	return fromLE[T](b), rest, nil
}

// TakeBE reads a big-endian T from the front of buf and returns it along with
// the unread remainder.
func TakeBE[T Integer](buf []byte) (T, []byte, error) {
	b, rest, err := Take(buf, sizeOf[T]())
	if err != nil {
		return 0, buf, err
	}

	return fromBE[T](b), rest, nil
}

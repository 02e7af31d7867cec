package btcwire

import (
	"errors"
	"fmt"
)

// ErrNonCanonicalVarInt is returned when a CompactSize integer is encoded
// with more bytes than its value needs.
var ErrNonCanonicalVarInt = errors.New("btcwire: non-canonical varint")

// TakeVarInt reads a bitcoin CompactSize integer from the front of buf. The
// first byte is either the value itself or one of 0xfd, 0xfe and 0xff, which
// announce a following little-endian uint16, uint32 or uint64.
func TakeVarInt(buf []byte) (uint64, []byte, error) {
	disc, rest, err := Take(buf, 1)
	if err != nil {
		return 0, buf, err
	}

	var (
		val   uint64
		floor uint64
	)
	switch disc[0] {
	case 0xff:
		val, rest, err = TakeLE[uint64](rest)
		floor = 0x100000000

	case 0xfe:
		var v uint32
		v, rest, err = TakeLE[uint32](rest)
		val, floor = uint64(v), 0x10000

	case 0xfd:
		var v uint16
		v, rest, err = TakeLE[uint16](rest)
		val, floor = uint64(v), 0xfd

	default:
		return uint64(disc[0]), rest, nil
	}
	if err != nil {
		return 0, buf, err
	}

	if val < floor {
		return 0, buf, fmt.Errorf("%w: %d encoded with discriminant "+
			"%#x", ErrNonCanonicalVarInt, val, disc[0])
	}

	return val, rest, nil
}

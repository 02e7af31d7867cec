package btcwire

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// TestTakeVarInt checks the reader against btcd's CompactSize writer.
func TestTakeVarInt(t *testing.T) {
	t.Parallel()

	values := []uint64{
		0, 1, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff, 0x100000000,
		0xffffffffffffffff,
	}
	for _, v := range values {
		var b bytes.Buffer
		require.NoError(t, wire.WriteVarInt(&b, 0, v))
		b.WriteByte(0xaa)

		got, rest, err := TakeVarInt(b.Bytes())
		require.NoError(t, err, "value %d", v)
		require.Equal(t, v, got)
		require.Equal(t, []byte{0xaa}, rest)
	}
}

// TestTakeVarIntInvalid checks that short and non-canonical encodings are
// rejected.
func TestTakeVarIntInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		buf  []byte
		err  error
	}{
		{"empty", nil, ErrTruncatedInput},
		{"short uint16", []byte{0xfd, 0x01}, ErrTruncatedInput},
		{"short uint32", []byte{0xfe, 0x01, 0x02}, ErrTruncatedInput},
		{"short uint64", []byte{0xff, 0x01}, ErrTruncatedInput},
		{"small uint16", []byte{0xfd, 0xfc, 0x00}, ErrNonCanonicalVarInt},
		{
			"small uint32", []byte{0xfe, 0xff, 0xff, 0x00, 0x00},
			ErrNonCanonicalVarInt,
		},
		{
			"small uint64",
			[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0},
			ErrNonCanonicalVarInt,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, rest, err := TakeVarInt(test.buf)
			require.ErrorIs(t, err, test.err)
			require.Equal(t, test.buf, rest)
		})
	}
}

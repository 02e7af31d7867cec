package btcwire

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ChecksumSize is the number of digest bytes carried in a message header.
const ChecksumSize = 4

// DoubleHash returns sha256(sha256(payload)).
func DoubleHash(payload []byte) [chainhash.HashSize]byte {
	return chainhash.DoubleHashH(payload)
}

// PayloadChecksum returns the first ChecksumSize bytes of the double hash of
// payload, in digest order. This is the checksum field of a message header.
func PayloadChecksum(payload []byte) [ChecksumSize]byte {
	var sum [ChecksumSize]byte
	digest := DoubleHash(payload)
	copy(sum[:], digest[:ChecksumSize])

	return sum
}

// VerifyChecksum returns ErrChecksumMismatch if payload does not hash to
// want.
func VerifyChecksum(payload []byte, want [ChecksumSize]byte) error {
	got := PayloadChecksum(payload)
	if !bytes.Equal(got[:], want[:]) {
		return fmt.Errorf("%w: header has %x, payload hashes to %x",
			ErrChecksumMismatch, want, got)
	}

	return nil
}

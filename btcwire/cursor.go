package btcwire

import (
	"fmt"
)

// Take splits the first n bytes off buf. Both returned slices are views into
// buf, which is never modified. If fewer than n bytes are available, or n is
// negative, ErrTruncatedInput is returned along with the untouched buffer.
//
// Every variable position read in this package goes through Take so that a
// short or malformed buffer turns into an error rather than an out of range
// access.
func Take(buf []byte, n int) ([]byte, []byte, error) {
	if n < 0 || len(buf) < n {
		return nil, buf, fmt.Errorf("%w: need %d bytes, have %d",
			ErrTruncatedInput, n, len(buf))
	}

	return buf[:n:n], buf[n:], nil
}

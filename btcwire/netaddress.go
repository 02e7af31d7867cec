package btcwire

import (
	"bytes"
	"fmt"
	"net/netip"

	"github.com/btcsuite/btcd/wire"
)

const (
	// NetAddressSize is the encoded size of a NetAddress inside a version
	// message: 8 bytes of services, a 16 byte IPv6 address and a 2 byte
	// port.
	NetAddressSize = 8 + 16 + 2

	// ipFieldSize is the width of the address field. IPv4 addresses are
	// carried in their IPv4-mapped IPv6 form.
	ipFieldSize = 16
)

// NetAddress is the service bits, address and port of a node as carried in a
// version message. Only IPv4 addresses are supported.
type NetAddress struct {
	// Services is the set of services the node advertises.
	Services wire.ServiceFlag

	// AddrPort is the IPv4 address and port of the node.
	AddrPort netip.AddrPort
}

// NewNetAddress returns a NetAddress for addr, rejecting anything that isn't
// an IPv4 address. IPv4-mapped IPv6 addresses are unmapped first.
func NewNetAddress(services wire.ServiceFlag,
	addr netip.AddrPort) (NetAddress, error) {

	ip := addr.Addr().Unmap()
	if !ip.Is4() {
		return NetAddress{}, fmt.Errorf("%w: %v", ErrInvalidAddressFamily,
			addr)
	}

	return NetAddress{
		Services: services,
		AddrPort: netip.AddrPortFrom(ip, addr.Port()),
	}, nil
}

// Encode writes the 26 byte wire form of the address to w: services in
// little-endian, the IPv4-mapped IPv6 address, then the port in big-endian.
func (n *NetAddress) Encode(w *bytes.Buffer) error {
	ip := n.AddrPort.Addr().Unmap()
	if !ip.Is4() {
		return fmt.Errorf("%w: %v", ErrInvalidAddressFamily, n.AddrPort)
	}

	// As16 of an IPv4 address is its IPv4-mapped form, ::ffff:a.b.c.d.
	mapped := ip.As16()

	if err := WriteLE(w, n.Services); err != nil {
		return err
	}
	if err := WriteBytes(w, mapped[:]); err != nil {
		return err
	}

	return WriteBE(w, n.AddrPort.Port())
}

// DecodeNetAddress reads a NetAddress from the front of buf and returns the
// remainder. The address field must hold an IPv4-mapped address; the all zero
// placeholder some nodes send decodes to 0.0.0.0.
func DecodeNetAddress(buf []byte) (NetAddress, []byte, error) {
	// Make sure the whole address is there before looking at any of it so
	// a short buffer always fails the same way.
	if _, _, err := Take(buf, NetAddressSize); err != nil {
		return NetAddress{}, buf, err
	}

	services, rest, err := TakeLE[wire.ServiceFlag](buf)
	if err != nil {
		return NetAddress{}, buf, err
	}
	ipBytes, rest, err := Take(rest, ipFieldSize)
	if err != nil {
		return NetAddress{}, buf, err
	}
	port, rest, err := TakeBE[uint16](rest)
	if err != nil {
		return NetAddress{}, buf, err
	}

	ip, err := parseMappedIPv4(ipBytes)
	if err != nil {
		return NetAddress{}, buf, err
	}

	return NetAddress{
		Services: services,
		AddrPort: netip.AddrPortFrom(ip, port),
	}, rest, nil
}

// parseMappedIPv4 interprets a 16 byte address field as an IPv4 address.
func parseMappedIPv4(b []byte) (netip.Addr, error) {
	var raw [ipFieldSize]byte
	copy(raw[:], b)

	if raw == [ipFieldSize]byte{} {
		return netip.IPv4Unspecified(), nil
	}

	addr := netip.AddrFrom16(raw)
	if !addr.Is4In6() {
		return netip.Addr{}, fmt.Errorf("%w: %v", ErrInvalidAddressFamily,
			addr)
	}

	return addr.Unmap(), nil
}

// String returns the address in host:port form.
func (n NetAddress) String() string {
	return n.AddrPort.String()
}

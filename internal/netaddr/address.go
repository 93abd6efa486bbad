// Package netaddr defines the minimal Address type the core treats as
// opaque beyond equality and port extraction, shared by internal/protocol
// (wire envelopes) and internal/netsim (delivery simulation) so neither
// has to depend on the other just to name an endpoint.
package netaddr

// Kind distinguishes an Address's address family.
type Kind int

const (
	IPv4 Kind = iota
	IPv6
)

// Address is a deliberately small, comparable endpoint identifier. The
// loopback and bench demos tell their two in-process peers apart by port
// alone (9001 for the sender, 9002 for the receiver).
type Address struct {
	Kind   Kind
	Octets [16]byte
	Port   uint16
}

// NewIPv4 builds a loopback-style IPv4 address from four octets and a
// port.
func NewIPv4(a, b, c, d byte, port uint16) Address {
	addr := Address{Kind: IPv4, Port: port}
	addr.Octets[0], addr.Octets[1], addr.Octets[2], addr.Octets[3] = a, b, c, d
	return addr
}

// Equal reports whether two addresses name the same endpoint.
func (a Address) Equal(b Address) bool {
	return a == b
}

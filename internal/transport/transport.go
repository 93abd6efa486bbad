// Package transport carries delta-snapshot packets between two peers. It
// exists so internal/session never has to know whether it is talking to a
// real UDP socket or an in-process MockTransport wired up in a test.
package transport

import (
	"time"
)

// Transport is the network boundary a Session sends and receives raw
// packet bytes through. Every datagram a session produces — snapshot or
// ack — goes through SendUnreliable: the protocol is built to tolerate
// loss and reordering on its own, so there is no reliable/retry
// counterpart to implement here.
type Transport interface {
	// Listen starts listening on the given address.
	Listen(addr string) error

	// Close shuts down the transport.
	Close() error

	// SendUnreliable sends data to addr without guaranteed delivery.
	SendUnreliable(addr string, data []byte) error

	// OnMessage registers a handler for incoming messages.
	OnMessage(handler MessageHandler)

	// OnConnect registers a handler fired the first time a peer address
	// is seen.
	OnConnect(handler ConnectHandler)

	// OnDisconnect registers a handler fired when a previously-seen peer
	// address goes silent for longer than Config.ReadTimeout.
	OnDisconnect(handler DisconnectHandler)

	// LocalAddr returns the local address we're listening on.
	LocalAddr() string
}

// MessageHandler is called when a message is received.
type MessageHandler func(addr string, data []byte)

// ConnectHandler is called the first time a peer address sends a message.
type ConnectHandler func(addr string)

// DisconnectHandler is called when a peer address has sat silent past its
// idle timeout.
type DisconnectHandler func(addr string)

// Config holds transport configuration.
type Config struct {
	// MaxMessageSize bounds a single incoming datagram; it should be at
	// or below the path MTU so the delta-snapshot packets this protocol
	// builds never fragment.
	MaxMessageSize int
	// SendBufferSize and RecvBufferSize, when positive, are pushed onto
	// the underlying socket via SetWriteBuffer/SetReadBuffer.
	SendBufferSize int
	RecvBufferSize int
	// ReadTimeout is both the cadence of the idle-peer sweep and the
	// silence duration after which a tracked peer is declared
	// disconnected.
	ReadTimeout time.Duration
	// WriteTimeout bounds a single SendUnreliable call.
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxMessageSize: 1400, // safe for UDP without fragmentation
		SendBufferSize: 1 << 20,
		RecvBufferSize: 1 << 20,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
	}
}

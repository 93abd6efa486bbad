package transport

import (
	"sync"
)

// MockTransport is an in-process Transport used by tests to drive two
// session.Session values against each other without a real socket.
type MockTransport struct {
	addr     string
	messages []MockMessage
	sent     []MockMessage
	mu       sync.Mutex
	handlers struct {
		message    MessageHandler
		connect    ConnectHandler
		disconnect DisconnectHandler
	}
}

// MockMessage records one sent or received datagram.
type MockMessage struct {
	Addr string
	Data []byte
}

// NewMockTransport creates a new mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		messages: make([]MockMessage, 0),
		sent:     make([]MockMessage, 0),
	}
}

// Listen records addr; there is nothing to bind in-process.
func (t *MockTransport) Listen(addr string) error {
	t.addr = addr
	return nil
}

// Close does nothing in mock.
func (t *MockTransport) Close() error {
	return nil
}

// SendUnreliable records the message as sent. A test drains SentMessages
// and feeds them into the peer MockTransport's SimulateMessage to
// complete the round trip.
func (t *MockTransport) SendUnreliable(addr string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, MockMessage{Addr: addr, Data: data})
	return nil
}

// OnMessage registers a handler.
func (t *MockTransport) OnMessage(handler MessageHandler) {
	t.handlers.message = handler
}

// OnConnect registers a handler.
func (t *MockTransport) OnConnect(handler ConnectHandler) {
	t.handlers.connect = handler
}

// OnDisconnect registers a handler.
func (t *MockTransport) OnDisconnect(handler DisconnectHandler) {
	t.handlers.disconnect = handler
}

// LocalAddr returns the mock address.
func (t *MockTransport) LocalAddr() string {
	return t.addr
}

// --- Test helpers ---

// SimulateMessage simulates receiving a message from addr.
func (t *MockTransport) SimulateMessage(addr string, data []byte) {
	t.mu.Lock()
	t.messages = append(t.messages, MockMessage{Addr: addr, Data: data})
	t.mu.Unlock()

	if t.handlers.message != nil {
		t.handlers.message(addr, data)
	}
}

// SimulateConnect simulates a client connecting.
func (t *MockTransport) SimulateConnect(addr string) {
	if t.handlers.connect != nil {
		t.handlers.connect(addr)
	}
}

// SimulateDisconnect simulates a client disconnecting.
func (t *MockTransport) SimulateDisconnect(addr string) {
	if t.handlers.disconnect != nil {
		t.handlers.disconnect(addr)
	}
}

// SentMessages returns all sent messages.
func (t *MockTransport) SentMessages() []MockMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]MockMessage{}, t.sent...)
}

// ReceivedMessages returns all received messages.
func (t *MockTransport) ReceivedMessages() []MockMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]MockMessage{}, t.messages...)
}

// Clear clears all recorded messages.
func (t *MockTransport) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = t.messages[:0]
	t.sent = t.sent[:0]
}

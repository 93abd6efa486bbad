package transport

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// UDPTransport implements Transport over a real net.UDPConn.
type UDPTransport struct {
	config Config
	conn   *net.UDPConn
	addr   string

	handlers struct {
		message    MessageHandler
		connect    ConnectHandler
		disconnect DisconnectHandler
	}

	// clients tracks the last time each peer address was heard from, the
	// same Entry/IsExpired shape internal/registry uses to evict idle
	// sessions — here the sweep fires OnDisconnect for each evicted address.
	clients   map[string]time.Time
	clientsMu sync.RWMutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewUDPTransport creates a new UDP transport.
func NewUDPTransport(config Config) *UDPTransport {
	return &UDPTransport{
		config:  config,
		clients: make(map[string]time.Time),
		stopCh:  make(chan struct{}),
	}
}

// Listen starts listening on the given address, sizing the socket's
// send/receive buffers from Config and starting the receive and
// idle-peer sweep loops.
func (t *UDPTransport) Listen(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("resolve udp addr: %w", err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("listen udp: %w", err)
	}
	if t.config.RecvBufferSize > 0 {
		_ = conn.SetReadBuffer(t.config.RecvBufferSize)
	}
	if t.config.SendBufferSize > 0 {
		_ = conn.SetWriteBuffer(t.config.SendBufferSize)
	}

	t.conn = conn
	t.addr = addr

	t.wg.Add(1)
	go t.receiveLoop()

	if t.config.ReadTimeout > 0 {
		t.wg.Add(1)
		go t.disconnectSweep()
	}

	return nil
}

// Close shuts down the transport.
func (t *UDPTransport) Close() error {
	close(t.stopCh)
	if t.conn != nil {
		t.conn.Close()
	}
	t.wg.Wait()
	return nil
}

// SendUnreliable sends data without guaranteed delivery, bounding the
// write with Config.WriteTimeout.
func (t *UDPTransport) SendUnreliable(addr string, data []byte) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("resolve addr: %w", err)
	}
	if t.config.WriteTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
	}
	_, err = t.conn.WriteToUDP(data, udpAddr)
	return err
}

// OnMessage registers a handler for incoming messages.
func (t *UDPTransport) OnMessage(handler MessageHandler) {
	t.handlers.message = handler
}

// OnConnect registers a handler for new connections.
func (t *UDPTransport) OnConnect(handler ConnectHandler) {
	t.handlers.connect = handler
}

// OnDisconnect registers a handler for disconnections.
func (t *UDPTransport) OnDisconnect(handler DisconnectHandler) {
	t.handlers.disconnect = handler
}

// LocalAddr returns the local address.
func (t *UDPTransport) LocalAddr() string {
	if t.conn != nil {
		return t.conn.LocalAddr().String()
	}
	return t.addr
}

// receiveLoop handles incoming UDP packets until Close is called.
func (t *UDPTransport) receiveLoop() {
	defer t.wg.Done()

	buf := make([]byte, t.config.MaxMessageSize)

	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		n, addr, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.stopCh:
				return
			default:
				continue
			}
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		addrStr := addr.String()
		t.trackClient(addrStr)

		if t.handlers.message != nil {
			t.handlers.message(addrStr, data)
		}
	}
}

// trackClient records addr's last-seen time and fires OnConnect the first
// time it is heard from.
func (t *UDPTransport) trackClient(addr string) {
	t.clientsMu.Lock()
	defer t.clientsMu.Unlock()

	_, exists := t.clients[addr]
	t.clients[addr] = time.Now()

	if !exists && t.handlers.connect != nil {
		go t.handlers.connect(addr)
	}
}

// disconnectSweep periodically evicts peer addresses that have sat silent
// longer than Config.ReadTimeout, firing OnDisconnect for each one. UDP
// carries no connection-teardown signal of its own, so this sweep is the
// only way a peer ever gets declared gone.
func (t *UDPTransport) disconnectSweep() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.ReadTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.evictIdleClients()
		}
	}
}

func (t *UDPTransport) evictIdleClients() {
	cutoff := time.Now().Add(-t.config.ReadTimeout)

	t.clientsMu.Lock()
	var gone []string
	for addr, lastSeen := range t.clients {
		if lastSeen.Before(cutoff) {
			gone = append(gone, addr)
			delete(t.clients, addr)
		}
	}
	t.clientsMu.Unlock()

	if t.handlers.disconnect == nil {
		return
	}
	for _, addr := range gone {
		t.handlers.disconnect(addr)
	}
}

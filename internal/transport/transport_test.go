package transport

import (
	"context"
	"testing"
	"time"

	"github.com/deltasnap/deltasnap/internal/delta"
	"github.com/deltasnap/deltasnap/internal/session"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxMessageSize != 1400 {
		t.Errorf("expected MaxMessageSize 1400, got %d", cfg.MaxMessageSize)
	}
	if cfg.ReadTimeout <= 0 {
		t.Errorf("expected a positive ReadTimeout, got %v", cfg.ReadTimeout)
	}
}

func TestMockTransport_ConnectDisconnect(t *testing.T) {
	mock := NewMockTransport()

	var connected, disconnected string
	mock.OnConnect(func(addr string) {
		connected = addr
	})
	mock.OnDisconnect(func(addr string) {
		disconnected = addr
	})

	mock.SimulateConnect("127.0.0.1:1234")
	if connected != "127.0.0.1:1234" {
		t.Errorf("expected connect callback, got '%s'", connected)
	}

	mock.SimulateDisconnect("127.0.0.1:1234")
	if disconnected != "127.0.0.1:1234" {
		t.Errorf("expected disconnect callback, got '%s'", disconnected)
	}
}

// newTestSession builds a session.Session ready to exchange packets over
// a Transport, the same way cmd/netdemo's serve/connect subcommands wire
// one up over UDPTransport.
func newTestSession(t *testing.T, numCubes int) *session.Session {
	t.Helper()
	cfg := session.DefaultConfig()
	cfg.Delta.NumCubes = numCubes
	cfg.InitialSnapshot = delta.NewSnapshot(numCubes)
	sess, err := session.New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return sess
}

// A full sender/receiver round trip driven entirely through two
// MockTransports, exercising the same Transport.SendUnreliable / OnMessage
// wiring cmd/netdemo's serve and connect subcommands use over a real
// UDPTransport.
func TestMockTransport_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	const numCubes = 4
	const senderAddr = "client:1"
	const receiverAddr = "server:1"

	sender := newTestSession(t, numCubes)
	receiver := newTestSession(t, numCubes)

	senderTransport := NewMockTransport()
	receiverTransport := NewMockTransport()

	receiverTransport.OnMessage(func(addr string, data []byte) {
		ackBuf, err := receiver.ReceiverTick(ctx, 0.0, data)
		if err != nil {
			t.Fatalf("ReceiverTick: %v", err)
		}
		if err := receiverTransport.SendUnreliable(senderAddr, ackBuf); err != nil {
			t.Fatalf("SendUnreliable ack: %v", err)
		}
	})
	senderTransport.OnMessage(func(addr string, data []byte) {
		if err := sender.HandleAck(data); err != nil {
			t.Fatalf("HandleAck: %v", err)
		}
	})

	current := delta.NewSnapshot(numCubes)
	current.Cubes[1].PosX = 9
	buf, _, err := sender.SenderTick(ctx, current)
	if err != nil {
		t.Fatalf("SenderTick: %v", err)
	}
	if err := senderTransport.SendUnreliable(receiverAddr, buf); err != nil {
		t.Fatalf("SendUnreliable snapshot: %v", err)
	}

	// Deliver the datagrams each transport just "sent" to its peer.
	for _, m := range senderTransport.SentMessages() {
		receiverTransport.SimulateMessage(senderAddr, m.Data)
	}
	for _, m := range receiverTransport.SentMessages() {
		senderTransport.SimulateMessage(receiverAddr, m.Data)
	}

	if sender.State() != session.StateRunning {
		t.Errorf("got sender state %v, want StateRunning", sender.State())
	}
	if receiver.State() != session.StateRunning {
		t.Errorf("got receiver state %v, want StateRunning", receiver.State())
	}
}

// A session round trip over two real UDPTransports on loopback, exercising
// socket binding, buffer sizing, and the OnConnect callback a fresh peer
// address fires on first contact.
func TestUDPTransport_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	const numCubes = 4

	sender := newTestSession(t, numCubes)
	receiver := newTestSession(t, numCubes)

	cfg := DefaultConfig()
	cfg.ReadTimeout = 50 * time.Millisecond

	receiverTransport := NewUDPTransport(cfg)
	senderTransport := NewUDPTransport(cfg)

	connected := make(chan string, 1)
	receiverTransport.OnConnect(func(addr string) { connected <- addr })

	ackCh := make(chan struct{}, 1)
	receiverTransport.OnMessage(func(addr string, data []byte) {
		ackBuf, err := receiver.ReceiverTick(ctx, 0.0, data)
		if err != nil {
			t.Errorf("ReceiverTick: %v", err)
			return
		}
		if err := receiverTransport.SendUnreliable(addr, ackBuf); err != nil {
			t.Errorf("SendUnreliable ack: %v", err)
		}
	})
	senderTransport.OnMessage(func(addr string, data []byte) {
		if err := sender.HandleAck(data); err != nil {
			t.Errorf("HandleAck: %v", err)
			return
		}
		ackCh <- struct{}{}
	})

	if err := receiverTransport.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("receiver Listen: %v", err)
	}
	defer receiverTransport.Close()
	if err := senderTransport.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("sender Listen: %v", err)
	}
	defer senderTransport.Close()

	current := delta.NewSnapshot(numCubes)
	current.Cubes[1].PosX = 9
	buf, _, err := sender.SenderTick(ctx, current)
	if err != nil {
		t.Fatalf("SenderTick: %v", err)
	}
	if err := senderTransport.SendUnreliable(receiverTransport.LocalAddr(), buf); err != nil {
		t.Fatalf("SendUnreliable snapshot: %v", err)
	}

	select {
	case addr := <-connected:
		if addr == "" {
			t.Error("expected a non-empty connect address")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnConnect")
	}
	select {
	case <-ackCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ack round trip")
	}

	if receiver.State() != session.StateRunning {
		t.Errorf("got receiver state %v, want StateRunning", receiver.State())
	}
}

// A peer that stops sending is declared disconnected once it has sat
// silent longer than Config.ReadTimeout.
func TestUDPTransport_DisconnectSweep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReadTimeout = 20 * time.Millisecond

	transport := NewUDPTransport(cfg)
	if err := transport.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer transport.Close()

	disconnected := make(chan string, 1)
	transport.OnDisconnect(func(addr string) { disconnected <- addr })

	// Fake a peer having been heard from, without a real remote socket.
	transport.trackClient("203.0.113.5:4000")

	select {
	case addr := <-disconnected:
		if addr != "203.0.113.5:4000" {
			t.Errorf("got disconnect addr %q, want 203.0.113.5:4000", addr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect sweep")
	}
}

// Package telemetry exposes a small HTTP+WebSocket dashboard over a
// session registry: a JSON snapshot endpoint for one-shot polling, and a
// websocket stream that pushes the same snapshot on an interval, the way
// the teacher's webbridge pushed room state to connected browsers.
package telemetry

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/deltasnap/deltasnap/internal/netsim"
	"github.com/deltasnap/deltasnap/internal/registry"
)

// SessionStat is one session's reportable state.
type SessionStat struct {
	ID           string `json:"id"`
	State        string `json:"state"`
	AgeSeconds   float64 `json:"age_seconds"`
}

// Snapshot is the JSON payload served at /stats and pushed over /ws.
type Snapshot struct {
	SessionCount int           `json:"session_count"`
	Sessions     []SessionStat `json:"sessions"`
	Bandwidth    string        `json:"bandwidth,omitempty"`
}

// Server serves telemetry for a registry, optionally enriched with
// bandwidth stats from a network simulator.
type Server struct {
	registry *registry.Registry
	sim      *netsim.Simulator

	router chi.Router

	upgrader websocket.Upgrader
	clientsMu sync.Mutex
	clients   map[*websocket.Conn]struct{}
}

// NewServer builds a telemetry server over reg. sim may be nil, in which
// case snapshots omit the bandwidth field.
func NewServer(reg *registry.Registry, sim *netsim.Simulator) *Server {
	s := &Server{
		registry: reg,
		sim:      sim,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Get("/stats", s.handleStats)
	r.Get("/ws", s.handleWS)
	s.router = r

	return s
}

// Handler returns the server's http.Handler, ready to mount under
// http.ListenAndServe or a parent router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshot())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = struct{}{}
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		conn.Close()
	}()

	// Drain and discard anything the browser sends; we only push.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes a fresh snapshot to every connected websocket client
// every interval, until done is closed.
func (s *Server) Broadcast(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.broadcastOnce()
		}
	}
}

func (s *Server) broadcastOnce() {
	payload, err := json.Marshal(s.snapshot())
	if err != nil {
		log.Printf("⚠️  telemetry: marshal snapshot: %v", err)
		return
	}

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *Server) snapshot() Snapshot {
	entries := s.registry.AllSessions()
	stats := make([]SessionStat, len(entries))
	now := time.Now()
	for i, e := range entries {
		stats[i] = SessionStat{
			ID:         e.ID.String(),
			State:      e.Session.State().String(),
			AgeSeconds: now.Sub(e.CreatedAt).Seconds(),
		}
	}

	snap := Snapshot{SessionCount: len(entries), Sessions: stats}
	if s.sim != nil {
		snap.Bandwidth = s.sim.BandwidthSummary()
	}
	return snap
}

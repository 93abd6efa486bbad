// Package registry hosts many concurrent delta-snapshot sessions behind
// shareable IDs, the way a room registry hosts many concurrent game
// rooms: the same create/get/delete API, the same idle-session TTL
// sweep, generalized from a map of players to a single session.Session.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/deltasnap/deltasnap/internal/metrics"
	"github.com/deltasnap/deltasnap/internal/session"
)

// Config controls capacity and the idle-session eviction sweep.
type Config struct {
	MaxSessions   int
	SessionTTL    time.Duration
	CleanupPeriod time.Duration
}

// DefaultConfig returns sensible defaults for a demo or test deployment.
func DefaultConfig() Config {
	return Config{
		MaxSessions:   256,
		SessionTTL:    5 * time.Minute,
		CleanupPeriod: 30 * time.Second,
	}
}

// Entry wraps one registered Session with the bookkeeping the registry
// needs to decide when it has gone idle.
type Entry struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Session   *session.Session

	mu           sync.RWMutex
	lastActivity time.Time
	ttl          time.Duration
}

// Touch records activity against the entry, resetting its idle clock.
func (e *Entry) Touch() {
	e.mu.Lock()
	e.lastActivity = time.Now()
	e.mu.Unlock()
}

// IsExpired reports whether the entry has sat idle longer than its TTL.
func (e *Entry) IsExpired() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return time.Since(e.lastActivity) > e.ttl
}

// Registry manages every live Session, keyed by a uuid.UUID handed back
// from Create.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Entry
	config   Config
	metrics  *metrics.Collector

	onSessionExpired func(*Entry)
}

// NewRegistry starts the cleanup sweep and returns an empty Registry.
func NewRegistry(config Config, collector *metrics.Collector) *Registry {
	r := &Registry{
		sessions: make(map[uuid.UUID]*Entry),
		config:   config,
		metrics:  collector,
	}
	go r.cleanupLoop()
	return r
}

// Create builds a new Session from cfg and registers it under a fresh
// ID. tracer may be nil.
func (r *Registry) Create(cfg session.Config, tracer trace.Tracer) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config.MaxSessions > 0 && len(r.sessions) >= r.config.MaxSessions {
		return nil, ErrRegistryFull
	}

	sess, err := session.New(cfg, r.metrics, tracer)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:           sess.ID,
		CreatedAt:    time.Now(),
		Session:      sess,
		lastActivity: time.Now(),
		ttl:          r.config.SessionTTL,
	}
	r.sessions[entry.ID] = entry
	return entry, nil
}

// Get retrieves an entry by ID.
func (r *Registry) Get(id uuid.UUID) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	return e, ok
}

// Delete removes a session from the registry.
func (r *Registry) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// OnSessionExpired sets the callback invoked for each session the
// cleanup sweep evicts.
func (r *Registry) OnSessionExpired(callback func(*Entry)) {
	r.onSessionExpired = callback
}

// cleanupLoop periodically evicts sessions that have sat idle past their
// TTL.
func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(r.config.CleanupPeriod)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.Lock()
		for id, entry := range r.sessions {
			if entry.IsExpired() {
				if r.onSessionExpired != nil {
					go r.onSessionExpired(entry)
				}
				delete(r.sessions, id)
			}
		}
		r.mu.Unlock()
	}
}

// AllSessions returns every currently registered entry.
func (r *Registry) AllSessions() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e)
	}
	return out
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

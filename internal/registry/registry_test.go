package registry

import (
	"testing"
	"time"

	"github.com/deltasnap/deltasnap/internal/delta"
	"github.com/deltasnap/deltasnap/internal/session"
)

func newCfg(numCubes int) session.Config {
	cfg := session.DefaultConfig()
	cfg.Delta.NumCubes = numCubes
	cfg.InitialSnapshot = delta.NewSnapshot(numCubes)
	return cfg
}

func TestCreateAndGet(t *testing.T) {
	r := NewRegistry(DefaultConfig(), nil)
	entry, err := r.Create(newCfg(4), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, ok := r.Get(entry.ID)
	if !ok || got != entry {
		t.Fatalf("Get: ok=%v got=%v want=%v", ok, got, entry)
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestCreateRejectsAtCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSessions = 1
	r := NewRegistry(cfg, nil)
	if _, err := r.Create(newCfg(4), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Create(newCfg(4), nil); err != ErrRegistryFull {
		t.Errorf("got %v, want ErrRegistryFull", err)
	}
}

func TestDelete(t *testing.T) {
	r := NewRegistry(DefaultConfig(), nil)
	entry, _ := r.Create(newCfg(4), nil)
	r.Delete(entry.ID)
	if _, ok := r.Get(entry.ID); ok {
		t.Error("expected the session to be gone after Delete")
	}
}

func TestEntryExpiry(t *testing.T) {
	entry := &Entry{lastActivity: time.Now().Add(-time.Minute), ttl: time.Second}
	if !entry.IsExpired() {
		t.Error("expected an entry idle past its TTL to report expired")
	}
	entry.Touch()
	if entry.IsExpired() {
		t.Error("expected Touch to reset the idle clock")
	}
}

package interp

import "github.com/deltasnap/deltasnap/internal/seqbuf"

type entry struct {
	sequence    uint16
	valid       bool
	receiveTime float64
	cubes       []CubeView
}

// Buffer stores up to N received snapshots keyed by sequence, each with
// its own receive time, and produces a playout-delayed interpolated view
// on demand.
type Buffer struct {
	entries []entry
	n       int
}

// New allocates a buffer of n slots.
func New(n int) *Buffer {
	return &Buffer{entries: make([]entry, n), n: n}
}

// Add inserts a decoded snapshot at the given receive time. A duplicate
// or stale (older, under wrap-around ordering) sequence at the same
// modular index is ignored.
func (b *Buffer) Add(now float64, seq uint16, cubes []CubeView) {
	idx := int(seq) % b.n
	e := &b.entries[idx]
	if e.valid && !seqbuf.SequenceGreaterThan(seq, e.sequence) {
		return
	}
	e.sequence = seq
	e.valid = true
	e.receiveTime = now
	e.cubes = cubes
}

// findPair locates prev (the largest-sequence valid entry with
// receiveTime <= renderTime) and next (the smallest-sequence valid entry
// strictly after prev), regardless of next's own receive time.
func (b *Buffer) findPair(renderTime float64) (prev, next *entry, ok bool) {
	for i := range b.entries {
		e := &b.entries[i]
		if !e.valid || e.receiveTime > renderTime {
			continue
		}
		if prev == nil || seqbuf.SequenceGreaterThan(e.sequence, prev.sequence) {
			prev = e
		}
	}
	if prev == nil {
		return nil, nil, false
	}
	for i := range b.entries {
		e := &b.entries[i]
		if !e.valid || !seqbuf.SequenceGreaterThan(e.sequence, prev.sequence) {
			continue
		}
		if next == nil || seqbuf.SequenceGreaterThan(next.sequence, e.sequence) {
			next = e
		}
	}
	if next == nil {
		return nil, nil, false
	}
	return prev, next, true
}

// GetViewUpdate computes render_time = now - playoutDelay and returns the
// linearly interpolated cube views for the prev/next pair straddling it.
// ok is false ("no snapshot to interpolate towards") when no such pair
// exists yet, or no longer does because of a reception gap.
func (b *Buffer) GetViewUpdate(now, playoutDelay float64) (cubes []CubeView, ok bool) {
	renderTime := now - playoutDelay
	prev, next, found := b.findPair(renderTime)
	if !found {
		return nil, false
	}

	t := 1.0
	if span := next.receiveTime - prev.receiveTime; span > 0 {
		t = clamp((renderTime-prev.receiveTime)/span, 0, 1)
	}

	n := len(prev.cubes)
	if len(next.cubes) < n {
		n = len(next.cubes)
	}
	out := make([]CubeView, n)
	for i := 0; i < n; i++ {
		out[i] = lerpCube(prev.cubes[i], next.cubes[i], t)
	}
	return out, true
}

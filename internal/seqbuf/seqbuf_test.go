package seqbuf

import "testing"

func TestSequenceGreaterThan(t *testing.T) {
	tests := []struct {
		a, b uint16
		want bool
	}{
		{1, 0, true},
		{0, 1, false},
		{0, 65535, true},   // wrap: 0 is "after" 65535
		{65535, 0, false},
		{100, 50, true},
		{50, 100, false},
	}
	for _, tc := range tests {
		if got := SequenceGreaterThan(tc.a, tc.b); got != tc.want {
			t.Errorf("SequenceGreaterThan(%d,%d) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

// P3: insertions of length <= N round-trip exactly through Get; past N+1
// insertions, the oldest slot is overwritten and Get on its original
// sequence fails via the sequence-tag mismatch, not a crash.
func TestSlidingWindowP3(t *testing.T) {
	const n = 8
	w := NewSlidingWindow[int](n)

	seqs := make([]uint16, 0, n)
	for i := 0; i < n; i++ {
		seq, slot := w.Insert()
		*slot = i * 10
		seqs = append(seqs, seq)
	}
	for i, seq := range seqs {
		got, ok := w.Get(seq)
		if !ok {
			t.Fatalf("seq %d: expected valid slot", seq)
		}
		if got != i*10 {
			t.Errorf("seq %d: got %d want %d", seq, got, i*10)
		}
	}

	// One more insert overwrites slot 0's modular index.
	seq, slot := w.Insert()
	*slot = 999
	if seq != seqs[n-1]+1 {
		t.Fatalf("unexpected next sequence: %d", seq)
	}
	if _, ok := w.Get(seqs[0]); ok {
		t.Errorf("expected seq %d to be overwritten, Get still returned ok", seqs[0])
	}
}

func TestSlidingWindowAck(t *testing.T) {
	w := NewSlidingWindow[int](16)
	if w.GetAck() != -1 {
		t.Fatalf("expected -1 sentinel before any ack, got %d", w.GetAck())
	}
	for i := 0; i < 10; i++ {
		_, slot := w.Insert()
		*slot = i
	}
	w.Ack(7)
	if w.GetAck() != 7 {
		t.Fatalf("got %d want 7", w.GetAck())
	}
	w.Ack(3) // older ack must not move the cursor backward
	if w.GetAck() != 7 {
		t.Fatalf("ack moved backward: got %d", w.GetAck())
	}
}

// P4: Find(seq) returns a slot iff it has not been overwritten by a later
// Insert at the same modular index.
func TestSequenceBufferP4(t *testing.T) {
	const n = 4
	b := NewSequenceBuffer[int](n)

	for seq := uint16(0); seq < 4; seq++ {
		slot, ok := b.Insert(seq)
		if !ok {
			t.Fatalf("seq %d: insert rejected", seq)
		}
		*slot = int(seq) * 100
	}
	for seq := uint16(0); seq < 4; seq++ {
		got, ok := b.Find(seq)
		if !ok || got != int(seq)*100 {
			t.Errorf("seq %d: got (%d,%v) want (%d,true)", seq, got, ok, int(seq)*100)
		}
	}

	// Inserting seq 4 overwrites modular index 0 (seq 0's slot).
	slot, ok := b.Insert(4)
	if !ok {
		t.Fatal("insert rejected")
	}
	*slot = 400
	if _, ok := b.Find(0); ok {
		t.Errorf("seq 0 should have been evicted by seq 4 at the same modular index")
	}
	if got, ok := b.Find(4); !ok || got != 400 {
		t.Errorf("seq 4: got (%d,%v)", got, ok)
	}
}

func TestSequenceBufferCount(t *testing.T) {
	const n = 4
	b := NewSequenceBuffer[int](n)

	if got := b.Count(); got != 0 {
		t.Fatalf("empty buffer: got Count() %d, want 0", got)
	}

	for seq := uint16(0); seq < 3; seq++ {
		if _, ok := b.Insert(seq); !ok {
			t.Fatalf("seq %d: insert rejected", seq)
		}
	}
	if got := b.Count(); got != 3 {
		t.Errorf("got Count() %d, want 3", got)
	}

	// Inserting seq 4 overwrites modular index 0 (seq 0's slot), so the
	// live count is unchanged even though four Inserts have happened.
	if _, ok := b.Insert(4); !ok {
		t.Fatal("insert rejected")
	}
	if got := b.Count(); got != 3 {
		t.Errorf("got Count() %d, want 3", got)
	}
}

func TestSequenceBufferRejectsTooOld(t *testing.T) {
	b := NewSequenceBuffer[int](4)
	for seq := uint16(0); seq < 10; seq++ {
		slot, ok := b.Insert(seq)
		if !ok {
			t.Fatalf("seq %d: unexpected rejection", seq)
		}
		*slot = int(seq)
	}
	if _, ok := b.Insert(2); ok {
		t.Errorf("expected seq 2 to be rejected as older than newest-N")
	}
}

package bits

import "testing"

func TestSerializeBitsRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		n    int
		vals []uint32
	}{
		{"single bit", 1, []uint32{0, 1, 1, 0}},
		{"byte", 8, []uint32{0, 255, 127, 1}},
		{"odd width", 11, []uint32{0, 2047, 1023, 512}},
		{"full word", 32, []uint32{0, 0xFFFFFFFF, 0x80000001}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWriter(nil)
			for _, v := range tc.vals {
				v := v
				if err := w.SerializeBits(&v, tc.n); err != nil {
					t.Fatalf("write: %v", err)
				}
			}
			buf := w.Bytes()

			r := NewReader(buf, nil)
			for i, want := range tc.vals {
				var got uint32
				if err := r.SerializeBits(&got, tc.n); err != nil {
					t.Fatalf("read[%d]: %v", i, err)
				}
				mask := uint32(0xFFFFFFFF)
				if tc.n < 32 {
					mask = (1 << uint32(tc.n)) - 1
				}
				if got != want&mask {
					t.Errorf("val[%d]: got %d want %d", i, got, want&mask)
				}
			}
		})
	}
}

func TestSerializeIntRange(t *testing.T) {
	w := NewWriter(nil)
	v := 42
	if err := w.SerializeInt(&v, 0, 100); err != nil {
		t.Fatalf("in-range write: %v", err)
	}
	out := 200
	if err := w.SerializeInt(&out, 0, 100); err != ErrRange {
		t.Fatalf("expected ErrRange, got %v", err)
	}

	buf := w.Bytes()
	r := NewReader(buf, nil)
	var got int
	if err := r.SerializeInt(&got, 0, 100); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 42 {
		t.Errorf("got %d want 42", got)
	}
}

func TestSerializeIntDegenerateRange(t *testing.T) {
	w := NewWriter(nil)
	v := 7
	if err := w.SerializeInt(&v, 7, 7); err != nil {
		t.Fatalf("write: %v", err)
	}
	if w.BitsWritten() != 0 {
		t.Errorf("degenerate range should cost 0 bits, got %d", w.BitsWritten())
	}

	r := NewReader(w.Bytes(), nil)
	var got int
	if err := r.SerializeInt(&got, 7, 7); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 7 {
		t.Errorf("got %d want 7", got)
	}
}

func TestSerializeBytesAlignment(t *testing.T) {
	w := NewWriter(nil)
	b := true
	if err := w.SerializeBool(&b); err != nil {
		t.Fatal(err)
	}
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := w.SerializeBytes(payload, len(payload)); err != nil {
		t.Fatal(err)
	}
	buf := w.Bytes()

	r := NewReader(buf, nil)
	var gotBool bool
	if err := r.SerializeBool(&gotBool); err != nil {
		t.Fatal(err)
	}
	if !gotBool {
		t.Errorf("bool round-trip failed")
	}
	got := make([]byte, len(payload))
	if err := r.SerializeBytes(got, len(got)); err != nil {
		t.Fatal(err)
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Errorf("byte[%d]: got %x want %x", i, got[i], payload[i])
		}
	}
}

func TestUnderflow(t *testing.T) {
	r := NewReader([]byte{0x01}, nil)
	var v uint32
	if err := r.SerializeBits(&v, 8); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if err := r.SerializeBits(&v, 8); err != ErrUnderflow {
		t.Fatalf("expected ErrUnderflow, got %v", err)
	}
}

func TestMeasurerMatchesWriter(t *testing.T) {
	m := NewMeasurer(nil)
	w := NewWriter(nil)

	write := func(s Stream) {
		v := uint32(9)
		s.SerializeBits(&v, 13)
		b := true
		s.SerializeBool(&b)
		n := 50
		s.SerializeInt(&n, 0, 89)
		s.SerializeBytes([]byte{1, 2, 3}, 3)
	}

	write(m)
	write(w)

	if m.BitsWritten() != w.BitsWritten() {
		t.Errorf("measurer %d bits, writer %d bits", m.BitsWritten(), w.BitsWritten())
	}
	if m.BitsWritten() != len(w.Bytes())*8 {
		t.Errorf("measurer bits %d does not match byte-aligned writer output %d", m.BitsWritten(), len(w.Bytes())*8)
	}
}

func TestContext(t *testing.T) {
	ctx := Context{SenderWindow: "window-marker"}
	w := NewWriter(ctx)
	if got := w.Context(SenderWindow); got != "window-marker" {
		t.Errorf("got %v want window-marker", got)
	}
	if got := w.Context(ReceiverBuffer); got != nil {
		t.Errorf("expected nil for unset tag, got %v", got)
	}
}

func BenchmarkWriteCube(b *testing.B) {
	for i := 0; i < b.N; i++ {
		w := NewWriter(nil)
		interacting := false
		w.SerializeBool(&interacting)
		x, y, z := 0, 0, 0
		w.SerializeInt(&x, -1023, 1023)
		w.SerializeInt(&y, -1023, 1023)
		w.SerializeInt(&z, 0, 1023)
		largest := 3
		w.SerializeInt(&largest, 0, 3)
		a, c, d := uint32(0), uint32(0), uint32(0)
		w.SerializeBits(&a, 9)
		w.SerializeBits(&c, 9)
		w.SerializeBits(&d, 9)
		_ = w.Bytes()
	}
}

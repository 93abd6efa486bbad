package interp

import (
	"math"
	"testing"
)

func cube(x float64) CubeView {
	return CubeView{Position: [3]float64{x, 0, 0}, Orientation: [4]float64{0, 0, 0, 1}}
}

// P6 (constant case): a monotonically increasing sequence of snapshots
// with identical positions must emit a constant position.
func TestInterpolationConstantPosition(t *testing.T) {
	b := New(16)
	for seq := uint16(0); seq < 10; seq++ {
		b.Add(float64(seq)*0.1, seq, []CubeView{cube(5)})
	}

	got, ok := b.GetViewUpdate(0.55, 0.1)
	if !ok {
		t.Fatal("expected a valid interpolation pair")
	}
	if got[0].Position[0] != 5 {
		t.Errorf("got position %v, want constant 5", got[0].Position[0])
	}
}

// P6 (linear case): for a linear position trajectory, emitted positions
// are linear in render_time between knots.
func TestInterpolationLinearPosition(t *testing.T) {
	b := New(16)
	for seq := uint16(0); seq < 10; seq++ {
		b.Add(float64(seq)*0.1, seq, []CubeView{cube(float64(seq))})
	}

	// render_time = 0.55 sits between seq=5 (t=0.5) and seq=6 (t=0.6),
	// 50% of the way across, so position should land at 5.5.
	got, ok := b.GetViewUpdate(0.65, 0.1)
	if !ok {
		t.Fatal("expected a valid interpolation pair")
	}
	if math.Abs(got[0].Position[0]-5.5) > 1e-9 {
		t.Errorf("got position %v, want 5.5", got[0].Position[0])
	}
}

func TestInterpolationNoPairBeforeFirstSample(t *testing.T) {
	b := New(16)
	b.Add(1.0, 0, []CubeView{cube(0)})

	if _, ok := b.GetViewUpdate(0.5, 0.1); ok {
		t.Error("expected no valid pair before any sample has arrived")
	}
}

// S5 — playout: receiver gets snapshots at roughly 0.1k with jitter; at
// now=1.0s with playout_delay=0.1s, render_time=0.9s must straddle a
// prev/next pair, and interacting must come from next.
func TestScenarioS5Playout(t *testing.T) {
	b := New(32)
	jitter := []float64{0.01, -0.02, 0.015, -0.01, 0.02, -0.015, 0.01, -0.005, 0.02, -0.01, 0.0}
	for k := 0; k <= 10; k++ {
		recvTime := 0.1*float64(k) + jitter[k]
		view := cube(float64(k))
		view.Interacting = k == 10 // only the pair's "next" (seq 10) is interacting
		b.Add(recvTime, uint16(k), []CubeView{view})
	}

	updates, ok := b.GetViewUpdate(1.0, 0.1)
	if !ok {
		t.Fatal("expected a valid view update at render_time=0.9")
	}
	if !updates[0].Interacting {
		t.Errorf("expected interacting to be taken from next")
	}
}

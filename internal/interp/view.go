// Package interp implements the playout-delayed interpolation buffer: it
// orders out-of-order received snapshots by sequence, defers rendering by
// a fixed playout delay, and linearly interpolates between the two
// snapshots straddling render_time to produce a smooth view.
package interp

import (
	"math"

	"github.com/deltasnap/deltasnap/internal/quantize"
)

// CubeView is one cube's decoded, floating-point view: the interpolation
// buffer works in this space rather than on quantized integers, since a
// render_time between two knots rarely lands exactly on a sample.
type CubeView struct {
	Interacting bool
	Position    [3]float64
	Orientation [4]float64 // x, y, z, w — normalized
}

// FromCube decodes a quantized cube into its floating-point view.
func FromCube(c quantize.Cube, cfg quantize.Config) CubeView {
	x, y, z, w := quantize.DecodeQuat(c.Orientation, cfg.OrientationBits)
	return CubeView{
		Interacting: c.Interacting,
		Position:    [3]float64{float64(c.PosX), float64(c.PosY), float64(c.PosZ)},
		Orientation: [4]float64{x, y, z, w},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// nlerp returns the normalized linear interpolation between a and b at
// fraction t, flipping b's sign first if that shortens the path — the
// standard substitute for slerp when the source uses nlerp (spec §4.6
// permits either).
func nlerp(a, b [4]float64, t float64) [4]float64 {
	dot := a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
	if dot < 0 {
		b = [4]float64{-b[0], -b[1], -b[2], -b[3]}
	}
	var out [4]float64
	for i := range out {
		out[i] = a[i] + (b[i]-a[i])*t
	}
	n := math.Sqrt(out[0]*out[0] + out[1]*out[1] + out[2]*out[2] + out[3]*out[3])
	if n > 0 {
		for i := range out {
			out[i] /= n
		}
	}
	return out
}

// lerpCube interpolates position linearly and orientation via nlerp;
// interacting is taken from next, per spec.
func lerpCube(prev, next CubeView, t float64) CubeView {
	var pos [3]float64
	for i := range pos {
		pos[i] = prev.Position[i] + (next.Position[i]-prev.Position[i])*t
	}
	return CubeView{
		Interacting: next.Interacting,
		Position:    pos,
		Orientation: nlerp(prev.Orientation, next.Orientation, t),
	}
}

package quantize

import (
	"math"
	"testing"

	"github.com/deltasnap/deltasnap/internal/bits"
)

func normalize(x, y, z, w float64) (float64, float64, float64, float64) {
	n := math.Sqrt(x*x + y*y + z*z + w*w)
	return x / n, y / n, z / n, w / n
}

func TestQuatRoundTripAngleBound(t *testing.T) {
	const orientationBits = 9
	maxAngle := math.Pi / math.Pow(2, float64(orientationBits-1))

	cases := [][4]float64{
		{0, 0, 0, 1},
		{1, 0, 0, 0},
		{0.5, 0.5, 0.5, 0.5},
		{0.1, 0.2, 0.3, 0.9},
		{-0.2, 0.4, -0.6, 0.6},
	}
	for _, c := range cases {
		x, y, z, w := normalize(c[0], c[1], c[2], c[3])
		q := EncodeQuat(x, y, z, w, orientationBits)
		dx, dy, dz, dw := DecodeQuat(q, orientationBits)

		dot := x*dx + y*dy + z*dz + w*dw
		if dot > 1 {
			dot = 1
		}
		if dot < -1 {
			dot = -1
		}
		angle := 2 * math.Acos(math.Abs(dot))
		if angle > maxAngle+1e-9 {
			t.Errorf("case %v: angle %.6f exceeds bound %.6f", c, angle, maxAngle)
		}
	}
}

func TestQuatWireRoundTrip(t *testing.T) {
	x, y, z, w := normalize(0.3, -0.4, 0.5, 0.7)
	q := EncodeQuat(x, y, z, w, 9)

	w1 := bits.NewWriter(nil)
	if err := SerializeQuat(w1, &q, 9); err != nil {
		t.Fatal(err)
	}

	r := bits.NewReader(w1.Bytes(), nil)
	var got Quat
	if err := SerializeQuat(r, &got, 9); err != nil {
		t.Fatal(err)
	}
	if got != q {
		t.Errorf("got %+v want %+v", got, q)
	}
}

func TestCubeAbsoluteRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cube := Cube{
		Interacting: true,
		PosX:        100,
		PosY:        -200,
		PosZ:        50,
		Orientation: EncodeQuat(0, 0, 0, 1, cfg.OrientationBits),
	}

	w := bits.NewWriter(nil)
	if err := SerializeCubeAbsolute(w, &cube, cfg); err != nil {
		t.Fatal(err)
	}

	r := bits.NewReader(w.Bytes(), nil)
	var got Cube
	if err := SerializeCubeAbsolute(r, &got, cfg); err != nil {
		t.Fatal(err)
	}
	if got != cube {
		t.Errorf("got %+v want %+v", got, cube)
	}
}

package quantize

// Config holds the constants that must be identical on both peers for the
// cube quantization scheme to agree: units-per-meter scale, the xy/z
// position bounds it multiplies against, and the quaternion component bit
// width.
type Config struct {
	UnitsPerMeter   int
	PositionBoundXY int
	PositionBoundZ  int
	OrientationBits int
}

// DefaultConfig mirrors the constants the original demo shipped with.
func DefaultConfig() Config {
	return Config{
		UnitsPerMeter:   256,
		PositionBoundXY: 256,
		PositionBoundZ:  32,
		OrientationBits: 9,
	}
}

// Bxy is the inclusive position bound for the x and y axes.
func (c Config) Bxy() int { return c.UnitsPerMeter * c.PositionBoundXY }

// Bz is the inclusive position bound for the z axis.
func (c Config) Bz() int { return c.UnitsPerMeter * c.PositionBoundZ }

// Cube is one quantized rigid-object slot in a Snapshot. Two cubes compare
// equal iff every field compares equal — delta encoding's sole definition
// of "changed".
type Cube struct {
	Interacting bool
	PosX        int
	PosY        int
	PosZ        int
	Orientation Quat
}

// SerializeCubeAbsolute writes or reads the full (non-delta) form of a
// cube: interacting flag, three absolute positions, full quaternion.
func SerializeCubeAbsolute(s stream, cube *Cube, cfg Config) error {
	if err := s.SerializeBool(&cube.Interacting); err != nil {
		return err
	}
	if err := s.SerializeInt(&cube.PosX, -cfg.Bxy(), cfg.Bxy()); err != nil {
		return err
	}
	if err := s.SerializeInt(&cube.PosY, -cfg.Bxy(), cfg.Bxy()); err != nil {
		return err
	}
	if err := s.SerializeInt(&cube.PosZ, 0, cfg.Bz()); err != nil {
		return err
	}
	return SerializeQuat(s, &cube.Orientation, cfg.OrientationBits)
}

package delta

import (
	"errors"

	"github.com/deltasnap/deltasnap/internal/bits"
	"github.com/deltasnap/deltasnap/internal/quantize"
)

// ErrInvalidMode is returned by SerializeBody for a delta_mode outside
// [0,4] — a ProtocolViolation per spec §7.
var ErrInvalidMode = errors.New("delta: invalid mode")

func writeSide(s bits.Stream) bool { return s.Mode() != bits.ModeReading }
func reading(s bits.Stream) bool   { return s.Mode() == bits.ModeReading }

// SerializeBody writes or reads a DeltaSnapshotPacket's body: the mode
// drives which of the five per-cube encodings is used, but the control
// path through the stream is identical for writing, reading, and
// measuring.
func SerializeBody(s bits.Stream, snap, base *Snapshot, mode Mode, cfg Config) error {
	switch mode {
	case NotChanged:
		return serializeNotChanged(s, snap, base, cfg)
	case ChangedIndex:
		return serializeIndexedDelta(s, snap, base, cfg, cfg.MaxIndexMode1, false,
			func(changed []int) bool { return len(changed) < cfg.MaxIndexMode1 },
			absoluteCubeBody)
	case RelativeIndex:
		return serializeIndexedDelta(s, snap, base, cfg, cfg.MaxIndexMode2, true,
			func(changed []int) bool {
				if len(changed) > cfg.MaxIndexMode2 {
					return false
				}
				return countRelativeIndexBits(changed, cfg.NumCubes) < cfg.RelativeIndexCostLimit
			},
			absoluteCubeBody)
	case RelativePosition, RelativeOrientation:
		return serializeIndexedDelta(s, snap, base, cfg, cfg.MaxIndexMode3, true,
			func(changed []int) bool { return len(changed) < cfg.MaxIndexMode3 },
			relativePositionCubeBody)
	default:
		return ErrInvalidMode
	}
}

// serializeNotChanged is Mode 0, and also the fallback branch every
// higher mode takes when its use_indices decision comes back false.
func serializeNotChanged(s bits.Stream, snap, base *Snapshot, cfg Config) error {
	for i := 0; i < cfg.NumCubes; i++ {
		var changed bool
		if writeSide(s) {
			changed = snap.Cubes[i] != base.Cubes[i]
		}
		if err := s.SerializeBool(&changed); err != nil {
			return err
		}
		if changed {
			if err := quantize.SerializeCubeAbsolute(s, &snap.Cubes[i], cfg.Quantize); err != nil {
				return err
			}
		} else if reading(s) {
			snap.Cubes[i] = base.Cubes[i]
		}
	}
	return nil
}

type cubeBody func(s bits.Stream, cube, base *quantize.Cube, cfg Config) error

func absoluteCubeBody(s bits.Stream, cube, base *quantize.Cube, cfg Config) error {
	return quantize.SerializeCubeAbsolute(s, cube, cfg.Quantize)
}

// relativePositionCubeBody is Mode 3 and Mode 4's per-cube body: position
// is encoded as a small relative offset when it fits the bound, otherwise
// falls back to an absolute position; the quaternion is always absolute
// today (Mode 4's relative-orientation encoding remains a disabled hook,
// matching the source).
func relativePositionCubeBody(s bits.Stream, cube, base *quantize.Cube, cfg Config) error {
	if err := s.SerializeBool(&cube.Interacting); err != nil {
		return err
	}

	r := cfg.RelativePositionBound
	var useRelative bool
	var dx, dy, dz int
	if writeSide(s) {
		dx, dy, dz = cube.PosX-base.PosX, cube.PosY-base.PosY, cube.PosZ-base.PosZ
		useRelative = absInt(dx) <= r && absInt(dy) <= r && absInt(dz) <= r
	}
	if err := s.SerializeBool(&useRelative); err != nil {
		return err
	}

	if useRelative {
		if err := s.SerializeInt(&dx, -r, r); err != nil {
			return err
		}
		if err := s.SerializeInt(&dy, -r, r); err != nil {
			return err
		}
		if err := s.SerializeInt(&dz, -r, r); err != nil {
			return err
		}
		if reading(s) {
			cube.PosX, cube.PosY, cube.PosZ = base.PosX+dx, base.PosY+dy, base.PosZ+dz
		}
	} else {
		q := cfg.Quantize
		if err := s.SerializeInt(&cube.PosX, -q.Bxy(), q.Bxy()); err != nil {
			return err
		}
		if err := s.SerializeInt(&cube.PosY, -q.Bxy(), q.Bxy()); err != nil {
			return err
		}
		if err := s.SerializeInt(&cube.PosZ, 0, q.Bz()); err != nil {
			return err
		}
	}
	return quantize.SerializeQuat(s, &cube.Orientation, cfg.Quantize.OrientationBits)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package delta

import "github.com/deltasnap/deltasnap/internal/quantize"

// Mode is a DeltaSnapshotPacket's delta_mode field.
type Mode int

const (
	NotChanged Mode = iota
	ChangedIndex
	RelativeIndex
	RelativePosition
	RelativeOrientation
)

func (m Mode) String() string {
	switch m {
	case NotChanged:
		return "NOT_CHANGED"
	case ChangedIndex:
		return "CHANGED_INDEX"
	case RelativeIndex:
		return "RELATIVE_INDEX"
	case RelativePosition:
		return "RELATIVE_POSITION"
	case RelativeOrientation:
		return "RELATIVE_ORIENTATION"
	default:
		return "UNKNOWN"
	}
}

// Snapshot is a fixed-count array of quantized cubes. Two snapshots
// compare equal iff every cube compares equal.
type Snapshot struct {
	Cubes []quantize.Cube
}

// NewSnapshot allocates a zero-valued snapshot of numCubes cubes.
func NewSnapshot(numCubes int) *Snapshot {
	return &Snapshot{Cubes: make([]quantize.Cube, numCubes)}
}

// Equal reports whether two snapshots hold identical cubes in identical
// order.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if len(s.Cubes) != len(other.Cubes) {
		return false
	}
	for i := range s.Cubes {
		if s.Cubes[i] != other.Cubes[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{Cubes: make([]quantize.Cube, len(s.Cubes))}
	copy(out.Cubes, s.Cubes)
	return out
}

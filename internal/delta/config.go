// Package delta implements the five-mode delta encoder/decoder: a
// DeltaSnapshotPacket body is serialized by one of five increasingly
// sophisticated routines selected per packet, each sharing the same
// write/read/measure control path through internal/bits so the sender and
// receiver can never fall out of lockstep.
package delta

import "github.com/deltasnap/deltasnap/internal/quantize"

// Config holds the constants that must be identical on both peers for a
// delta body to decode correctly.
type Config struct {
	NumCubes  int
	Quantize  quantize.Config

	// MaxIndexMode1/2/3 are the per-mode thresholds below which a packet
	// switches from per-cube changed bits to an indexed changed list
	// (Mode 2 also takes the indexed list at exactly MaxIndexMode2).
	// Mode 4 shares Mode 3's threshold — spec treats its index layer as
	// identical to Mode 3's.
	MaxIndexMode1 int
	MaxIndexMode2 int
	MaxIndexMode3 int

	// RelativeIndexCostLimit is the estimated-bit-cost ceiling Mode 2
	// checks before committing to the indexed branch, on top of the
	// MaxIndexMode2 count ceiling.
	RelativeIndexCostLimit int

	// RelativePositionBound is the per-axis offset magnitude (R in
	// spec's §4.4) within which Mode 3/4 encode a changed position
	// relatively instead of falling back to an absolute position.
	RelativePositionBound int
}

// DefaultConfig mirrors the thresholds fixed by the original demo.
func DefaultConfig() Config {
	return Config{
		NumCubes:               256,
		Quantize:               quantize.DefaultConfig(),
		MaxIndexMode1:          89,
		MaxIndexMode2:          255,
		MaxIndexMode3:          126,
		RelativeIndexCostLimit: 900,
		RelativePositionBound:  1023,
	}
}

package delta

import "github.com/deltasnap/deltasnap/internal/bits"

// relative-index prefix code: the gap between two successive changed
// indices is coded with a short tag naming one of five width tiers, each
// wider than the last, terminated by a fourth "continue" bit that instead
// flags an escape to a full-width raw gap. This fixes the shape spec.md
// sketches (short tag for small gaps, escalating, final tag reserved for
// an escape) into one concrete, bit-exact table — the original's own
// table wasn't recoverable from the retrieved source, so both peers here
// agree on this one instead.
//
// tier 0: gap in [0,3]     tag "0"     (1 bit)  + 2-bit payload
// tier 1: gap in [4,19]    tag "10"    (2 bits) + 4-bit payload
// tier 2: gap in [20,83]   tag "110"   (3 bits) + 6-bit payload
// tier 3: gap in [84,339]  tag "1110"  (4 bits) + 8-bit payload
// tier 4: gap >= 340       tag "1111"  (4 bits) + full-width raw gap
var relTierBounds = [4][2]int{
	{0, 3},
	{4, 19},
	{20, 83},
	{84, 339},
}

func relTierFor(gap int) int {
	for tier, bound := range relTierBounds {
		if gap <= bound[1] {
			return tier
		}
	}
	return 4
}

// relTierPayloadMax returns the maximum value the payload field for tier
// can hold, and the gap value that payload 0 represents.
func relTierPayloadMax(tier, numCubes int) (base, max int) {
	if tier == 4 {
		return 0, numCubes - 1
	}
	b := relTierBounds[tier]
	return b[0], b[1] - b[0]
}

// serializeIndexRelative writes or reads one relative-index gap using the
// tiered prefix code above.
func serializeIndexRelative(s bits.Stream, gap *int, numCubes int) error {
	writing := s.Mode() != bits.ModeReading

	var tier int
	if writing {
		tier = relTierFor(*gap)
	}

	for level := 0; level < 4; level++ {
		var cont bool
		if writing {
			cont = tier > level
		}
		if err := s.SerializeBool(&cont); err != nil {
			return err
		}
		if !writing {
			if !cont {
				tier = level
				break
			}
			tier = level + 1
		}
		if writing && !cont {
			break
		}
	}

	base, max := relTierPayloadMax(tier, numCubes)
	var payload int
	if writing {
		payload = *gap - base
	}
	if err := s.SerializeInt(&payload, 0, max); err != nil {
		return err
	}
	if !writing {
		*gap = base + payload
	}
	return nil
}

// bitsForGap returns the exact bit cost serializeIndexRelative would emit
// for gap, without touching a stream — used by countRelativeIndexBits.
func bitsForGap(gap, numCubes int) int {
	tier := relTierFor(gap)
	tagBits := tier + 1
	if tier == 4 {
		tagBits = 4
	}
	_, max := relTierPayloadMax(tier, numCubes)
	return tagBits + bits.BitsRequired(0, max)
}

// countRelativeIndexBits estimates the total bit cost of encoding changed
// (ascending cube indices) with one absolute first index followed by
// relative gaps — the cost Mode 2 compares against its 900-bit ceiling
// before committing to the indexed branch.
func countRelativeIndexBits(changed []int, numCubes int) int {
	if len(changed) == 0 {
		return 0
	}
	total := bits.BitsRequired(0, numCubes-1)
	for k := 1; k < len(changed); k++ {
		gap := changed[k] - changed[k-1] - 1
		total += bitsForGap(gap, numCubes)
	}
	return total
}

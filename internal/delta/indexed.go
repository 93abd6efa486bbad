package delta

import "github.com/deltasnap/deltasnap/internal/bits"

// serializeIndexedDelta is the shared body of Modes 1 through 4: compute
// the changed set, decide whether to name indices explicitly, and if so
// walk them in ascending order — either as plain absolute indices (Mode
// 1) or as a first absolute index followed by relative gaps (Modes 2-4,
// when useRelative is set). Any mode whose decide() comes back false
// falls back to Mode 0's per-cube changed bits, exactly as spec.md
// prescribes for every indexed mode.
func serializeIndexedDelta(
	s bits.Stream,
	snap, base *Snapshot,
	cfg Config,
	maxIndex int,
	useRelative bool,
	decide func(changed []int) bool,
	body cubeBody,
) error {
	var changed []int
	if writeSide(s) {
		for i := 0; i < cfg.NumCubes; i++ {
			if snap.Cubes[i] != base.Cubes[i] {
				changed = append(changed, i)
			}
		}
	}

	var useIndices bool
	if writeSide(s) {
		useIndices = decide(changed)
	}
	if err := s.SerializeBool(&useIndices); err != nil {
		return err
	}
	if !useIndices {
		return serializeNotChanged(s, snap, base, cfg)
	}

	var count int
	if writeSide(s) {
		count = len(changed)
	}
	if err := s.SerializeInt(&count, 0, maxIndex+1); err != nil {
		return err
	}
	if count > cfg.NumCubes {
		return bits.ErrRange
	}

	var touched []bool
	if reading(s) {
		touched = make([]bool, cfg.NumCubes)
	}

	prevIdx := 0
	for k := 0; k < count; k++ {
		var idx int
		if useRelative && k > 0 {
			var gap int
			if writeSide(s) {
				gap = changed[k] - changed[k-1] - 1
			}
			if err := serializeIndexRelative(s, &gap, cfg.NumCubes); err != nil {
				return err
			}
			idx = prevIdx + 1 + gap
		} else {
			if writeSide(s) {
				idx = changed[k]
			}
			if err := s.SerializeInt(&idx, 0, cfg.NumCubes-1); err != nil {
				return err
			}
		}
		if idx < 0 || idx >= cfg.NumCubes {
			return bits.ErrRange
		}
		prevIdx = idx

		if reading(s) {
			touched[idx] = true
		}
		if err := body(s, &snap.Cubes[idx], &base.Cubes[idx], cfg); err != nil {
			return err
		}
	}

	if reading(s) {
		for i := 0; i < cfg.NumCubes; i++ {
			if !touched[i] {
				snap.Cubes[i] = base.Cubes[i]
			}
		}
	}
	return nil
}

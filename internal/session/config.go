// Package session implements the sender/receiver glue that ties the
// sliding window, sequence buffer, delta encoder/decoder, and
// interpolation buffer into one per-connection pipeline: send pacing,
// ack handling, base selection, and packet dispatch.
package session

import (
	"errors"
	"fmt"

	"github.com/deltasnap/deltasnap/internal/delta"
)

// Config holds everything a Session needs that must be agreed between
// both peers before the session starts.
type Config struct {
	Delta           delta.Config
	PlayoutDelay    float64
	SendRate        float64
	MaxSnapshots    int
	InitialSnapshot *delta.Snapshot
	DeltaMode       delta.Mode

	// CompressInitial wires a zstd frame around the one packet shape
	// large enough for entropy coding to pay off: a full absolute
	// snapshot sent with initial=true. Delta packets against a real
	// base stay uncompressed — they are already small and
	// latency-sensitive.
	CompressInitial bool
}

// DefaultConfig mirrors the original demo's session pacing.
func DefaultConfig() Config {
	cfg := delta.DefaultConfig()
	return Config{
		Delta:           cfg,
		PlayoutDelay:    0.1,
		SendRate:        10,
		MaxSnapshots:    256,
		InitialSnapshot: delta.NewSnapshot(cfg.NumCubes),
		DeltaMode:       delta.RelativeIndex,
		CompressInitial: true,
	}
}

var (
	// ErrInvalidConfig is returned by New when a Config violates the
	// Configuration error class of spec §7: negative bounds, zero send
	// rate. The session refuses to start.
	ErrInvalidConfig = errors.New("session: invalid configuration")
)

// Validate reports the first Configuration-class error found in cfg, if
// any.
func (c Config) Validate() error {
	switch {
	case c.Delta.NumCubes <= 0:
		return fmt.Errorf("%w: num_cubes must be positive", ErrInvalidConfig)
	case c.PlayoutDelay < 0:
		return fmt.Errorf("%w: playout_delay must be non-negative", ErrInvalidConfig)
	case c.SendRate <= 0:
		return fmt.Errorf("%w: send_rate must be positive", ErrInvalidConfig)
	case c.MaxSnapshots <= 0:
		return fmt.Errorf("%w: max_snapshots must be positive", ErrInvalidConfig)
	case c.InitialSnapshot == nil:
		return fmt.Errorf("%w: initial snapshot must be set", ErrInvalidConfig)
	case c.InitialSnapshot != nil && len(c.InitialSnapshot.Cubes) != c.Delta.NumCubes:
		return fmt.Errorf("%w: initial snapshot cube count does not match delta.NumCubes", ErrInvalidConfig)
	case c.DeltaMode < delta.NotChanged || c.DeltaMode > delta.RelativeOrientation:
		return fmt.Errorf("%w: delta_mode out of range", ErrInvalidConfig)
	}
	return nil
}

// Package simdemo is the external collaborator spec.md §1 carves out of
// the core: a toy rigid-body simulation that produces the snapshots a
// session sends. It has no business being part of the delta-compression
// core itself — a real game would plug in its own physics here — but a
// demo binary needs something to sample, so this is a small bouncing-
// cubes integrator exposed through the same sample_snapshot(sink)
// callback shape spec.md's sender side expects.
package simdemo

import (
	"math"
	"math/rand"

	"github.com/deltasnap/deltasnap/internal/delta"
	"github.com/deltasnap/deltasnap/internal/quantize"
)

// body is one simulated cube's continuous (unquantized) state.
type body struct {
	pos         [3]float64
	vel         [3]float64
	orientation [4]float64 // x,y,z,w
	angularVel  float64
	interacting bool
	interactT   float64
}

// World steps numCubes independent bouncing bodies inside the box
// implied by cfg's position bounds, in meters.
type World struct {
	bodies []body
	cfg    quantize.Config
	rng    *rand.Rand
	time   float64
}

// NewWorld seeds numCubes bodies at random positions and velocities
// inside cfg's bounds. rng may be nil, in which case a fixed seed is
// used so demo runs are reproducible by default.
func NewWorld(numCubes int, cfg quantize.Config, rng *rand.Rand) *World {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	boundXY := float64(cfg.PositionBoundXY)
	boundZ := float64(cfg.PositionBoundZ)

	bodies := make([]body, numCubes)
	for i := range bodies {
		bodies[i] = body{
			pos: [3]float64{
				(rng.Float64()*2 - 1) * boundXY * 0.5,
				(rng.Float64()*2 - 1) * boundXY * 0.5,
				rng.Float64() * boundZ,
			},
			vel: [3]float64{
				(rng.Float64()*2 - 1) * 2,
				(rng.Float64()*2 - 1) * 2,
				(rng.Float64()*2 - 1) * 2,
			},
			orientation: [4]float64{0, 0, 0, 1},
			angularVel:  rng.Float64()*2 - 1,
		}
	}
	return &World{bodies: bodies, cfg: cfg, rng: rng}
}

// Step integrates every body forward by dt seconds: linear motion with
// a reflective bounce off the configured bounds, and a constant-rate
// spin around the z axis standing in for orientation change. Every few
// seconds a body has a chance to toggle its interacting flag, the way
// the original demo marked cubes a player was currently holding.
func (w *World) Step(dt float64) {
	w.time += dt
	boundXY := float64(w.cfg.PositionBoundXY)
	boundZ := float64(w.cfg.PositionBoundZ)

	for i := range w.bodies {
		b := &w.bodies[i]
		for axis := 0; axis < 2; axis++ {
			b.pos[axis] += b.vel[axis] * dt
			if b.pos[axis] > boundXY*0.5 || b.pos[axis] < -boundXY*0.5 {
				b.vel[axis] = -b.vel[axis]
			}
		}
		b.pos[2] += b.vel[2] * dt
		if b.pos[2] > boundZ || b.pos[2] < 0 {
			b.vel[2] = -b.vel[2]
		}

		theta := b.angularVel * dt
		spin := [4]float64{0, 0, math.Sin(theta / 2), math.Cos(theta / 2)}
		b.orientation = quatMultiply(spin, b.orientation)

		b.interactT -= dt
		if b.interactT <= 0 {
			b.interactT = 1 + w.rng.Float64()*3
			if w.rng.Float64() < 0.3 {
				b.interacting = !b.interacting
			}
		}
	}
}

// quatMultiply returns a*b in (x,y,z,w) order.
func quatMultiply(a, b [4]float64) [4]float64 {
	ax, ay, az, aw := a[0], a[1], a[2], a[3]
	bx, by, bz, bw := b[0], b[1], b[2], b[3]
	return [4]float64{
		aw*bx + ax*bw + ay*bz - az*by,
		aw*by - ax*bz + ay*bw + az*bx,
		aw*bz + ax*by - ay*bx + az*bw,
		aw*bw - ax*bx - ay*by - az*bz,
	}
}

// SampleSnapshot builds a *delta.Snapshot quantizing the world's current
// continuous state and passes it to sink, matching spec.md §1's
// sample_snapshot(sink) callback contract for the sender side.
func (w *World) SampleSnapshot(sink func(*delta.Snapshot)) {
	snap := delta.NewSnapshot(len(w.bodies))
	unitsPerMeter := float64(w.cfg.UnitsPerMeter)

	for i, b := range w.bodies {
		q := quantize.EncodeQuat(b.orientation[0], b.orientation[1], b.orientation[2], b.orientation[3], w.cfg.OrientationBits)
		snap.Cubes[i] = quantize.Cube{
			Interacting: b.interacting,
			PosX:        clampInt(int(b.pos[0]*unitsPerMeter), -w.cfg.Bxy(), w.cfg.Bxy()),
			PosY:        clampInt(int(b.pos[1]*unitsPerMeter), -w.cfg.Bxy(), w.cfg.Bxy()),
			PosZ:        clampInt(int(b.pos[2]*unitsPerMeter), 0, w.cfg.Bz()),
			Orientation: q,
		}
	}
	sink(snap)
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

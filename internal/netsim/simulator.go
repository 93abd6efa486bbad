// Package netsim implements an in-process Interface that stands in for a
// lossy, jittered datagram link between two peers: sent packets sit in a
// ring of slots until their simulated dequeue time arrives, at which point
// receive() hands back the earliest-due one.
package netsim

import (
	"fmt"
	"math/rand"

	"github.com/dustin/go-humanize"

	"github.com/deltasnap/deltasnap/internal/metrics"
	"github.com/deltasnap/deltasnap/internal/netaddr"
)

// State is one configured latency/jitter/loss profile the simulator can
// be in. Latency and Jitter are seconds; PacketLoss is a percentage in
// [0,100].
type State struct {
	Latency    float64
	Jitter     float64
	PacketLoss float64
}

// Config holds the simulator's structural parameters.
type Config struct {
	NumPackets    int
	StateChance   int
	MaxPacketSize int
}

// DefaultConfig mirrors the original demo's simulator defaults.
func DefaultConfig() Config {
	return Config{NumPackets: 1024, StateChance: 10, MaxPacketSize: 1400}
}

// Packet is one buffered datagram: an address, a payload, and whether it
// must be excluded from bandwidth accounting (the ack-packet path).
type Packet struct {
	Address          netaddr.Address
	Payload          []byte
	BandwidthExclude bool
}

type slot struct {
	occupied     bool
	packetNumber uint64
	dequeueTime  float64
	packet       Packet
}

type bandwidthSample struct {
	time     float64
	bytes    int
	excluded bool
}

// bandwidthWindowSeconds is the rolling window bandwidth accounting
// reports over.
const bandwidthWindowSeconds = 1.0

// Simulator is the in-process lossy/jittered delivery link. It takes an
// explicit *rand.Rand so tests (and the S6 scenario) are reproducible —
// the original's own BSD-sockets tests take an injected RNG for the same
// reason.
type Simulator struct {
	cfg     Config
	states  []State
	current State
	rng     *rand.Rand

	slots            []slot
	nextPacketNumber uint64
	now              float64

	bwSamples []bandwidthSample
	metrics   *metrics.Collector
}

// New builds a Simulator. If rng is nil, a default deterministic source
// is used.
func New(cfg Config, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Simulator{cfg: cfg, rng: rng, slots: make([]slot, cfg.NumPackets)}
}

// SetStates configures the list of profiles Update may switch between.
// At least one state must be configured before Update will vary latency,
// jitter, or loss.
func (s *Simulator) SetStates(states []State) {
	s.states = states
	if len(states) > 0 {
		s.current = states[0]
	}
}

// SetMetrics attaches a collector Update should push the rolling-window
// bandwidth gauge to. collector may be nil to disable reporting.
func (s *Simulator) SetMetrics(collector *metrics.Collector) {
	s.metrics = collector
}

// Send buffers payload for delivery to addr, subject to the current
// state's loss probability, latency, and jitter. bandwidthExclude marks
// traffic (the ack-packet path) that must not count toward the reported
// bandwidth figure.
func (s *Simulator) Send(addr netaddr.Address, payload []byte, bandwidthExclude bool) {
	s.bwSamples = append(s.bwSamples, bandwidthSample{time: s.now, bytes: len(payload), excluded: bandwidthExclude})

	if s.rng.Float64()*100 <= s.current.PacketLoss {
		return
	}

	delay := s.current.Latency + (s.rng.Float64()*2-1)*s.current.Jitter
	if delay < 0 {
		delay = 0
	}

	idx := int(s.nextPacketNumber % uint64(s.cfg.NumPackets))
	s.slots[idx] = slot{
		occupied:     true,
		packetNumber: s.nextPacketNumber,
		dequeueTime:  s.now + delay,
		packet:       Packet{Address: addr, Payload: payload, BandwidthExclude: bandwidthExclude},
	}
	s.nextPacketNumber++
}

// Receive returns the buffered packet with the smallest dequeue time at
// or before now, clearing its slot. ok is false if no slot is eligible.
// Delivery order therefore follows dequeue time, not send time — this is
// how jitter reorders packets.
func (s *Simulator) Receive() (Packet, bool) {
	best := -1
	var bestTime float64
	for i := range s.slots {
		if !s.slots[i].occupied || s.slots[i].dequeueTime > s.now {
			continue
		}
		if best == -1 || s.slots[i].dequeueTime < bestTime {
			best = i
			bestTime = s.slots[i].dequeueTime
		}
	}
	if best == -1 {
		return Packet{}, false
	}
	pkt := s.slots[best].packet
	s.slots[best] = slot{}
	return pkt, true
}

// Update advances the simulator clock by deltaTime and, with probability
// 1/StateChance, switches to a new uniformly chosen State.
func (s *Simulator) Update(deltaTime float64) {
	s.now += deltaTime

	cutoff := s.now - bandwidthWindowSeconds
	i := 0
	for i < len(s.bwSamples) && s.bwSamples[i].time < cutoff {
		i++
	}
	s.bwSamples = s.bwSamples[i:]

	if s.metrics != nil {
		s.metrics.BandwidthBytesPerSec.Set(s.BandwidthBytesPerSecond())
	}

	if len(s.states) == 0 || s.cfg.StateChance <= 0 {
		return
	}
	if s.rng.Intn(s.cfg.StateChance) == 0 {
		s.current = s.states[s.rng.Intn(len(s.states))]
	}
}

// BandwidthBytesPerSecond reports bytes-sent over the rolling window,
// excluding any packet marked BandwidthExclude.
func (s *Simulator) BandwidthBytesPerSecond() float64 {
	total := 0
	for _, smp := range s.bwSamples {
		if !smp.excluded {
			total += smp.bytes
		}
	}
	return float64(total) / bandwidthWindowSeconds
}

// TotalBandwidthBytesPerSecond reports bytes-sent over the rolling
// window including excluded (ack) traffic, for comparison against
// BandwidthBytesPerSecond.
func (s *Simulator) TotalBandwidthBytesPerSecond() float64 {
	total := 0
	for _, smp := range s.bwSamples {
		total += smp.bytes
	}
	return float64(total) / bandwidthWindowSeconds
}

// State returns the simulator's currently active profile.
func (s *Simulator) State() State { return s.current }

// BandwidthSummary renders the acked-vs-total bandwidth split as a
// human-readable string, the net-of-control-traffic figure the original
// demo's HUD showed next to the raw send rate.
func (s *Simulator) BandwidthSummary() string {
	return fmt.Sprintf("%s/s real, %s/s total",
		humanize.Bytes(uint64(s.BandwidthBytesPerSecond())),
		humanize.Bytes(uint64(s.TotalBandwidthBytesPerSecond())))
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/deltasnap/deltasnap/internal/bits"
	"github.com/deltasnap/deltasnap/internal/delta"
	"github.com/deltasnap/deltasnap/internal/interp"
	"github.com/deltasnap/deltasnap/internal/metrics"
	"github.com/deltasnap/deltasnap/internal/protocol"
	"github.com/deltasnap/deltasnap/internal/quantize"
	"github.com/deltasnap/deltasnap/internal/seqbuf"
)

// State is a Session's lifecycle stage.
type State int

const (
	// StateStarting is the state before the first packet has been sent
	// or received — no ack cursor, no base to delta against.
	StateStarting State = iota
	// StateRunning is entered on the first successful SenderTick or
	// ReceiverTick and persists for the rest of the session's life.
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// ErrMissingBase is returned by ReceiverTick when a non-initial packet
// names a BaseSequence the sequence buffer no longer holds — the peer
// fell far enough behind (or packets arrived far enough out of order)
// that the referenced base was already evicted.
var ErrMissingBase = errors.New("session: base sequence not found")

// isProtocolViolation reports whether err is one of spec §7's
// ProtocolViolation-class failures — a range failure on a mandatory field
// or an impossible enum value — as opposed to a transient truncation or
// a missing base snapshot.
func isProtocolViolation(err error) bool {
	return errors.Is(err, bits.ErrRange) || errors.Is(err, delta.ErrInvalidMode)
}

// Session is one full-duplex peer of the delta-snapshot protocol: it
// owns a sender-side sliding window of everything it has sent, a
// receiver-side sequence buffer of everything it has decoded, and the
// interpolation buffer a caller drains for smoothed view state.
type Session struct {
	ID  uuid.UUID
	cfg Config

	mu     sync.Mutex
	state  State
	window *seqbuf.SlidingWindow[*delta.Snapshot]
	buffer *seqbuf.SequenceBuffer[*delta.Snapshot]
	interp *interp.Buffer

	metrics *metrics.Collector
	tracer  trace.Tracer
}

// New builds a Session from cfg. collector and tracer may both be nil —
// every call site below guards against a nil Collector, and a nil
// Tracer falls back to trace.NewNoopTracerProvider's tracer.
func New(cfg Config, collector *metrics.Collector, tracer trace.Tracer) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("deltasnap/session")
	}
	return &Session{
		ID:      uuid.New(),
		cfg:     cfg,
		state:   StateStarting,
		window:  seqbuf.NewSlidingWindow[*delta.Snapshot](cfg.MaxSnapshots),
		buffer:  seqbuf.NewSequenceBuffer[*delta.Snapshot](cfg.MaxSnapshots),
		interp:  interp.New(cfg.MaxSnapshots),
		metrics: collector,
		tracer:  tracer,
	}, nil
}

// State reports the session's current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SenderTick encodes current as the next outgoing DeltaSnapshotPacket,
// choosing its base from the latest acked sequence (or cfg.InitialSnapshot,
// marked Initial, before any ack has arrived or once the acked sequence
// has been overwritten in the sliding window), compresses it
// when the packet is initial and cfg.CompressInitial is set, and records
// the snapshot in the sliding window under the sequence it allocates.
func (s *Session) SenderTick(ctx context.Context, current *delta.Snapshot) ([]byte, uint16, error) {
	ctx, span := s.tracer.Start(ctx, "session.SenderTick")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	seq, slot := s.window.Insert()
	*slot = current.Clone()

	pkt := &protocol.DeltaSnapshotPacket{Sequence: seq, Snapshot: *slot}

	base := s.cfg.InitialSnapshot
	if ackSeq, ok := s.window.AckSeq(); ok {
		if acked, found := s.window.Get(ackSeq); found {
			base = acked
			pkt.BaseSequence = ackSeq
		} else {
			pkt.Initial = true
		}
	} else {
		pkt.Initial = true
	}
	pkt.DeltaMode = s.cfg.DeltaMode

	buf, err := protocol.EncodeSnapshot(pkt, base, s.cfg.Delta)
	if err != nil {
		return nil, 0, fmt.Errorf("session: encode: %w", err)
	}
	buf = frameEncode(buf, pkt.Initial && s.cfg.CompressInitial)

	s.state = StateRunning
	if s.metrics != nil {
		s.metrics.PacketsSent.Inc()
		if ackSeq, ok := s.window.AckSeq(); ok {
			s.metrics.WindowOccupancy.Set(float64(uint16(seq - ackSeq)))
		} else {
			s.metrics.WindowOccupancy.Set(float64(seq) + 1)
		}
	}
	span.SetAttributes(
		attribute.Int64("session.sequence", int64(seq)),
		attribute.Bool("session.initial", pkt.Initial),
		attribute.Int("session.delta_mode", int(pkt.DeltaMode)),
		attribute.Int("session.bytes", len(buf)),
	)
	return buf, seq, nil
}

// HandleAck applies a decoded DeltaAckPacket to the sender-side sliding
// window's ack cursor. Ack names the latest sequence the peer's receiver
// has successfully decoded, so later SenderTick calls can delta against
// it.
func (s *Session) HandleAck(buf []byte) error {
	buf, err := frameDecode(buf)
	if err != nil {
		return fmt.Errorf("session: frame decode ack: %w", err)
	}
	ack, err := protocol.DecodeAck(buf)
	if err != nil {
		return fmt.Errorf("session: decode ack: %w", err)
	}
	s.mu.Lock()
	s.window.Ack(ack.Ack)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.PacketsAcked.Inc()
	}
	return nil
}

// ReceiverTick decodes an incoming DeltaSnapshotPacket, resolving its
// base from the sequence buffer (or cfg.InitialSnapshot, for an initial
// packet), feeds the decoded cubes into the interpolation buffer, and
// returns the ack packet bytes the caller should send back.
func (s *Session) ReceiverTick(ctx context.Context, now float64, buf []byte) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "session.ReceiverTick")
	defer span.End()

	buf, err := frameDecode(buf)
	if err != nil {
		if s.metrics != nil {
			s.metrics.PacketsDropped.WithLabelValues("malformed").Inc()
		}
		return nil, fmt.Errorf("session: frame decode: %w", err)
	}

	env, r, err := protocol.PeekEnvelope(buf)
	if err != nil {
		if s.metrics != nil {
			s.metrics.PacketsDropped.WithLabelValues("malformed").Inc()
			if isProtocolViolation(err) {
				s.metrics.ProtocolViolations.Inc()
			}
		}
		return nil, fmt.Errorf("session: peek envelope: %w", err)
	}

	s.mu.Lock()
	base := s.cfg.InitialSnapshot
	if !env.Initial {
		found, ok := s.buffer.Find(env.BaseSequence)
		if !ok {
			s.mu.Unlock()
			if s.metrics != nil {
				s.metrics.PacketsDropped.WithLabelValues("missing_base").Inc()
			}
			return nil, ErrMissingBase
		}
		base = found
	}

	if err := protocol.DecodeBody(r, env, base, s.cfg.Delta); err != nil {
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.PacketsDropped.WithLabelValues("malformed").Inc()
			if isProtocolViolation(err) {
				s.metrics.ProtocolViolations.Inc()
			}
		}
		return nil, fmt.Errorf("session: decode body: %w", err)
	}

	slot, fresh := s.buffer.Insert(env.Sequence)
	if fresh {
		*slot = env.Snapshot
	}
	s.state = StateRunning
	if s.metrics != nil {
		s.metrics.SequenceBufferOccupancy.Set(float64(s.buffer.Count()))
	}
	s.mu.Unlock()

	views := make([]interp.CubeView, len(env.Snapshot.Cubes))
	for i, c := range env.Snapshot.Cubes {
		views[i] = interp.FromCube(c, s.cfg.Delta.Quantize)
	}
	s.interp.Add(now, env.Sequence, views)

	span.SetAttributes(
		attribute.Int64("session.sequence", int64(env.Sequence)),
		attribute.Bool("session.initial", env.Initial),
	)
	return frameEncode(protocol.EncodeAck(&protocol.DeltaAckPacket{Ack: env.Sequence}), false), nil
}

// GetViewUpdate drains the interpolation buffer at render_time =
// now-playout_delay, returning the smoothed cube views a renderer should
// draw this frame.
func (s *Session) GetViewUpdate(now float64) ([]interp.CubeView, bool) {
	return s.interp.GetViewUpdate(now, s.cfg.PlayoutDelay)
}

// QuantizeConfig exposes the session's quantization bounds, mostly
// useful to a caller building synthetic cubes for a demo sender.
func (s *Session) QuantizeConfig() quantize.Config {
	return s.cfg.Delta.Quantize
}

// NumCubes exposes the session's configured cube count.
func (s *Session) NumCubes() int {
	return s.cfg.Delta.NumCubes
}

// SetDeltaMode switches the mode SenderTick encodes with, letting an
// operator compare the five modes' bandwidth live against the same
// running simulation, the way the original demo's left/right console
// commands did.
func (s *Session) SetDeltaMode(mode delta.Mode) {
	s.mu.Lock()
	s.cfg.DeltaMode = mode
	s.mu.Unlock()
}

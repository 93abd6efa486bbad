// Package protocol implements the two wire packet types this core
// exposes to an outer framing layer — DeltaSnapshotPacket and
// DeltaAckPacket — plus the envelope encoding around internal/delta's
// mode-specific body. Base resolution (sliding window on the sender side,
// sequence buffer on the receiver side) is the caller's job; this package
// only needs an already-resolved base snapshot to encode or decode.
package protocol

import (
	"github.com/deltasnap/deltasnap/internal/bits"
	"github.com/deltasnap/deltasnap/internal/delta"
)

// PacketType identifies one of the two packet kinds this core's packet
// factory can create.
type PacketType int

const (
	DeltaSnapshotPacketType PacketType = iota
	DeltaAckPacketType
)

func (t PacketType) String() string {
	switch t {
	case DeltaSnapshotPacketType:
		return "DELTA_SNAPSHOT_PACKET"
	case DeltaAckPacketType:
		return "DELTA_ACK_PACKET"
	default:
		return "UNKNOWN_PACKET"
	}
}

// Packet is implemented by DeltaSnapshotPacket and DeltaAckPacket.
type Packet interface {
	Type() PacketType
}

// DeltaSnapshotPacket carries one encoded snapshot delta.
type DeltaSnapshotPacket struct {
	Sequence     uint16
	DeltaMode    delta.Mode
	Initial      bool
	BaseSequence uint16
	Snapshot     *delta.Snapshot
}

func (p *DeltaSnapshotPacket) Type() PacketType { return DeltaSnapshotPacketType }

// DeltaAckPacket carries a single cumulative acknowledgement.
type DeltaAckPacket struct {
	Ack uint16
}

func (p *DeltaAckPacket) Type() PacketType { return DeltaAckPacketType }

// Factory is the create/destroy packet factory spec §6 names as an
// external interface. PeekEnvelope and DecodeAck allocate their
// zero-valued packets through it rather than a bare composite literal, so
// a caller that wants to pool packets (or swap in a different Packet
// implementation for the two known types) has one seam to replace.
// Destroy is a no-op: Go's garbage collector already owns packet
// lifetime, unlike the source's pooled allocator.
type Factory struct{}

func (Factory) Create(t PacketType) (Packet, bool) {
	switch t {
	case DeltaSnapshotPacketType:
		return &DeltaSnapshotPacket{}, true
	case DeltaAckPacketType:
		return &DeltaAckPacket{}, true
	default:
		return nil, false
	}
}

func (Factory) Destroy(Packet) {}

var packetFactory Factory

// serializeEnvelope writes or reads a DeltaSnapshotPacket's fixed header:
// sequence, delta_mode, initial, and base_sequence (when present).
func serializeEnvelope(s bits.Stream, p *DeltaSnapshotPacket) error {
	if err := s.SerializeUint16(&p.Sequence); err != nil {
		return err
	}
	mode := int(p.DeltaMode)
	if err := s.SerializeInt(&mode, 0, 4); err != nil {
		return err
	}
	p.DeltaMode = delta.Mode(mode)
	if err := s.SerializeBool(&p.Initial); err != nil {
		return err
	}
	if !p.Initial {
		if err := s.SerializeUint16(&p.BaseSequence); err != nil {
			return err
		}
	}
	return nil
}

// EncodeSnapshot serializes a DeltaSnapshotPacket against base.
func EncodeSnapshot(p *DeltaSnapshotPacket, base *delta.Snapshot, cfg delta.Config) ([]byte, error) {
	w := bits.NewWriter(nil)
	if err := serializeEnvelope(w, p); err != nil {
		return nil, err
	}
	if err := delta.SerializeBody(w, p.Snapshot, base, p.DeltaMode, cfg); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeSnapshot deserializes a DeltaSnapshotPacket against base.
func DecodeSnapshot(buf []byte, base *delta.Snapshot, cfg delta.Config) (*DeltaSnapshotPacket, error) {
	p, r, err := PeekEnvelope(buf)
	if err != nil {
		return nil, err
	}
	if err := DecodeBody(r, p, base, cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// PeekEnvelope reads a DeltaSnapshotPacket's fixed header only, leaving r
// positioned at the start of the mode-specific body. Callers that must
// resolve a base snapshot from BaseSequence (a receiver's sequence
// buffer lookup) or Initial (the initial snapshot both peers share) split the decode
// this way so that resolution can happen between the two reads.
func PeekEnvelope(buf []byte) (*DeltaSnapshotPacket, *bits.Reader, error) {
	pkt, _ := packetFactory.Create(DeltaSnapshotPacketType)
	p := pkt.(*DeltaSnapshotPacket)
	r := bits.NewReader(buf, nil)
	if err := serializeEnvelope(r, p); err != nil {
		packetFactory.Destroy(p)
		return nil, nil, err
	}
	return p, r, nil
}

// DecodeBody deserializes p's mode-specific body from r against base,
// completing a decode started by PeekEnvelope.
func DecodeBody(r *bits.Reader, p *DeltaSnapshotPacket, base *delta.Snapshot, cfg delta.Config) error {
	p.Snapshot = delta.NewSnapshot(cfg.NumCubes)
	return delta.SerializeBody(r, p.Snapshot, base, p.DeltaMode, cfg)
}

// EncodeAck serializes a DeltaAckPacket.
func EncodeAck(p *DeltaAckPacket) []byte {
	w := bits.NewWriter(nil)
	w.SerializeUint16(&p.Ack)
	return w.Bytes()
}

// DecodeAck deserializes a DeltaAckPacket.
func DecodeAck(buf []byte) (*DeltaAckPacket, error) {
	pkt, _ := packetFactory.Create(DeltaAckPacketType)
	p := pkt.(*DeltaAckPacket)
	r := bits.NewReader(buf, nil)
	if err := r.SerializeUint16(&p.Ack); err != nil {
		packetFactory.Destroy(p)
		return nil, err
	}
	return p, nil
}

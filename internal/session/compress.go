package session

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// frameFlagRaw and frameFlagZstd are the one-byte prefixes every wire
// packet this session sends carries ahead of its DeltaSnapshotPacket or
// DeltaAckPacket bytes, so a receiver never has to guess whether a
// payload is compressed. Only initial packets (a full absolute
// snapshot, the one payload shape large enough for entropy coding to
// earn back its own framing overhead) are ever sent with frameFlagZstd;
// everything else — delta packets against a real base, acks — carries
// frameFlagRaw and costs one byte of overhead for the uniformity.
const (
	frameFlagRaw  byte = 0
	frameFlagZstd byte = 1
)

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Sprintf("session: zstd encoder init: %v", err))
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("session: zstd decoder init: %v", err))
	}
}

// frameEncode prefixes buf with a frame flag, compressing it first when
// compress is set.
func frameEncode(buf []byte, compress bool) []byte {
	if !compress {
		return append([]byte{frameFlagRaw}, buf...)
	}
	out := make([]byte, 1, len(buf)/2+1)
	out[0] = frameFlagZstd
	return encoder.EncodeAll(buf, out)
}

// frameDecode strips the frame flag, decompressing the remainder when it
// carries frameFlagZstd.
func frameDecode(buf []byte) ([]byte, error) {
	if len(buf) < 1 {
		return nil, fmt.Errorf("session: frame: empty buffer")
	}
	switch buf[0] {
	case frameFlagZstd:
		out, err := decoder.DecodeAll(buf[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("session: frame: decode: %w", err)
		}
		return out, nil
	case frameFlagRaw:
		return buf[1:], nil
	default:
		return nil, fmt.Errorf("session: frame: unknown flag %d", buf[0])
	}
}

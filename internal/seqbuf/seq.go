// Package seqbuf implements the two sequence-indexed ring stores the delta
// pipeline is built on: a sender-side SlidingWindow of sent snapshots
// pruned by acks, and a receiver-side SequenceBuffer of decoded snapshots
// used as delta bases. Both use 16-bit wrap-around sequence numbers.
package seqbuf

// SequenceGreaterThan reports whether a is ordered after b under 16-bit
// wrap-around sequence arithmetic.
func SequenceGreaterThan(a, b uint16) bool {
	return (a > b && a-b <= 32768) || (a < b && b-a > 32768)
}

// Package zigzag decodes and encodes the zigzag varint deltas used by PBF's
// dense-node and delta-ref streams. Adapted from the teacher's
// internal/zigzag, which zigzag-codes arbitrary signed integer widths behind
// a generic unsafe cast; our delta fields are always int64, so the generic
// cast is replaced by a direct, safe wrap around protowire's zigzag
// primitives.
package zigzag

import "google.golang.org/protobuf/encoding/protowire"

// Decode converts a zigzag-encoded varint back to a signed int64.
func Decode(v uint64) int64 { return protowire.DecodeZigZag(v) }

// Encode converts a signed int64 to its zigzag varint representation.
func Encode(v int64) uint64 { return protowire.EncodeZigZag(v) }

// DecodeDeltas walks a stream of zigzag deltas and returns the running
// absolute values, e.g. dense-node id/lat/lon streams.
func DecodeDeltas(deltas []int64) []int64 {
	out := make([]int64, len(deltas))
	var cur int64
	for i, d := range deltas {
		cur += d
		out[i] = cur
	}
	return out
}

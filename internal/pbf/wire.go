package pbf

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/conveyal/osmix-sub003/internal/zigzag"
)

// consumePackedVarint decodes a "packed repeated varint" field's payload
// (already extracted via ConsumeBytes) into its component varints.
func consumePackedVarint(b []byte) ([]uint64, error) {
	var out []uint64
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, fmt.Errorf("pbf: malformed packed varint")
		}
		out = append(out, v)
		b = b[n:]
	}
	return out, nil
}

// consumePackedSint64 decodes a packed repeated zigzag-encoded sint64 field.
func consumePackedSint64(b []byte) ([]int64, error) {
	raw, err := consumePackedVarint(b)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(raw))
	for i, v := range raw {
		out[i] = zigzag.Decode(v)
	}
	return out, nil
}

// consumePackedInt32 decodes a packed repeated plain (non-zigzag) int32
// field.
func consumePackedInt32(b []byte) ([]int32, error) {
	raw, err := consumePackedVarint(b)
	if err != nil {
		return nil, err
	}
	out := make([]int32, len(raw))
	for i, v := range raw {
		out[i] = int32(v)
	}
	return out, nil
}

// appendPackedVarint appends a length-prefixed packed varint field.
func appendPackedVarint(buf []byte, num protowire.Number, values []uint64) []byte {
	var payload []byte
	for _, v := range values {
		payload = protowire.AppendVarint(payload, v)
	}
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	buf = protowire.AppendVarint(buf, uint64(len(payload)))
	return append(buf, payload...)
}

// appendPackedSint64 zigzag-encodes and appends a packed sint64 field.
func appendPackedSint64(buf []byte, num protowire.Number, values []int64) []byte {
	zz := make([]uint64, len(values))
	for i, v := range values {
		zz[i] = zigzag.Encode(v)
	}
	return appendPackedVarint(buf, num, zz)
}

// appendPackedInt32 appends a packed plain int32 field.
func appendPackedInt32(buf []byte, num protowire.Number, values []int32) []byte {
	zz := make([]uint64, len(values))
	for i, v := range values {
		zz[i] = uint64(uint32(v))
	}
	return appendPackedVarint(buf, num, zz)
}

package pbf

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/conveyal/osmix-sub003/internal/geo"
	"github.com/conveyal/osmix-sub003/internal/zigzag"
)

// Header mirrors osmix.Header's fields without importing osmix (which would
// create an import cycle, since osmix imports this package).
type Header struct {
	WritingProgram            string
	Source                    string
	ReplicationTimestamp      time.Time
	ReplicationSequenceNumber int64
	ReplicationBaseURL        string
	Bbox                      *geo.Bbox
	RequiredFeatures          []string
	OptionalFeatures          []string
}

func decodeHeaderBlock(data []byte) (Header, error) {
	var h Header
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Header{}, fmt.Errorf("pbf: malformed HeaderBlock tag")
		}
		data = data[n:]
		switch num {
		case 1: // bbox
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Header{}, fmt.Errorf("pbf: malformed HeaderBlock.bbox")
			}
			b, err := decodeHeaderBBox(v)
			if err != nil {
				return Header{}, err
			}
			h.Bbox = &b
			data = data[n:]
		case 4: // required_features
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return Header{}, fmt.Errorf("pbf: malformed HeaderBlock.required_features")
			}
			h.RequiredFeatures = append(h.RequiredFeatures, v)
			data = data[n:]
		case 5: // optional_features
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return Header{}, fmt.Errorf("pbf: malformed HeaderBlock.optional_features")
			}
			h.OptionalFeatures = append(h.OptionalFeatures, v)
			data = data[n:]
		case 16: // writingprogram
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return Header{}, fmt.Errorf("pbf: malformed HeaderBlock.writingprogram")
			}
			h.WritingProgram = v
			data = data[n:]
		case 17: // source
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return Header{}, fmt.Errorf("pbf: malformed HeaderBlock.source")
			}
			h.Source = v
			data = data[n:]
		case 32: // osmosis_replication_timestamp
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Header{}, fmt.Errorf("pbf: malformed HeaderBlock.osmosis_replication_timestamp")
			}
			h.ReplicationTimestamp = time.Unix(int64(v), 0).UTC()
			data = data[n:]
		case 33: // osmosis_replication_sequence_number
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Header{}, fmt.Errorf("pbf: malformed HeaderBlock.osmosis_replication_sequence_number")
			}
			h.ReplicationSequenceNumber = int64(v)
			data = data[n:]
		case 34: // osmosis_replication_base_url
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return Header{}, fmt.Errorf("pbf: malformed HeaderBlock.osmosis_replication_base_url")
			}
			h.ReplicationBaseURL = v
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Header{}, fmt.Errorf("pbf: malformed HeaderBlock field %d", num)
			}
			data = data[n:]
		}
	}
	return h, nil
}

func decodeHeaderBBox(data []byte) (geo.Bbox, error) {
	b := geo.NewEmpty()
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return geo.Bbox{}, fmt.Errorf("pbf: malformed HeaderBBox tag")
		}
		data = data[n:]
		switch num {
		case 1: // left
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return geo.Bbox{}, fmt.Errorf("pbf: malformed HeaderBBox.left")
			}
			b.MinLon = float64(zigzag.Decode(v)) / 1e9
			data = data[n:]
		case 2: // right
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return geo.Bbox{}, fmt.Errorf("pbf: malformed HeaderBBox.right")
			}
			b.MaxLon = float64(zigzag.Decode(v)) / 1e9
			data = data[n:]
		case 3: // top
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return geo.Bbox{}, fmt.Errorf("pbf: malformed HeaderBBox.top")
			}
			b.MaxLat = float64(zigzag.Decode(v)) / 1e9
			data = data[n:]
		case 4: // bottom
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return geo.Bbox{}, fmt.Errorf("pbf: malformed HeaderBBox.bottom")
			}
			b.MinLat = float64(zigzag.Decode(v)) / 1e9
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return geo.Bbox{}, fmt.Errorf("pbf: malformed HeaderBBox field %d", num)
			}
			data = data[n:]
		}
	}
	return b, nil
}

func encodeHeaderBlock(h Header) []byte {
	var buf []byte
	if h.Bbox != nil {
		bbox := encodeHeaderBBox(*h.Bbox)
		buf = protowire.AppendTag(buf, 1, protowire.BytesType)
		buf = protowire.AppendBytes(buf, bbox)
	}
	for _, f := range h.RequiredFeatures {
		buf = protowire.AppendTag(buf, 4, protowire.BytesType)
		buf = protowire.AppendString(buf, f)
	}
	for _, f := range h.OptionalFeatures {
		buf = protowire.AppendTag(buf, 5, protowire.BytesType)
		buf = protowire.AppendString(buf, f)
	}
	if h.WritingProgram != "" {
		buf = protowire.AppendTag(buf, 16, protowire.BytesType)
		buf = protowire.AppendString(buf, h.WritingProgram)
	}
	if h.Source != "" {
		buf = protowire.AppendTag(buf, 17, protowire.BytesType)
		buf = protowire.AppendString(buf, h.Source)
	}
	if !h.ReplicationTimestamp.IsZero() {
		buf = protowire.AppendTag(buf, 32, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(h.ReplicationTimestamp.Unix()))
	}
	if h.ReplicationSequenceNumber != 0 {
		buf = protowire.AppendTag(buf, 33, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(h.ReplicationSequenceNumber))
	}
	if h.ReplicationBaseURL != "" {
		buf = protowire.AppendTag(buf, 34, protowire.BytesType)
		buf = protowire.AppendString(buf, h.ReplicationBaseURL)
	}
	return buf
}

func encodeHeaderBBox(b geo.Bbox) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, zigzag.Encode(int64(b.MinLon*1e9)))
	buf = protowire.AppendTag(buf, 2, protowire.VarintType)
	buf = protowire.AppendVarint(buf, zigzag.Encode(int64(b.MaxLon*1e9)))
	buf = protowire.AppendTag(buf, 3, protowire.VarintType)
	buf = protowire.AppendVarint(buf, zigzag.Encode(int64(b.MaxLat*1e9)))
	buf = protowire.AppendTag(buf, 4, protowire.VarintType)
	buf = protowire.AppendVarint(buf, zigzag.Encode(int64(b.MinLat*1e9)))
	return buf
}

package pbf

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/conveyal/osmix-sub003/internal/entity"
	"github.com/conveyal/osmix-sub003/internal/geo"
	"github.com/conveyal/osmix-sub003/internal/zigzag"
)

// decodedBlock is the materialized result of one PrimitiveBlock: every
// entity already resolved against its block-local string table, in document
// order. This package intentionally re-interns tag strings through the
// caller's Sink rather than remapping block-local string indexes into a
// shared global table first (spec.md §4.1's createBlockIndexMap remains a
// public StringTable API for other callers, but the decode path here simply
// lets Sink.Add*'s own tag interning absorb the remap -- one fewer moving
// part, same outcome).
type decodedBlock struct {
	Nodes     []entity.Node
	Ways      []entity.Way
	Relations []entity.Relation
}

type blockHeader struct {
	granularity     int64
	latOffset       int64
	lonOffset       int64
	dateGranularity int64
}

func defaultBlockHeader() blockHeader {
	return blockHeader{granularity: 100, latOffset: 0, lonOffset: 0, dateGranularity: 1000}
}

// decodePrimitiveBlock parses one decompressed PrimitiveBlock payload.
// filter, if non-nil, is applied inline to nodes only: nodes outside the
// bbox are dropped. Ways and relations are returned whole, whether or not
// any of their refs or members survived the node filter.
func decodePrimitiveBlock(data []byte, filter *geo.Bbox) (decodedBlock, error) {
	var stringTable [][]byte
	var groups [][]byte
	bh := defaultBlockHeader()

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return decodedBlock{}, fmt.Errorf("pbf: malformed PrimitiveBlock tag")
		}
		data = data[n:]
		switch num {
		case 1: // stringtable
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return decodedBlock{}, fmt.Errorf("pbf: malformed PrimitiveBlock.stringtable")
			}
			var err error
			stringTable, err = decodeStringTable(v)
			if err != nil {
				return decodedBlock{}, err
			}
			data = data[n:]
		case 2: // primitivegroup
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return decodedBlock{}, fmt.Errorf("pbf: malformed PrimitiveBlock.primitivegroup")
			}
			groups = append(groups, v)
			data = data[n:]
		case 17:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return decodedBlock{}, fmt.Errorf("pbf: malformed PrimitiveBlock.granularity")
			}
			bh.granularity = int64(int32(v))
			data = data[n:]
		case 18:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return decodedBlock{}, fmt.Errorf("pbf: malformed PrimitiveBlock.date_granularity")
			}
			bh.dateGranularity = int64(int32(v))
			data = data[n:]
		case 19:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return decodedBlock{}, fmt.Errorf("pbf: malformed PrimitiveBlock.lat_offset")
			}
			bh.latOffset = zigzag.Decode(v)
			data = data[n:]
		case 20:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return decodedBlock{}, fmt.Errorf("pbf: malformed PrimitiveBlock.lon_offset")
			}
			bh.lonOffset = zigzag.Decode(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return decodedBlock{}, fmt.Errorf("pbf: malformed PrimitiveBlock field %d", num)
			}
			data = data[n:]
		}
	}

	var out decodedBlock
	for _, g := range groups {
		if err := decodePrimitiveGroup(g, stringTable, bh, filter, &out); err != nil {
			return decodedBlock{}, err
		}
	}
	return out, nil
}

func decodeStringTable(data []byte) ([][]byte, error) {
	var out [][]byte
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("pbf: malformed StringTable tag")
		}
		data = data[n:]
		if num == 1 {
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("pbf: malformed StringTable.s")
			}
			out = append(out, v)
			data = data[n:]
		} else {
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("pbf: malformed StringTable field %d", num)
			}
			data = data[n:]
		}
	}
	return out, nil
}

func decodePrimitiveGroup(data []byte, strings [][]byte, bh blockHeader, filter *geo.Bbox, out *decodedBlock) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("pbf: malformed PrimitiveGroup tag")
		}
		data = data[n:]
		switch num {
		case 1: // nodes (non-dense) -- the writer contract guarantees dense; reject.
			return &NonDenseError{}
		case 2: // dense
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("pbf: malformed PrimitiveGroup.dense")
			}
			nodes, err := decodeDenseNodes(v, strings, bh, filter)
			if err != nil {
				return err
			}
			out.Nodes = append(out.Nodes, nodes...)
			data = data[n:]
		case 3: // ways
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("pbf: malformed PrimitiveGroup.ways")
			}
			w, err := decodeWay(v, strings)
			if err != nil {
				return err
			}
			// ways are not checked against filter, here or in the sink.
			out.Ways = append(out.Ways, w)
			data = data[n:]
		case 4: // relations
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("pbf: malformed PrimitiveGroup.relations")
			}
			r, err := decodeRelation(v, strings)
			if err != nil {
				return err
			}
			out.Relations = append(out.Relations, r)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("pbf: malformed PrimitiveGroup field %d", num)
			}
			data = data[n:]
		}
	}
	return nil
}

// NonDenseError reports a block containing non-dense node entries.
type NonDenseError struct{}

func (e *NonDenseError) Error() string { return "pbf: block contains non-dense node entries" }

func nanodegree(offset, granularity, cum int64) int32 {
	if granularity == 100 && offset == 0 {
		return int32(cum)
	}
	val := (float64(offset) + float64(granularity)*float64(cum)) / 100.0
	return int32(math.Round(val))
}

func decodeDenseNodes(data []byte, strings [][]byte, bh blockHeader, filter *geo.Bbox) ([]entity.Node, error) {
	var idDeltas, latDeltas, lonDeltas []int64
	var keysVals []int32

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("pbf: malformed DenseNodes tag")
		}
		data = data[n:]
		switch num {
		case 1: // id
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("pbf: malformed DenseNodes.id")
			}
			d, err := consumePackedSint64(v)
			if err != nil {
				return nil, err
			}
			idDeltas = d
			data = data[n:]
		case 8: // lat
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("pbf: malformed DenseNodes.lat")
			}
			d, err := consumePackedSint64(v)
			if err != nil {
				return nil, err
			}
			latDeltas = d
			data = data[n:]
		case 9: // lon
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("pbf: malformed DenseNodes.lon")
			}
			d, err := consumePackedSint64(v)
			if err != nil {
				return nil, err
			}
			lonDeltas = d
			data = data[n:]
		case 10: // keys_vals
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("pbf: malformed DenseNodes.keys_vals")
			}
			d, err := consumePackedInt32(v)
			if err != nil {
				return nil, err
			}
			keysVals = d
			data = data[n:]
		default: // denseinfo and anything else: not modeled, skipped
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("pbf: malformed DenseNodes field %d", num)
			}
			data = data[n:]
		}
	}

	n := len(idDeltas)
	ids := zigzag.DecodeDeltas(idDeltas)
	lats := zigzag.DecodeDeltas(latDeltas)
	lons := zigzag.DecodeDeltas(lonDeltas)
	nodes := make([]entity.Node, 0, n)
	kvIdx := 0
	for i := 0; i < n; i++ {
		curID, curLat, curLon := ids[i], lats[i], lons[i]

		var tags entity.Tags
		for kvIdx < len(keysVals) {
			k := keysVals[kvIdx]
			if k == 0 {
				kvIdx++
				break
			}
			v := keysVals[kvIdx+1]
			tags = append(tags, entity.Tag{Key: string(strings[k]), Value: string(strings[v])})
			kvIdx += 2
		}

		latQ := nanodegree(bh.latOffset, bh.granularity, curLat)
		lonQ := nanodegree(bh.lonOffset, bh.granularity, curLon)
		lon := float64(lonQ) / 1e7
		lat := float64(latQ) / 1e7

		if filter != nil && !filter.ContainsPoint(lon, lat) {
			continue
		}
		nodes = append(nodes, entity.Node{ID: curID, Lon: lon, Lat: lat, Tags: tags})
	}
	return nodes, nil
}

func tagsFromKeysVals(keys, vals []uint32, strings [][]byte) entity.Tags {
	if len(keys) == 0 {
		return nil
	}
	tags := make(entity.Tags, 0, len(keys))
	for i := range keys {
		tags = append(tags, entity.Tag{Key: string(strings[keys[i]]), Value: string(strings[vals[i]])})
	}
	return tags
}

func decodeWay(data []byte, strings [][]byte) (entity.Way, error) {
	var w entity.Way
	var keys, vals []uint32
	var refDeltas []int64

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return entity.Way{}, fmt.Errorf("pbf: malformed Way tag")
		}
		data = data[n:]
		switch num {
		case 1: // id
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return entity.Way{}, fmt.Errorf("pbf: malformed Way.id")
			}
			w.ID = int64(v)
			data = data[n:]
		case 2: // keys
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return entity.Way{}, fmt.Errorf("pbf: malformed Way.keys")
			}
			raw, err := consumePackedVarint(v)
			if err != nil {
				return entity.Way{}, err
			}
			for _, r := range raw {
				keys = append(keys, uint32(r))
			}
			data = data[n:]
		case 3: // vals
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return entity.Way{}, fmt.Errorf("pbf: malformed Way.vals")
			}
			raw, err := consumePackedVarint(v)
			if err != nil {
				return entity.Way{}, err
			}
			for _, r := range raw {
				vals = append(vals, uint32(r))
			}
			data = data[n:]
		case 8: // refs
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return entity.Way{}, fmt.Errorf("pbf: malformed Way.refs")
			}
			d, err := consumePackedSint64(v)
			if err != nil {
				return entity.Way{}, err
			}
			refDeltas = d
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return entity.Way{}, fmt.Errorf("pbf: malformed Way field %d", num)
			}
			data = data[n:]
		}
	}

	w.Tags = tagsFromKeysVals(keys, vals, strings)
	w.Refs = make([]int64, len(refDeltas))
	var cur int64
	for i, d := range refDeltas {
		cur += d
		w.Refs[i] = cur
	}
	return w, nil
}

func decodeRelation(data []byte, strings [][]byte) (entity.Relation, error) {
	var r entity.Relation
	var keys, vals []uint32
	var rolesSid []int32
	var memIDDeltas []int64
	var types []uint64

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return entity.Relation{}, fmt.Errorf("pbf: malformed Relation tag")
		}
		data = data[n:]
		switch num {
		case 1: // id
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return entity.Relation{}, fmt.Errorf("pbf: malformed Relation.id")
			}
			r.ID = int64(v)
			data = data[n:]
		case 2: // keys
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return entity.Relation{}, fmt.Errorf("pbf: malformed Relation.keys")
			}
			raw, err := consumePackedVarint(v)
			if err != nil {
				return entity.Relation{}, err
			}
			for _, k := range raw {
				keys = append(keys, uint32(k))
			}
			data = data[n:]
		case 3: // vals
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return entity.Relation{}, fmt.Errorf("pbf: malformed Relation.vals")
			}
			raw, err := consumePackedVarint(v)
			if err != nil {
				return entity.Relation{}, err
			}
			for _, vv := range raw {
				vals = append(vals, uint32(vv))
			}
			data = data[n:]
		case 8: // roles_sid
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return entity.Relation{}, fmt.Errorf("pbf: malformed Relation.roles_sid")
			}
			d, err := consumePackedInt32(v)
			if err != nil {
				return entity.Relation{}, err
			}
			rolesSid = d
			data = data[n:]
		case 9: // memids
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return entity.Relation{}, fmt.Errorf("pbf: malformed Relation.memids")
			}
			d, err := consumePackedSint64(v)
			if err != nil {
				return entity.Relation{}, err
			}
			memIDDeltas = d
			data = data[n:]
		case 10: // types
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return entity.Relation{}, fmt.Errorf("pbf: malformed Relation.types")
			}
			d, err := consumePackedVarint(v)
			if err != nil {
				return entity.Relation{}, err
			}
			types = d
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return entity.Relation{}, fmt.Errorf("pbf: malformed Relation field %d", num)
			}
			data = data[n:]
		}
	}

	r.Tags = tagsFromKeysVals(keys, vals, strings)
	r.Members = make([]entity.Member, len(memIDDeltas))
	var cur int64
	for i, d := range memIDDeltas {
		cur += d
		role := ""
		if i < len(rolesSid) {
			role = string(strings[rolesSid[i]])
		}
		mt := entity.MemberNode
		if i < len(types) {
			switch types[i] {
			case 1:
				mt = entity.MemberWay
			case 2:
				mt = entity.MemberRelation
			}
		}
		r.Members[i] = entity.Member{Type: mt, Ref: cur, Role: role}
	}
	return r, nil
}

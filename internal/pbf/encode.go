package pbf

import (
	"io"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/conveyal/osmix-sub003/internal/entity"
	"github.com/conveyal/osmix-sub003/internal/strtable"
)

// Source supplies entities in ascending-ID order per type, mirroring each
// columnar store's own Sorted iterator (spec.md §4.2 sorted(), §5 "Exports
// emit entities in ascending ID order").
type Source interface {
	SortedNodes(yield func(entity.Node) bool)
	SortedWays(yield func(entity.Way) bool)
	SortedRelations(yield func(entity.Relation) bool)
}

// EncodeOptions configures Encode.
type EncodeOptions struct {
	// MaxEntitiesPerBlock chunks output blocks (spec default ~8000).
	MaxEntitiesPerBlock int
}

// Encode writes exactly one OSMHeader blob, then OSMData blocks: all node
// blocks (dense, sorted), then all way blocks (sorted), then all relation
// blocks (sorted) -- spec.md §4.4 "writer emits nodes first, then ways,
// then relations, each sorted by ID". Each block computes its own local
// string table from the entities it carries.
func Encode(w io.Writer, src Source, header Header, opts EncodeOptions) error {
	chunkSize := opts.MaxEntitiesPerBlock
	if chunkSize <= 0 {
		chunkSize = MaxEntitiesPerBlock
	}

	if err := writeBlob(w, "OSMHeader", encodeHeaderBlock(header)); err != nil {
		return err
	}

	var nodeChunk []entity.Node
	flushNodes := func() error {
		if len(nodeChunk) == 0 {
			return nil
		}
		block := encodeNodeBlock(nodeChunk)
		nodeChunk = nodeChunk[:0]
		return writeBlob(w, "OSMData", block)
	}
	var flushErr error
	src.SortedNodes(func(n entity.Node) bool {
		nodeChunk = append(nodeChunk, n)
		if len(nodeChunk) >= chunkSize {
			if flushErr = flushNodes(); flushErr != nil {
				return false
			}
		}
		return true
	})
	if flushErr != nil {
		return flushErr
	}
	if err := flushNodes(); err != nil {
		return err
	}

	var wayChunk []entity.Way
	flushWays := func() error {
		if len(wayChunk) == 0 {
			return nil
		}
		block := encodeWayBlock(wayChunk)
		wayChunk = wayChunk[:0]
		return writeBlob(w, "OSMData", block)
	}
	src.SortedWays(func(wy entity.Way) bool {
		wayChunk = append(wayChunk, wy)
		if len(wayChunk) >= chunkSize {
			if flushErr = flushWays(); flushErr != nil {
				return false
			}
		}
		return true
	})
	if flushErr != nil {
		return flushErr
	}
	if err := flushWays(); err != nil {
		return err
	}

	var relChunk []entity.Relation
	flushRels := func() error {
		if len(relChunk) == 0 {
			return nil
		}
		block := encodeRelationBlock(relChunk)
		relChunk = relChunk[:0]
		return writeBlob(w, "OSMData", block)
	}
	src.SortedRelations(func(r entity.Relation) bool {
		relChunk = append(relChunk, r)
		if len(relChunk) >= chunkSize {
			if flushErr = flushRels(); flushErr != nil {
				return false
			}
		}
		return true
	})
	if flushErr != nil {
		return flushErr
	}
	return flushRels()
}

func quantise(deg float64) int32 {
	if deg >= 0 {
		return int32(deg*1e7 + 0.5)
	}
	return int32(deg*1e7 - 0.5)
}

// wrapPrimitiveBlock frames a string table plus a single PrimitiveGroup
// payload into a full PrimitiveBlock message (granularity/offsets left at
// their defaults, so nanodegree() on decode takes the exact-integer path).
func wrapPrimitiveBlock(strings *strtable.Table, group []byte) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.BytesType)
	buf = protowire.AppendBytes(buf, encodeStringTable(strings))
	buf = protowire.AppendTag(buf, 2, protowire.BytesType)
	buf = protowire.AppendBytes(buf, group)
	return buf
}

func encodeStringTable(strings *strtable.Table) []byte {
	var buf []byte
	for _, s := range strings.All() {
		buf = protowire.AppendTag(buf, 1, protowire.BytesType)
		buf = protowire.AppendString(buf, s)
	}
	return buf
}

func encodeNodeBlock(nodes []entity.Node) []byte {
	strings := strtable.New()
	ids := make([]int64, len(nodes))
	lats := make([]int64, len(nodes))
	lons := make([]int64, len(nodes))
	var keysVals []int32

	var prevID, prevLat, prevLon int64
	for i, n := range nodes {
		ids[i] = n.ID - prevID
		prevID = n.ID

		latQ := int64(quantise(n.Lat))
		lonQ := int64(quantise(n.Lon))
		lats[i] = latQ - prevLat
		prevLat = latQ
		lons[i] = lonQ - prevLon
		prevLon = lonQ

		for _, t := range n.Tags {
			keysVals = append(keysVals, strings.Intern(t.Key), strings.Intern(t.Value))
		}
		keysVals = append(keysVals, 0)
	}
	if len(keysVals) == len(nodes) {
		// every node was tag-less: keys_vals would be all zero terminators,
		// which decodes identically to "absent" -- omit it entirely.
		allEmpty := true
		for _, v := range keysVals {
			if v != 0 {
				allEmpty = false
				break
			}
		}
		if allEmpty {
			keysVals = nil
		}
	}

	var dense []byte
	dense = appendPackedSint64(dense, 1, ids)
	dense = appendPackedSint64(dense, 8, lats)
	dense = appendPackedSint64(dense, 9, lons)
	if len(keysVals) > 0 {
		dense = appendPackedInt32(dense, 10, keysVals)
	}

	var group []byte
	group = protowire.AppendTag(group, 2, protowire.BytesType)
	group = protowire.AppendBytes(group, dense)

	return wrapPrimitiveBlock(strings, group)
}

func encodeWayBlock(ways []entity.Way) []byte {
	strings := strtable.New()
	var group []byte
	for _, w := range ways {
		var keys, vals []uint64
		for _, t := range w.Tags {
			keys = append(keys, uint64(strings.Intern(t.Key)))
			vals = append(vals, uint64(strings.Intern(t.Value)))
		}
		refDeltas := make([]int64, len(w.Refs))
		var prev int64
		for i, ref := range w.Refs {
			refDeltas[i] = ref - prev
			prev = ref
		}

		var msg []byte
		msg = protowire.AppendTag(msg, 1, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(w.ID))
		if len(keys) > 0 {
			msg = appendPackedVarint(msg, 2, keys)
			msg = appendPackedVarint(msg, 3, vals)
		}
		msg = appendPackedSint64(msg, 8, refDeltas)

		group = protowire.AppendTag(group, 3, protowire.BytesType)
		group = protowire.AppendBytes(group, msg)
	}
	return wrapPrimitiveBlock(strings, group)
}

func encodeRelationBlock(rels []entity.Relation) []byte {
	strings := strtable.New()
	var group []byte
	for _, r := range rels {
		var keys, vals []uint64
		for _, t := range r.Tags {
			keys = append(keys, uint64(strings.Intern(t.Key)))
			vals = append(vals, uint64(strings.Intern(t.Value)))
		}
		rolesSid := make([]int32, len(r.Members))
		memDeltas := make([]int64, len(r.Members))
		types := make([]uint64, len(r.Members))
		var prev int64
		for i, m := range r.Members {
			rolesSid[i] = strings.Intern(m.Role)
			memDeltas[i] = m.Ref - prev
			prev = m.Ref
			types[i] = uint64(memberTypeWire(m.Type))
		}

		var msg []byte
		msg = protowire.AppendTag(msg, 1, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(r.ID))
		if len(keys) > 0 {
			msg = appendPackedVarint(msg, 2, keys)
			msg = appendPackedVarint(msg, 3, vals)
		}
		msg = appendPackedInt32(msg, 8, rolesSid)
		msg = appendPackedSint64(msg, 9, memDeltas)
		msg = appendPackedVarint(msg, 10, types)

		group = protowire.AppendTag(group, 4, protowire.BytesType)
		group = protowire.AppendBytes(group, msg)
	}
	return wrapPrimitiveBlock(strings, group)
}

func memberTypeWire(t entity.MemberType) int {
	switch t {
	case entity.MemberWay:
		return 1
	case entity.MemberRelation:
		return 2
	default:
		return 0
	}
}

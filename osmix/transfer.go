package osmix

import (
	"github.com/google/uuid"

	"github.com/conveyal/osmix-sub003/internal/entity"
)

// StoreBuffers is the named typed-array buffer set for one entity store, per
// the transferable snapshot layout (spec.md §6).
type StoreBuffers struct {
	IDs        []int64
	TagOffsets []uint32
	TagPairs   []int32

	// Node-only.
	LonQ, LatQ []int32

	// Way-only.
	RefOffsets []uint32
	Refs       []int64

	// Relation-only.
	MemberOffsets []uint32
	MemberTypes   []entity.MemberType
	MemberRefs    []int64
	MemberRoleIdx []int32
}

// Transferables is the cross-thread move/share payload for an Osm: its
// header plus the raw buffers backing every store and the shared string
// table. A Transferables value owns its slices; after Transferables() the
// source Osm must not be used again unless it was produced via Clone first.
type Transferables struct {
	ID     uuid.UUID
	Header Header

	StringBytes   []byte
	StringOffsets []uint32

	Nodes     StoreBuffers
	Ways      StoreBuffers
	Relations StoreBuffers
}

// Transferables exports o's raw buffers. o becomes invalid for further use
// afterward (ownership transferred) -- callers who want to keep o usable
// should call Clone() first and transfer the clone.
func (o *Osm) Transferables() Transferables {
	return Transferables{
		ID:     o.id,
		Header: o.header,

		StringBytes:   o.strings.Bytes(),
		StringOffsets: o.strings.Offsets(),

		Nodes: StoreBuffers{
			IDs:        o.nodes.IDs(),
			TagOffsets: o.nodes.Tags().Offsets(),
			TagPairs:   o.nodes.Tags().Pairs(),
			LonQ:       o.nodes.LonQ(),
			LatQ:       o.nodes.LatQ(),
		},
		Ways: StoreBuffers{
			IDs:        o.ways.IDs(),
			TagOffsets: o.ways.Tags().Offsets(),
			TagPairs:   o.ways.Tags().Pairs(),
			RefOffsets: o.ways.RefOffsets(),
			Refs:       o.ways.Refs64(),
		},
		Relations: StoreBuffers{
			IDs:           o.rels.IDs(),
			TagOffsets:    o.rels.Tags().Offsets(),
			TagPairs:      o.rels.Tags().Pairs(),
			MemberOffsets: o.rels.MemberOffsets(),
			MemberTypes:   o.rels.MemberTypes(),
			MemberRefs:    o.rels.MemberRefs(),
			MemberRoleIdx: o.rels.MemberRoleIdx(),
		},
	}
}

// From reconstructs an Osm from a Transferables snapshot produced by
// Transferables(), preserving its ID and header. The result still requires
// BuildIndexes (and, if spatial queries are needed, BuildSpatialIndexes)
// since the snapshot carries no derived indexes, only the raw columnar
// buffers.
func From(t Transferables, opts ...Option) *Osm {
	o := New(opts...)
	o.id = t.ID
	o.header = t.Header

	for i, s := range t.StringOffsets {
		if i == 0 {
			continue
		}
		o.strings.Intern(string(t.StringBytes[t.StringOffsets[i-1]:s]))
	}

	for i := range t.Nodes.IDs {
		tagStart, tagEnd := t.Nodes.TagOffsets[i], t.Nodes.TagOffsets[i+1]
		o.nodes.AddQuantised(t.Nodes.IDs[i], t.Nodes.LonQ[i], t.Nodes.LatQ[i], t.Nodes.TagPairs[2*tagStart:2*tagEnd])
	}
	for i := range t.Ways.IDs {
		tagStart, tagEnd := t.Ways.TagOffsets[i], t.Ways.TagOffsets[i+1]
		refStart, refEnd := t.Ways.RefOffsets[i], t.Ways.RefOffsets[i+1]
		o.ways.AddInterned(t.Ways.IDs[i], t.Ways.Refs[refStart:refEnd], t.Ways.TagPairs[2*tagStart:2*tagEnd])
	}
	for i := range t.Relations.IDs {
		tagStart, tagEnd := t.Relations.TagOffsets[i], t.Relations.TagOffsets[i+1]
		memStart, memEnd := t.Relations.MemberOffsets[i], t.Relations.MemberOffsets[i+1]
		o.rels.AddInterned(
			t.Relations.IDs[i],
			t.Relations.MemberTypes[memStart:memEnd],
			t.Relations.MemberRefs[memStart:memEnd],
			t.Relations.MemberRoleIdx[memStart:memEnd],
			t.Relations.TagPairs[2*tagStart:2*tagEnd],
		)
	}
	return o
}

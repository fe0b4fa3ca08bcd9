package osmix

import (
	"github.com/conveyal/osmix-sub003/internal/changeset"
)

// Change, ChangeType, EntityKind, Changeset, and ChangesetStats re-export
// internal/changeset's API so callers never need to import it directly.
type (
	Change         = changeset.Change
	ChangeType     = changeset.ChangeType
	EntityKind     = changeset.EntityKind
	Changeset      = changeset.Changeset
	ChangesetStats = changeset.Stats
)

const (
	Create = changeset.Create
	Modify = changeset.Modify
	Delete = changeset.Delete
)

const (
	KindNode     = changeset.KindNode
	KindWay      = changeset.KindWay
	KindRelation = changeset.KindRelation
)

// ChangesetOptions configures GenerateChangeset.
type ChangesetOptions struct {
	DedupeNodes           bool
	StrictToleranceMeters float64
	CandidateRadiusMeters float64
	Intersections         bool
}

func (o ChangesetOptions) internal() changeset.Options {
	return changeset.Options{
		DedupeNodes:           o.DedupeNodes,
		StrictToleranceMeters: o.StrictToleranceMeters,
		CandidateRadiusMeters: o.CandidateRadiusMeters,
		Intersections:         o.Intersections,
	}
}

func snapshotOf(o *Osm) changeset.Snapshot {
	return changeset.Snapshot{Nodes: o.nodes, Ways: o.ways, Rels: o.rels}
}

// GenerateChangeset diffs patch against base, the base Osm that patch will
// eventually be applied onto (spec.md §4.5). Both must be indexed; if
// opts.DedupeNodes or opts.Intersections query spatial candidates, base
// must also have BuildSpatialIndexes completed.
func GenerateChangeset(base, patch *Osm, opts ChangesetOptions) (*Changeset, error) {
	if !base.indexed || !patch.indexed {
		return nil, NewError(KindNotReady, 0, nil)
	}
	if (opts.DedupeNodes || opts.Intersections) && !base.spatial {
		return nil, NewError(KindNotReady, 0, nil)
	}
	return changeset.Generate(snapshotOf(base), snapshotOf(patch), opts.internal()), nil
}

// ApplyChangeset builds a new Osm from base with cs applied (spec.md §4.5
// "Apply"): base entities touched by a modify/delete change are dropped,
// then every create/modify entity in cs is appended. The result is
// finalized with BuildIndexes (and BuildSpatialIndexes, if base had one)
// before being returned.
func ApplyChangeset(base *Osm, cs *Changeset, opts ...Option) (*Osm, error) {
	if !base.indexed {
		return nil, NewError(KindNotReady, 0, nil)
	}
	dst := New(opts...)
	dst.header = base.header.Clone()
	changeset.Apply(snapshotOf(dst), snapshotOf(base), cs)
	if err := dst.BuildIndexes(); err != nil {
		return nil, err
	}
	if base.spatial {
		if err := dst.BuildSpatialIndexes(); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// Package changeset implements the changeset engine (spec.md §4.5): direct
// diff between a base and patch Osm, a node-deduplication pass, a way/way
// intersection pass that mints new nodes at crossing points, and applying
// the resulting changeset to produce a new Osm.
//
// The engine operates directly on the columnar stores rather than on the
// osmix facade, the same layering internal/pbf uses (osmix wires this
// package together through its GenerateChangeset/ApplyChangeset functions).
package changeset

import (
	"time"

	"github.com/conveyal/osmix-sub003/internal/entity"
)

// Node, Way, and Relation alias entity's types so this package's exported
// API reads naturally without requiring callers to import internal/entity
// directly.
type (
	Node     = entity.Node
	Way      = entity.Way
	Relation = entity.Relation
)

// ChangeType discriminates the three kinds of change an entity can undergo.
type ChangeType int

const (
	Create ChangeType = iota
	Modify
	Delete
)

func (t ChangeType) String() string {
	switch t {
	case Create:
		return "create"
	case Modify:
		return "modify"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// EntityKind discriminates which store a Change belongs to.
type EntityKind int

const (
	KindNode EntityKind = iota
	KindWay
	KindRelation
)

func (k EntityKind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindWay:
		return "way"
	case KindRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Ref names a related entity touched by a Change (e.g. the way whose refs
// were rewritten by a dedupe match), carried for observability only.
type Ref struct {
	Kind EntityKind
	ID   int64
}

// Change is one entry of a Changeset.
type Change struct {
	Type ChangeType
	Kind EntityKind

	Node     *Node
	Way      *Way
	Relation *Relation

	Refs []Ref
}

// ID returns the changed entity's ID, regardless of kind.
func (c Change) ID() int64 {
	switch c.Kind {
	case KindNode:
		return c.Node.ID
	case KindWay:
		return c.Way.ID
	case KindRelation:
		return c.Relation.ID
	default:
		return 0
	}
}

// Stats counts what a changeset-generation pass did. BlocksProcessed and
// Duration are non-normative observability fields (spec.md §4.5 supplement);
// the rest back the testable properties in spec.md §8.
type Stats struct {
	TotalChanges int

	NodesCreated, NodesModified, NodesDeleted             int
	WaysCreated, WaysModified, WaysDeleted                int
	RelationsCreated, RelationsModified, RelationsDeleted int

	DeduplicatedNodes         int
	DeduplicatedNodesReplaced int
	DeduplicatedWays          int

	IntersectionPointsFound  int
	IntersectionNodesCreated int

	BlocksProcessed int
	Duration        time.Duration
}

// Changeset is an ordered collection of Changes plus the stats describing
// how they were produced.
type Changeset struct {
	Changes []Change
	Stats   Stats
}

func (cs *Changeset) add(c Change) {
	cs.Changes = append(cs.Changes, c)
	cs.Stats.TotalChanges++
	switch c.Kind {
	case KindNode:
		switch c.Type {
		case Create:
			cs.Stats.NodesCreated++
		case Modify:
			cs.Stats.NodesModified++
		case Delete:
			cs.Stats.NodesDeleted++
		}
	case KindWay:
		switch c.Type {
		case Create:
			cs.Stats.WaysCreated++
		case Modify:
			cs.Stats.WaysModified++
		case Delete:
			cs.Stats.WaysDeleted++
		}
	case KindRelation:
		switch c.Type {
		case Create:
			cs.Stats.RelationsCreated++
		case Modify:
			cs.Stats.RelationsModified++
		case Delete:
			cs.Stats.RelationsDeleted++
		}
	}
}

// Options configures Generate.
type Options struct {
	// DedupeNodes enables the node-deduplication pass.
	DedupeNodes bool
	// StrictToleranceMeters is the great-circle distance within which two
	// nodes are considered the same location (default 0.001m).
	StrictToleranceMeters float64
	// CandidateRadiusMeters bounds the spatial query used to find dedupe
	// candidates before the strict check (default 10m).
	CandidateRadiusMeters float64
	// Intersections enables the way/way intersection pass.
	Intersections bool
}

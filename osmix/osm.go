package osmix

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	"github.com/conveyal/osmix-sub003/internal/nodestore"
	"github.com/conveyal/osmix-sub003/internal/obslog"
	"github.com/conveyal/osmix-sub003/internal/relstore"
	"github.com/conveyal/osmix-sub003/internal/strtable"
	"github.com/conveyal/osmix-sub003/internal/waystore"
)

// Osm is the facade over the three columnar entity stores plus the header
// and shared string table. It is created empty, mutated only by AddNode /
// AddWay / AddRelation during ingest, finalized by BuildIndexes (and
// optionally BuildSpatialIndexes), and treated as immutable by readers
// thereafter.
type Osm struct {
	id      uuid.UUID
	header  Header
	opts    Options
	strings *strtable.Table

	nodes *nodestore.Store
	ways  *waystore.Store
	rels  *relstore.Store

	indexed bool
	spatial bool
	sealed  atomic.Bool
}

// New creates an empty, writable Osm.
func New(opts ...Option) *Osm {
	o := newOptions(opts...)
	strings := strtable.New()
	return &Osm{
		id:      uuid.New(),
		opts:    o,
		strings: strings,
		nodes:   nodestore.New(strings),
		ways:    waystore.New(strings),
		rels:    relstore.New(strings),
	}
}

// ID is this Osm's transfer-correlation identifier.
func (o *Osm) ID() uuid.UUID { return o.id }

// Header returns the header, which may be mutated freely before
// BuildIndexes (header mutation after that point is the caller's own
// responsibility since it does not affect index invariants).
func (o *Osm) Header() *Header { return &o.header }

// Options returns the configuration this Osm was constructed with.
func (o *Osm) Options() Options { return o.opts }

// Nodes returns the NodeStore.
func (o *Osm) Nodes() *nodestore.Store { return o.nodes }

// Ways returns the WayStore.
func (o *Osm) Ways() *waystore.Store { return o.ways }

// Relations returns the RelationStore.
func (o *Osm) Relations() *relstore.Store { return o.rels }

// Strings returns the shared StringTable. Tag stores reference it by index
// and must never be separated from it.
func (o *Osm) Strings() *strtable.Table { return o.strings }

// AddNode appends a node, honoring an optional ingest predicate (bbox
// extract, strict-mode prefiltering). Like every Add* method, it panics once
// o has been sealed by Shared.
func (o *Osm) AddNode(n Node, pred func(Node) bool) bool {
	o.panicIfSealed()
	return o.nodes.Add(n, pred)
}

// AddWay appends a way.
func (o *Osm) AddWay(w Way, pred func(Way) bool) bool {
	o.panicIfSealed()
	return o.ways.Add(w, pred)
}

// AddRelation appends a relation.
func (o *Osm) AddRelation(r Relation, pred func(Relation) bool) bool {
	o.panicIfSealed()
	return o.rels.Add(r, pred)
}

func (o *Osm) panicIfSealed() {
	if o.sealed.Load() {
		panic("osmix: Add* called on an Osm sealed by Shared")
	}
}

// BuildIndexes finalizes ID-based lookups for all three stores, sorting a
// permutation of dense indexes by ID without permuting storage (spec
// invariant 2). It must be called exactly once before any read API, and
// must complete before a second mutator is allowed to begin.
func (o *Osm) BuildIndexes() error {
	if ok, dup := o.nodes.BuildIndex(); !ok {
		return NewError(KindDuplicateID, 0, duplicateIDErr("node", dup))
	}
	if ok, dup := o.ways.BuildIndex(); !ok {
		return NewError(KindDuplicateID, 0, duplicateIDErr("way", dup))
	}
	if ok, dup := o.rels.BuildIndex(); !ok {
		return NewError(KindDuplicateID, 0, duplicateIDErr("relation", dup))
	}
	o.indexed = true
	emit(o.opts.Progress, "build-indexes", "indexes built", SeverityReady)
	return nil
}

// BuildSpatialIndexes constructs the node/way/relation R-trees. Requires
// BuildIndexes to have completed.
func (o *Osm) BuildSpatialIndexes() error {
	if !o.indexed {
		return NewError(KindNotReady, 0, nil)
	}
	o.nodes.BuildSpatialIndex()
	o.ways.BuildSpatialIndex(o.nodes)
	o.rels.BuildSpatialIndex(o.nodes, o.ways)
	o.spatial = true
	emit(o.opts.Progress, "build-spatial-indexes", "spatial indexes built", SeverityReady)
	return nil
}

// IsReady reports whether BuildIndexes has completed.
func (o *Osm) IsReady() bool { return o.indexed }

// IsSpatialReady reports whether BuildSpatialIndexes has completed.
func (o *Osm) IsSpatialReady() bool { return o.spatial }

// Bbox returns the bounding box of every node in the index.
func (o *Osm) Bbox() Bbox { return o.nodes.Bbox() }

// Stats summarizes an Osm's size, used for logging and the info() API.
type Stats struct {
	NodeCount     int
	WayCount      int
	RelationCount int
	StringCount   int
	TagPairCount  int
	BBox          Bbox
}

// Stats reports entity and string-table counts.
func (o *Osm) Stats() Stats {
	return Stats{
		NodeCount:     o.nodes.Len(),
		WayCount:      o.ways.Len(),
		RelationCount: o.rels.Len(),
		StringCount:   o.strings.Len(),
		TagPairCount:  o.nodes.Tags().PairCount() + o.ways.Tags().PairCount() + o.rels.Tags().PairCount(),
		BBox:          o.Bbox(),
	}
}

// LogStats writes a one-line human-readable summary via the configured
// logger.
func (o *Osm) LogStats(l *obslog.Logger) {
	if l == nil {
		l = o.opts.Logger
	}
	s := o.Stats()
	l.Info("osm stats",
		zap.Int("nodes", s.NodeCount),
		zap.Int("ways", s.WayCount),
		zap.Int("relations", s.RelationCount),
		zap.Int("strings", s.StringCount),
	)
}

// Clone returns a deep, independent copy of o: a fresh Osm with every
// entity re-added and its own header and string table. Unlike a raw struct
// copy, tag slices are deep-copied via go-deepcopy so mutating the clone's
// tags never aliases the original's.
func (o *Osm) Clone() (*Osm, error) {
	clone := New(optionsAsOptions(o.opts)...)
	clone.header = o.header.Clone()

	nodes := make([]Node, 0, o.nodes.Len())
	o.nodes.Sorted(func(n Node) bool { nodes = append(nodes, n); return true })
	var nodesCopy []Node
	if err := deepcopy.Copy(&nodesCopy, &nodes); err != nil {
		return nil, NewError(KindMalformedPbf, 0, err)
	}
	for _, n := range nodesCopy {
		clone.nodes.Add(n, nil)
	}

	ways := make([]Way, 0, o.ways.Len())
	o.ways.Sorted(func(w Way) bool { ways = append(ways, w); return true })
	var waysCopy []Way
	if err := deepcopy.Copy(&waysCopy, &ways); err != nil {
		return nil, NewError(KindMalformedPbf, 0, err)
	}
	for _, w := range waysCopy {
		clone.ways.Add(w, nil)
	}

	rels := make([]Relation, 0, o.rels.Len())
	o.rels.Sorted(func(r Relation) bool { rels = append(rels, r); return true })
	var relsCopy []Relation
	if err := deepcopy.Copy(&relsCopy, &rels); err != nil {
		return nil, NewError(KindMalformedPbf, 0, err)
	}
	for _, r := range relsCopy {
		clone.rels.Add(r, nil)
	}

	if err := clone.BuildIndexes(); err != nil {
		return nil, err
	}
	if o.spatial {
		if err := clone.BuildSpatialIndexes(); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

// Shared seals o against further mutation and returns a read-only handle
// safe to pass by value to multiple goroutines. Calling any Add* method on
// o after Shared panics.
func (o *Osm) Shared() *SharedOsm {
	o.sealed.Store(true)
	return &SharedOsm{osm: o}
}

// SharedOsm is a read-only view over an Osm that has been sealed via
// Shared(). It exposes only query methods.
type SharedOsm struct{ osm *Osm }

func (s *SharedOsm) Nodes() *nodestore.Store    { return s.osm.nodes }
func (s *SharedOsm) Ways() *waystore.Store      { return s.osm.ways }
func (s *SharedOsm) Relations() *relstore.Store { return s.osm.rels }
func (s *SharedOsm) Header() Header             { return s.osm.header }
func (s *SharedOsm) Stats() Stats               { return s.osm.Stats() }
func (s *SharedOsm) Bbox() Bbox                 { return s.osm.Bbox() }

func duplicateIDErr(kind string, id int64) error {
	return fmt.Errorf("duplicate %s id %d", kind, id)
}

func optionsAsOptions(o Options) []Option {
	return []Option{
		WithLogger(o.Logger),
		WithProgressListener(o.Progress),
		WithStrictMode(o.StrictMode),
		WithDedupeTolerance(o.DedupeStrictToleranceMeters, o.DedupeCandidateRadiusMeters),
		WithMaxEntitiesPerBlock(o.MaxEntitiesPerBlock),
		WithParseConcurrency(o.ParseConcurrency),
		WithExtractPolicy(o.ExtractPolicy),
		WithRelationMaxDepth(o.RelationMaxDepth),
	}
}

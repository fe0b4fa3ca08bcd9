// Package relstore implements the columnar RelationStore (spec.md §4.2):
// ids, flat members (type, ref, roleIdx), tags, computed geometry, and an
// R-tree over computed geometry bboxes.
package relstore

import (
	"sort"

	"github.com/conveyal/osmix-sub003/internal/columnar"
	"github.com/conveyal/osmix-sub003/internal/cycle"
	"github.com/conveyal/osmix-sub003/internal/entity"
	"github.com/conveyal/osmix-sub003/internal/geo"
	"github.com/conveyal/osmix-sub003/internal/nodestore"
	"github.com/conveyal/osmix-sub003/internal/rtree"
	"github.com/conveyal/osmix-sub003/internal/strtable"
	"github.com/conveyal/osmix-sub003/internal/swiss"
	"github.com/conveyal/osmix-sub003/internal/tagstore"
	"github.com/conveyal/osmix-sub003/internal/waystore"
)

// GeometryKind discriminates the shape of a resolved relation geometry.
type GeometryKind int

const (
	GeometryNone GeometryKind = iota
	GeometryPoints
	GeometryLineStrings
	GeometryRings
)

// Geometry is the resolved shape of a relation, per spec.md §4.2
// getRelationGeometry: one of {points}, {lineStrings}, {rings}, or null
// (GeometryNone).
type Geometry struct {
	Kind        GeometryKind
	Points      [][2]float64
	LineStrings [][][2]float64
	Rings       [][][2]float64
}

// Store is the RelationStore.
type Store struct {
	strings *strtable.Table
	tags    *tagstore.Store

	ids           []int64
	memberOffsets *columnar.OffsetBuffer
	memberTypes   []entity.MemberType
	memberRefs    []int64
	memberRoleIdx []int32

	sortedIdx []int32
	idIndex   *swiss.IDTable
	spatial   *rtree.Tree
	bboxes    []geo.Bbox
}

// New creates an empty Store sharing strings with the owning Osm.
func New(strings *strtable.Table) *Store {
	return &Store{
		strings:       strings,
		tags:          tagstore.New(strings),
		memberOffsets: columnar.NewOffsetBuffer(64),
	}
}

// Len returns the number of relations appended so far.
func (s *Store) Len() int { return len(s.ids) }

// Add appends a relation, interning its tags and member roles.
func (s *Store) Add(r entity.Relation, pred func(entity.Relation) bool) bool {
	if pred != nil && !pred(r) {
		return false
	}
	s.ids = append(s.ids, r.ID)
	for _, m := range r.Members {
		s.memberTypes = append(s.memberTypes, m.Type)
		s.memberRefs = append(s.memberRefs, m.Ref)
		s.memberRoleIdx = append(s.memberRoleIdx, s.strings.Intern(m.Role))
	}
	s.memberOffsets.Advance(len(r.Members))
	s.tags.Append(r.Tags)
	return true
}

// AddInterned appends a relation whose tags and member roles are already
// interned, used by osmix.From when rebuilding an Osm from Transferables.
func (s *Store) AddInterned(id int64, types []entity.MemberType, refs []int64, roleIdx []int32, internedTags []int32) {
	s.ids = append(s.ids, id)
	s.memberTypes = append(s.memberTypes, types...)
	s.memberRefs = append(s.memberRefs, refs...)
	s.memberRoleIdx = append(s.memberRoleIdx, roleIdx...)
	s.memberOffsets.Advance(len(types))
	s.tags.AppendInterned(internedTags)
}

// BuildIndex sorts a permutation of dense indexes by ID and builds the
// id->denseIndex hash map.
func (s *Store) BuildIndex() (ok bool, dupID int64) {
	n := len(s.ids)
	perm := make([]int32, n)
	for i := range perm {
		perm[i] = int32(i)
	}
	sort.Slice(perm, func(i, j int) bool { return s.ids[perm[i]] < s.ids[perm[j]] })
	s.sortedIdx = perm

	s.idIndex = swiss.NewIDTable(n)
	for i := 0; i < n; i++ {
		if !s.idIndex.Put(s.ids[i], int32(i)) {
			return false, s.ids[i]
		}
	}
	return true, 0
}

// BuildSpatialIndex resolves each relation's geometry (nodes/ways only --
// relation-type members are not recursively resolved for bbox purposes, to
// keep index construction O(members)) and constructs the R-tree.
func (s *Store) BuildSpatialIndex(nodes *nodestore.Store, ways *waystore.Store) {
	n := len(s.ids)
	s.bboxes = make([]geo.Bbox, n)
	s.spatial = rtree.New()
	for i := 0; i < n; i++ {
		b := geo.NewEmpty()
		start, end := s.memberOffsets.Range(i)
		for j := start; j < end; j++ {
			switch s.memberTypes[j] {
			case entity.MemberNode:
				if ni, ok := nodes.IndexOf(s.memberRefs[j]); ok {
					lon, lat := nodes.Coords(ni)
					b = b.Extend(lon, lat)
				}
			case entity.MemberWay:
				if wi, ok := ways.IndexOf(s.memberRefs[j]); ok {
					b = b.Union(ways.Bbox(wi))
				}
			}
		}
		s.bboxes[i] = b
		if !b.Empty() {
			s.spatial.Insert(i, b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
		}
	}
}

// Exists reports whether id is present.
func (s *Store) Exists(id int64) bool {
	_, ok := s.idIndex.Get(id)
	return ok
}

// IndexOf returns the dense index for id.
func (s *Store) IndexOf(id int64) (int, bool) {
	idx, ok := s.idIndex.Get(id)
	return int(idx), ok
}

// Members returns the materialised member list for relation i.
func (s *Store) Members(i int) []entity.Member {
	start, end := s.memberOffsets.Range(i)
	out := make([]entity.Member, 0, end-start)
	for j := start; j < end; j++ {
		out = append(out, entity.Member{
			Type: s.memberTypes[j],
			Ref:  s.memberRefs[j],
			Role: s.strings.Get(s.memberRoleIdx[j]),
		})
	}
	return out
}

// Get reconstructs the full entity.Relation at dense index i.
func (s *Store) Get(i int) entity.Relation {
	return entity.Relation{ID: s.ids[i], Members: s.Members(i), Tags: s.tags.GetTags(i)}
}

// GetByID reconstructs the relation with the given ID.
func (s *Store) GetByID(id int64) (entity.Relation, bool) {
	i, ok := s.IndexOf(id)
	if !ok {
		return entity.Relation{}, false
	}
	return s.Get(i), true
}

// Bbox returns the cached bbox for relation i.
func (s *Store) Bbox(i int) geo.Bbox { return s.bboxes[i] }

// Intersects returns the dense indexes of relations whose bbox intersects b.
func (s *Store) Intersects(b geo.Bbox) []int {
	return s.spatial.Search(b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Sorted iterates relations in ascending-ID order.
func (s *Store) Sorted(yield func(entity.Relation) bool) {
	for _, idx := range s.sortedIdx {
		if !yield(s.Get(int(idx))) {
			return
		}
	}
}

// SortedIndexes returns the dense indexes in ascending-ID order.
func (s *Store) SortedIndexes() []int32 { return s.sortedIdx }

// Search scans tags for entities matching key[=value].
func (s *Store) Search(key, value string) []int { return s.tags.Search(key, value) }

// Tags returns the owning tag store.
func (s *Store) Tags() *tagstore.Store { return s.tags }

// IDs exposes the raw id column for the transferable snapshot layout.
func (s *Store) IDs() []int64 { return s.ids }

// MemberOffsets exposes the raw N+1 memberOffsets column.
func (s *Store) MemberOffsets() []uint32 { return s.memberOffsets.Raw() }

// MemberTypes exposes the raw flat member-type column.
func (s *Store) MemberTypes() []entity.MemberType { return s.memberTypes }

// MemberRefs exposes the raw flat member-ref column.
func (s *Store) MemberRefs() []int64 { return s.memberRefs }

// MemberRoleIdx exposes the raw flat member-role string-index column.
func (s *Store) MemberRoleIdx() []int32 { return s.memberRoleIdx }

// ResolveGeometry resolves relation i's geometry against nodes/ways,
// assembling rings from way members that share endpoints (spec.md §4.2).
// maxDepth bounds relation->relation recursion (spec.md §9); pass 0 to use
// cycle.DefaultMaxDepth. When the way members do not all close into rings,
// a type=multipolygon relation yields (Geometry{}, false): no error, the
// relation is simply skipped by rendering. Any other relation yields its
// member lines as GeometryLineStrings.
func (s *Store) ResolveGeometry(i int, nodes *nodestore.Store, ways *waystore.Store, maxDepth int) (Geometry, bool) {
	return s.resolve(i, nodes, ways, cycle.NewGuard(maxDepth), 0)
}

func (s *Store) resolve(i int, nodes *nodestore.Store, ways *waystore.Store, guard *cycle.Guard, depth int) (Geometry, bool) {
	if !guard.Enter(i, depth) {
		return Geometry{}, false
	}
	defer guard.Leave(i)

	members := s.Members(i)
	var points [][2]float64
	var lines [][][2]float64
	sawWay := false

	for _, m := range members {
		switch m.Type {
		case entity.MemberNode:
			if ni, ok := nodes.IndexOf(m.Ref); ok {
				lon, lat := nodes.Coords(ni)
				points = append(points, [2]float64{lon, lat})
			}
		case entity.MemberWay:
			if wi, ok := ways.IndexOf(m.Ref); ok {
				sawWay = true
				coords := ways.GetCoordinates(wi, nodes)
				if len(coords) > 0 {
					lines = append(lines, coords)
				}
			}
		case entity.MemberRelation:
			if ri, ok := s.IndexOf(m.Ref); ok {
				if sub, ok := s.resolve(ri, nodes, ways, guard, depth+1); ok {
					switch sub.Kind {
					case GeometryPoints:
						points = append(points, sub.Points...)
					case GeometryLineStrings:
						lines = append(lines, sub.LineStrings...)
					case GeometryRings:
						lines = append(lines, sub.Rings...)
					}
				}
			}
		}
	}

	if sawWay {
		rings, ok := assembleRings(lines)
		if ok {
			return Geometry{Kind: GeometryRings, Rings: rings}, true
		}
		if t, _ := s.tags.GetTags(i).Get("type"); t == "multipolygon" {
			return Geometry{}, false
		}
		if len(lines) > 0 {
			return Geometry{Kind: GeometryLineStrings, LineStrings: lines}, true
		}
		return Geometry{}, false
	}
	if len(points) > 0 {
		return Geometry{Kind: GeometryPoints, Points: points}, true
	}
	return Geometry{}, false
}

// assembleRings greedily chains polylines sharing endpoints into closed
// rings. It returns ok=false if any chain fails to close, per spec.md §4.2
// "failure (open ring) yields no geometry and no error".
func assembleRings(lines [][][2]float64) ([][][2]float64, bool) {
	if len(lines) == 0 {
		return nil, false
	}
	remaining := make([][][2]float64, len(lines))
	copy(remaining, lines)

	var rings [][][2]float64
	for len(remaining) > 0 {
		chain := remaining[0]
		remaining = remaining[1:]

		for {
			if len(chain) == 0 {
				return nil, false
			}
			if chain[0] == chain[len(chain)-1] && len(chain) > 1 {
				break // closed
			}
			tail := chain[len(chain)-1]
			joined := false
			for idx, cand := range remaining {
				if cand[0] == tail {
					chain = append(chain, cand[1:]...)
					remaining = append(remaining[:idx], remaining[idx+1:]...)
					joined = true
					break
				}
				if cand[len(cand)-1] == tail {
					rev := reverse(cand)
					chain = append(chain, rev[1:]...)
					remaining = append(remaining[:idx], remaining[idx+1:]...)
					joined = true
					break
				}
			}
			if !joined {
				return nil, false
			}
		}
		rings = append(rings, chain)
	}
	return rings, true
}

func reverse(pts [][2]float64) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// Package waystore implements the columnar WayStore (spec.md §4.2): ids,
// a flat refs buffer with per-way (offset,length), tags, a per-way bbox
// cache, and an R-tree over those bboxes.
package waystore

import (
	"sort"

	"github.com/conveyal/osmix-sub003/internal/columnar"
	"github.com/conveyal/osmix-sub003/internal/entity"
	"github.com/conveyal/osmix-sub003/internal/geo"
	"github.com/conveyal/osmix-sub003/internal/nodestore"
	"github.com/conveyal/osmix-sub003/internal/rtree"
	"github.com/conveyal/osmix-sub003/internal/strtable"
	"github.com/conveyal/osmix-sub003/internal/swiss"
	"github.com/conveyal/osmix-sub003/internal/tagstore"
)

// Store is the WayStore.
type Store struct {
	strings *strtable.Table
	tags    *tagstore.Store

	ids        []int64
	refOffsets *columnar.OffsetBuffer
	refs       []int64

	bboxes    []geo.Bbox
	sortedIdx []int32
	idIndex   *swiss.IDTable
	spatial   *rtree.Tree
}

// New creates an empty Store sharing strings with the owning Osm.
func New(strings *strtable.Table) *Store {
	return &Store{
		strings:    strings,
		tags:       tagstore.New(strings),
		refOffsets: columnar.NewOffsetBuffer(64),
	}
}

// Len returns the number of ways appended so far.
func (s *Store) Len() int { return len(s.ids) }

// Add appends a way, interning its tags. pred, if non-nil, may reject the
// way (e.g. because its refs fall outside an extract bbox).
func (s *Store) Add(w entity.Way, pred func(entity.Way) bool) bool {
	if pred != nil && !pred(w) {
		return false
	}
	s.ids = append(s.ids, w.ID)
	s.refs = append(s.refs, w.Refs...)
	s.refOffsets.Advance(len(w.Refs))
	s.tags.Append(w.Tags)
	return true
}

// AddInterned appends a way whose tags are already interned (keyIdx,valIdx)
// pairs, used by osmix.From when rebuilding an Osm from Transferables.
func (s *Store) AddInterned(id int64, refs []int64, internedTags []int32) {
	s.ids = append(s.ids, id)
	s.refs = append(s.refs, refs...)
	s.refOffsets.Advance(len(refs))
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

// BuildSpatialIndex resolves each way's bbox against nodes and constructs
// the R-tree. A way whose refs are not fully resolvable (e.g. a filtered
// extract) gets the bbox of whichever refs do resolve; a way with zero
// resolvable refs is left out of the spatial index entirely.
func (s *Store) BuildSpatialIndex(nodes *nodestore.Store) {
	n := len(s.ids)
	s.bboxes = make([]geo.Bbox, n)
	s.spatial = rtree.New()
	for i := 0; i < n; i++ {
		start, end := s.refOffsets.Range(i)
		b := geo.NewEmpty()
		for _, ref := range s.refs[start:end] {
			if ni, ok := nodes.IndexOf(ref); ok {
				lon, lat := nodes.Coords(ni)
				b = b.Extend(lon, lat)
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

// Refs returns the raw node-id references for way i.
func (s *Store) Refs(i int) []int64 {
	start, end := s.refOffsets.Range(i)
	return s.refs[start:end]
}

// Get reconstructs the full entity.Way at dense index i.
func (s *Store) Get(i int) entity.Way {
	refs := s.Refs(i)
	out := make([]int64, len(refs))
	copy(out, refs)
	return entity.Way{ID: s.ids[i], Refs: out, Tags: s.tags.GetTags(i)}
}

// GetByID reconstructs the way with the given ID.
func (s *Store) GetByID(id int64) (entity.Way, bool) {
	i, ok := s.IndexOf(id)
	if !ok {
		return entity.Way{}, false
	}
	return s.Get(i), true
}

// GetCoordinates resolves way i's refs against nodes and returns the
// resulting [lon,lat] polyline (spec.md §4.2).
func (s *Store) GetCoordinates(i int, nodes *nodestore.Store) [][2]float64 {
	refs := s.Refs(i)
	coords := make([][2]float64, 0, len(refs))
	for _, ref := range refs {
		if ni, ok := nodes.IndexOf(ref); ok {
			lon, lat := nodes.Coords(ni)
			coords = append(coords, [2]float64{lon, lat})
		}
	}
	return coords
}

// Bbox returns the cached bbox for way i (valid only after
// BuildSpatialIndex).
func (s *Store) Bbox(i int) geo.Bbox { return s.bboxes[i] }

// TotalBbox returns the bounding box of every way in the store.
func (s *Store) TotalBbox() geo.Bbox {
	b := geo.NewEmpty()
	for _, wb := range s.bboxes {
		b = b.Union(wb)
	}
	return b
}

// Intersects returns the dense indexes of ways whose bbox intersects b,
// optionally filtered by pred (spec.md §4.2, §4.6 "Ways that are members of
// rendered relations are excluded").
func (s *Store) Intersects(b geo.Bbox, pred func(i int) bool) []int {
	candidates := s.spatial.Search(b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
	if pred == nil {
		return candidates
	}
	out := candidates[:0]
	for _, idx := range candidates {
		if pred(idx) {
			out = append(out, idx)
		}
	}
	return out
}

// Sorted iterates ways in ascending-ID order.
func (s *Store) Sorted(yield func(entity.Way) bool) {
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

// RefOffsets exposes the raw refOffsets column.
func (s *Store) RefOffsets() []uint32 { return s.refOffsets.Raw() }

// Refs64 exposes the raw flat refs column.
func (s *Store) Refs64() []int64 { return s.refs }

// SpliceRef inserts newRef into way i's ref list immediately after the
// refIdx-th ref (0-based position within that way). This rebuilds the flat
// refs buffer and offsets on every call. The intersection pass does not use
// it: it splices into its own rewritten copies of the ways instead.
func (s *Store) SpliceRef(i int, afterPos int, newRef int64) {
	start, end := s.refOffsets.Range(i)
	old := append([]int64(nil), s.refs[start:end]...)
	insertAt := afterPos + 1
	if insertAt < 0 {
		insertAt = 0
	}
	if insertAt > len(old) {
		insertAt = len(old)
	}
	updated := make([]int64, 0, len(old)+1)
	updated = append(updated, old[:insertAt]...)
	updated = append(updated, newRef)
	updated = append(updated, old[insertAt:]...)

	newRefs := make([]int64, 0, len(s.refs)+1)
	newRefs = append(newRefs, s.refs[:start]...)
	newRefs = append(newRefs, updated...)
	newRefs = append(newRefs, s.refs[end:]...)
	s.refs = newRefs

	offs := s.refOffsets.Raw()
	delta := uint32(len(updated) - len(old))
	for j := i + 1; j < len(offs); j++ {
		offs[j] += delta
	}
}

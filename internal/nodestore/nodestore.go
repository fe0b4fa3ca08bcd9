// Package nodestore implements the columnar NodeStore (spec.md §4.2):
// parallel id/lon/lat arrays plus the node spatial index.
package nodestore

import (
	"sort"

	"github.com/conveyal/osmix-sub003/internal/entity"
	"github.com/conveyal/osmix-sub003/internal/geo"
	"github.com/conveyal/osmix-sub003/internal/rtree"
	"github.com/conveyal/osmix-sub003/internal/strtable"
	"github.com/conveyal/osmix-sub003/internal/swiss"
	"github.com/conveyal/osmix-sub003/internal/tagstore"
)

// quantise converts a float degree value to nanodegree (1e-7) fixed point,
// the PBF wire representation (spec.md §3 invariant 6).
func quantise(deg float64) int32 {
	if deg >= 0 {
		return int32(deg*1e7 + 0.5)
	}
	return int32(deg*1e7 - 0.5)
}

func dequantise(q int32) float64 {
	return float64(q) / 1e7
}

// Store is the NodeStore.
type Store struct {
	strings *strtable.Table
	tags    *tagstore.Store

	ids  []int64
	lonQ []int32
	latQ []int32

	sortedIdx []int32 // dense indexes in ascending-ID order, set by BuildIndex
	idIndex   *swiss.IDTable
	spatial   *rtree.Tree
}

// New creates an empty Store sharing strings with the owning Osm.
func New(strings *strtable.Table) *Store {
	return &Store{
		strings: strings,
		tags:    tagstore.New(strings),
	}
}

// Len returns the number of nodes appended so far.
func (s *Store) Len() int { return len(s.ids) }

// Add appends a node, interning its tags. pred, if non-nil, may reject the
// node (bbox-extract filtering, spec.md §4.2).
func (s *Store) Add(n entity.Node, pred func(entity.Node) bool) (added bool) {
	if pred != nil && !pred(n) {
		return false
	}
	s.ids = append(s.ids, n.ID)
	s.lonQ = append(s.lonQ, quantise(n.Lon))
	s.latQ = append(s.latQ, quantise(n.Lat))
	s.tags.Append(n.Tags)
	return true
}

// AddQuantised appends a node whose coordinates are already nanodegree
// fixed-point, with tags already interned as (keyIdx,valIdx) pairs -- used
// by osmix.From when rebuilding an Osm from Transferables.
func (s *Store) AddQuantised(id int64, lonQ, latQ int32, internedTags []int32) {
	s.ids = append(s.ids, id)
	s.lonQ = append(s.lonQ, lonQ)
	s.latQ = append(s.latQ, latQ)
	s.tags.AppendInterned(internedTags)
}

// BuildIndex sorts a permutation of dense indexes by ID and builds the
// id->denseIndex hash map (spec.md §4.2 buildIndex). Returns false if a
// duplicate ID was found (caller reports ErrDuplicateID).
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

// BuildSpatialIndex constructs the node spatial index over (lon, lat).
func (s *Store) BuildSpatialIndex() {
	s.spatial = rtree.New()
	for i := range s.ids {
		lon, lat := s.Coords(i)
		s.spatial.InsertPoint(i, lon, lat)
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

// Coords returns the (lon, lat) of node i, dequantised.
func (s *Store) Coords(i int) (lon, lat float64) {
	return dequantise(s.lonQ[i]), dequantise(s.latQ[i])
}

// Get reconstructs the full entity.Node at dense index i.
func (s *Store) Get(i int) entity.Node {
	lon, lat := s.Coords(i)
	return entity.Node{ID: s.ids[i], Lon: lon, Lat: lat, Tags: s.tags.GetTags(i)}
}

// GetByID reconstructs the node with the given ID.
func (s *Store) GetByID(id int64) (entity.Node, bool) {
	i, ok := s.IndexOf(id)
	if !ok {
		return entity.Node{}, false
	}
	return s.Get(i), true
}

// Sorted iterates nodes in ascending-ID order, as PBF export requires
// (spec.md §4.2 sorted(), §5 "Exports emit entities in ascending ID order").
func (s *Store) Sorted(yield func(entity.Node) bool) {
	for _, idx := range s.sortedIdx {
		if !yield(s.Get(int(idx))) {
			return
		}
	}
}

// SortedIndexes returns the dense indexes in ascending-ID order.
func (s *Store) SortedIndexes() []int32 { return s.sortedIdx }

// Bbox returns the bounding box of every node in the store.
func (s *Store) Bbox() geo.Bbox {
	b := geo.NewEmpty()
	for i := range s.ids {
		lon, lat := s.Coords(i)
		b = b.Extend(lon, lat)
	}
	return b
}

// FindWithinBbox returns the dense indexes of nodes within b (spec.md §8
// property 4).
func (s *Store) FindWithinBbox(b geo.Bbox) []int {
	return s.spatial.Search(b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Search scans tags for entities matching key[=value] (spec.md §4.2).
func (s *Store) Search(key, value string) []int { return s.tags.Search(key, value) }

// Tags returns the owning tag store (used by the PBF encoder to rebuild a
// per-block local string table).
func (s *Store) Tags() *tagstore.Store { return s.tags }

// IDs exposes the raw id column for the transferable snapshot layout.
func (s *Store) IDs() []int64 { return s.ids }

// LonQ exposes the raw quantised longitude column.
func (s *Store) LonQ() []int32 { return s.lonQ }

// LatQ exposes the raw quantised latitude column.
func (s *Store) LatQ() []int32 { return s.latQ }

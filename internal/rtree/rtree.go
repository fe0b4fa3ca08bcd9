// Package rtree wraps github.com/dhconnelly/rtreego with the narrow bbox
// query surface the node/way/relation stores need. rtreego is a direct
// dependency of the S-57 nautical-chart parser in the retrieval pack
// (beetlebugorg-s57, per its go.mod manifest), and is reused here for all
// three spatial indexes described in spec.md §3 -- including the node
// KDBush index, for which no idiomatic Go port exists in the example pack;
// an R-tree over degenerate (zero-area) point rectangles serves the same
// "bbox-query the index" role.
package rtree

import (
	"github.com/dhconnelly/rtreego"
)

const (
	minChildren = 25
	maxChildren = 50
	dims        = 2

	// epsilon keeps degenerate (point or axis-aligned-line) rectangles
	// non-zero in every dimension, which rtreego requires.
	epsilon = 1e-12
)

// Item is a spatial entry carrying the owning store's dense index.
type Item struct {
	Index int
	rect  rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (it *Item) Bounds() rtreego.Rect { return it.rect }

// Tree is a thin wrapper over *rtreego.Rtree keyed by dense index.
type Tree struct {
	rt *rtreego.Rtree
}

// New creates an empty Tree.
func New() *Tree {
	return &Tree{rt: rtreego.NewTree(dims, minChildren, maxChildren)}
}

// rect builds an rtreego.Rect from an inclusive [minLon,minLat,maxLon,maxLat]
// box, padding degenerate dimensions by epsilon.
func rect(minLon, minLat, maxLon, maxLat float64) rtreego.Rect {
	w := maxLon - minLon
	h := maxLat - minLat
	if w < epsilon {
		w = epsilon
	}
	if h < epsilon {
		h = epsilon
	}
	r, err := rtreego.NewRect(rtreego.Point{minLon, minLat}, []float64{w, h})
	if err != nil {
		// Only possible if a length is negative, which callers never pass
		// (bbox min <= max is a columnar-store invariant upstream).
		panic("rtree: invalid rect: " + err.Error())
	}
	return r
}

// Insert adds index with the given inclusive bounding box.
func (t *Tree) Insert(index int, minLon, minLat, maxLon, maxLat float64) {
	t.rt.Insert(&Item{Index: index, rect: rect(minLon, minLat, maxLon, maxLat)})
}

// InsertPoint adds index at a single point (used for the node index).
func (t *Tree) InsertPoint(index int, lon, lat float64) {
	t.Insert(index, lon, lat, lon, lat)
}

// Search returns the dense indexes of every item whose bbox intersects the
// inclusive query box.
func (t *Tree) Search(minLon, minLat, maxLon, maxLat float64) []int {
	results := t.rt.SearchIntersect(rect(minLon, minLat, maxLon, maxLat))
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.(*Item).Index
	}
	return out
}

// Len returns the number of indexed items.
func (t *Tree) Len() int { return t.rt.Size() }

// Package geo collects the small geometric primitives the index needs:
// bounding boxes, great-circle distance, and robust 2D segment intersection.
// It is built on top of github.com/paulmach/orb, the geometry package used
// throughout the OSM tooling examples in the retrieval pack
// (azybler-map_router, protomaps-go-pmtiles).
package geo

import (
	"github.com/paulmach/orb"
)

// Bbox is an axis-aligned bounding box: [minLon, minLat, maxLon, maxLat],
// matching spec.md's GLOSSARY definition. All comparisons are inclusive.
type Bbox struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// Empty reports whether b has never been extended (min > max on either axis).
func (b Bbox) Empty() bool {
	return b.MinLon > b.MaxLon || b.MinLat > b.MaxLat
}

// ContainsPoint reports whether (lon, lat) falls within b, inclusive.
func (b Bbox) ContainsPoint(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// Intersects reports whether b and other share any area or boundary.
func (b Bbox) Intersects(other Bbox) bool {
	if b.Empty() || other.Empty() {
		return false
	}
	return b.MinLon <= other.MaxLon && b.MaxLon >= other.MinLon &&
		b.MinLat <= other.MaxLat && b.MaxLat >= other.MinLat
}

// Contains reports whether b fully contains other.
func (b Bbox) Contains(other Bbox) bool {
	if other.Empty() {
		return true
	}
	return other.MinLon >= b.MinLon && other.MaxLon <= b.MaxLon &&
		other.MinLat >= b.MinLat && other.MaxLat <= b.MaxLat
}

// Extend grows b (in place semantics via return value) to include (lon, lat).
func (b Bbox) Extend(lon, lat float64) Bbox {
	if b.Empty() {
		return Bbox{lon, lat, lon, lat}
	}
	if lon < b.MinLon {
		b.MinLon = lon
	}
	if lon > b.MaxLon {
		b.MaxLon = lon
	}
	if lat < b.MinLat {
		b.MinLat = lat
	}
	if lat > b.MaxLat {
		b.MaxLat = lat
	}
	return b
}

// Union returns the smallest Bbox containing both b and other.
func (b Bbox) Union(other Bbox) Bbox {
	if b.Empty() {
		return other
	}
	if other.Empty() {
		return b
	}
	return b.Extend(other.MinLon, other.MinLat).Extend(other.MaxLon, other.MaxLat)
}

// NewEmpty returns a Bbox for which Empty() is true, ready to be grown with
// Extend.
func NewEmpty() Bbox {
	return Bbox{MinLon: 1, MinLat: 1, MaxLon: -1, MaxLat: -1}
}

// Point converts (lon, lat) to an orb.Point ({X: lon, Y: lat}).
func Point(lon, lat float64) orb.Point {
	return orb.Point{lon, lat}
}

// Bound converts b to an orb.Bound.
func (b Bbox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// FromBound converts an orb.Bound back to a Bbox.
func FromBound(b orb.Bound) Bbox {
	return Bbox{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}

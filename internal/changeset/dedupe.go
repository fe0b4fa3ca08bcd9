package changeset

import (
	"math"

	"github.com/conveyal/osmix-sub003/internal/entity"
	"github.com/conveyal/osmix-sub003/internal/geo"
	"github.com/conveyal/osmix-sub003/internal/nodestore"
)

// metersPerDegree approximates degrees-of-latitude to meters, used only to
// size the coarse candidate-radius bbox query; the actual accept/reject
// decision always uses the great-circle distance (spec.md §4.2).
const metersPerDegree = 111320.0

// dedupeNodeTargets finds, for each patch node, the base node it duplicates
// (spec.md §4.5 "Node deduplication pass"). Patch nodes are visited in
// ascending-ID order (patch.Sorted requires patch.BuildIndex to have run),
// so when several patch nodes would collapse onto the same base node the
// lowest patch ID is simply the first one considered -- no further
// tie-break bookkeeping is needed for that rule to hold.
func dedupeNodeTargets(base, patch *nodestore.Store, strictToleranceMeters, candidateRadiusMeters float64, stats *Stats) map[int64]int64 {
	targets := make(map[int64]int64)
	radiusDeg := candidateRadiusMeters / metersPerDegree

	patch.Sorted(func(pn entity.Node) bool {
		bbox := geo.Bbox{
			MinLon: pn.Lon - radiusDeg, MinLat: pn.Lat - radiusDeg,
			MaxLon: pn.Lon + radiusDeg, MaxLat: pn.Lat + radiusDeg,
		}
		candidates := base.FindWithinBbox(bbox)

		bestIdx := -1
		bestDist := math.MaxFloat64
		bestID := int64(math.MaxInt64)
		for _, ci := range candidates {
			bn := base.Get(ci)
			d := geo.DistanceMeters(pn.Lon, pn.Lat, bn.Lon, bn.Lat)
			if d > candidateRadiusMeters || d > strictToleranceMeters {
				continue
			}
			if tagsConflict(pn.Tags, bn.Tags) {
				continue
			}
			if d < bestDist || (d == bestDist && bn.ID < bestID) {
				bestIdx, bestDist, bestID = ci, d, bn.ID
			}
		}
		if bestIdx >= 0 {
			targets[pn.ID] = bestID
			stats.DeduplicatedNodes++
		}
		return true
	})
	return targets
}

// tagsConflict reports whether a and b share a key with differing values,
// the condition under which a dedupe match is rejected (spec.md §4.5 "tags
// do not conflict").
func tagsConflict(a, b entity.Tags) bool {
	bm := b.Map()
	for _, t := range a {
		if v, ok := bm[t.Key]; ok && v != t.Value {
			return true
		}
	}
	return false
}

// rewriteNodeRefs replaces any ref present in targets with its mapped base
// ID, reporting whether anything changed.
func rewriteNodeRefs(refs []int64, targets map[int64]int64) ([]int64, bool) {
	if len(targets) == 0 {
		return refs, false
	}
	changed := false
	out := make([]int64, len(refs))
	for i, r := range refs {
		if mapped, ok := targets[r]; ok {
			out[i] = mapped
			changed = true
		} else {
			out[i] = r
		}
	}
	return out, changed
}

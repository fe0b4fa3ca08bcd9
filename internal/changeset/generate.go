package changeset

import (
	"github.com/conveyal/osmix-sub003/internal/entity"
	"github.com/conveyal/osmix-sub003/internal/entityeq"
	"github.com/conveyal/osmix-sub003/internal/nodestore"
)

// Generate produces a Changeset describing how to turn base into patch,
// optionally deduplicating coincident nodes and splicing in intersection
// nodes for crossing highway ways (spec.md §4.5).
func Generate(base, patch Snapshot, opts Options) *Changeset {
	cs := &Changeset{}

	dupeTarget := map[int64]int64{}
	if opts.DedupeNodes {
		strict := opts.StrictToleranceMeters
		if strict <= 0 {
			strict = 0.001
		}
		radius := opts.CandidateRadiusMeters
		if radius <= 0 {
			radius = 10
		}
		dupeTarget = dedupeNodeTargets(base.Nodes, patch.Nodes, strict, radius, &cs.Stats)
	}

	rw := newRewrittenWays(patch.Ways, dupeTarget)
	rr := newRewrittenRelations(patch.Rels, dupeTarget)
	cs.Stats.DeduplicatedWays = len(rw.touched)
	if len(dupeTarget) > 0 {
		patch.Ways.Sorted(func(w entity.Way) bool {
			for _, ref := range w.Refs {
				if _, ok := dupeTarget[ref]; ok {
					cs.Stats.DeduplicatedNodesReplaced++
				}
			}
			return true
		})
	}

	if opts.Intersections {
		ids := NewIDAllocator(base, patch)
		createIntersectionsForWays(base, patch, rw, ids, cs)
	}

	generateNodeChanges(base.Nodes, patch.Nodes, dupeTarget, cs)
	for _, id := range rw.ids {
		emitWayChange(base.Ways.GetByID, id, rw.byID[id], rw.touched[id], cs)
	}
	for _, id := range rr.ids {
		emitRelationChange(base.Rels.GetByID, id, rr.byID[id], cs)
	}

	return cs
}

func generateNodeChanges(base, patch *nodestore.Store, dupeTarget map[int64]int64, cs *Changeset) {
	patch.Sorted(func(pn entity.Node) bool {
		if _, deduped := dupeTarget[pn.ID]; deduped {
			return true
		}
		bn, ok := base.GetByID(pn.ID)
		switch {
		case !ok:
			n := pn
			cs.add(Change{Type: Create, Kind: KindNode, Node: &n})
		case !entityeq.Node(pn, bn):
			n := pn
			cs.add(Change{Type: Modify, Kind: KindNode, Node: &n})
		}
		return true
	})
}

func emitWayChange(getByID func(int64) (entity.Way, bool), id int64, w entity.Way, touched bool, cs *Changeset) {
	bw, ok := getByID(id)
	switch {
	case !ok:
		ww := w
		cs.add(Change{Type: Create, Kind: KindWay, Way: &ww})
	case touched || !entityeq.Way(w, bw):
		ww := w
		cs.add(Change{Type: Modify, Kind: KindWay, Way: &ww})
	}
}

func emitRelationChange(getByID func(int64) (entity.Relation, bool), id int64, r entity.Relation, cs *Changeset) {
	br, ok := getByID(id)
	switch {
	case !ok:
		rr := r
		cs.add(Change{Type: Create, Kind: KindRelation, Relation: &rr})
	case !entityeq.Relation(r, br):
		rr := r
		cs.add(Change{Type: Modify, Kind: KindRelation, Relation: &rr})
	}
}

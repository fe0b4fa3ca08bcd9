package changeset

import (
	"github.com/conveyal/osmix-sub003/internal/entity"
	"github.com/conveyal/osmix-sub003/internal/relstore"
	"github.com/conveyal/osmix-sub003/internal/waystore"
)

// rewrittenWays holds, per patch way ID (in ascending order), the way's
// entity with any deduplicated node refs already rewritten to their base
// target. The intersection pass further mutates entries in place (splicing
// in synthesized refs) before the final diff emits create/modify changes.
type rewrittenWays struct {
	ids     []int64
	byID    map[int64]entity.Way
	touched map[int64]bool // way IDs whose refs were rewritten (dedupe or splice)
}

func newRewrittenWays(patch *waystore.Store, dupeTarget map[int64]int64) *rewrittenWays {
	rw := &rewrittenWays{byID: make(map[int64]entity.Way, patch.Len()), touched: make(map[int64]bool)}
	patch.Sorted(func(w entity.Way) bool {
		refs, changed := rewriteNodeRefs(w.Refs, dupeTarget)
		w.Refs = refs
		rw.ids = append(rw.ids, w.ID)
		rw.byID[w.ID] = w
		if changed {
			rw.touched[w.ID] = true
		}
		return true
	})
	return rw
}

// spliceRef inserts newRef into way id's ref list immediately after
// position afterPos (0-based), marking the way as touched. id may be a base
// way never seen by newRewrittenWays (patch only seeds patch-side IDs); in
// that case w is pulled from base and id is added to rw.ids so the emit pass
// in Generate reaches it.
func (rw *rewrittenWays) spliceRef(id int64, afterPos int, newRef int64, base *waystore.Store) {
	w, ok := rw.byID[id]
	if !ok {
		w, ok = base.GetByID(id)
		if !ok {
			return
		}
		rw.ids = append(rw.ids, id)
	}
	insertAt := afterPos + 1
	if insertAt < 0 {
		insertAt = 0
	}
	if insertAt > len(w.Refs) {
		insertAt = len(w.Refs)
	}
	refs := make([]int64, 0, len(w.Refs)+1)
	refs = append(refs, w.Refs[:insertAt]...)
	refs = append(refs, newRef)
	refs = append(refs, w.Refs[insertAt:]...)
	w.Refs = refs
	rw.byID[id] = w
	rw.touched[id] = true
}

// rewrittenRelations holds, per patch relation ID, the relation entity with
// any deduplicated node-member refs already rewritten.
type rewrittenRelations struct {
	ids  []int64
	byID map[int64]entity.Relation
}

func newRewrittenRelations(patch *relstore.Store, dupeTarget map[int64]int64) *rewrittenRelations {
	rr := &rewrittenRelations{byID: make(map[int64]entity.Relation, patch.Len())}
	patch.Sorted(func(r entity.Relation) bool {
		if len(dupeTarget) > 0 {
			for i, m := range r.Members {
				if m.Type != entity.MemberNode {
					continue
				}
				if mapped, ok := dupeTarget[m.Ref]; ok {
					r.Members[i].Ref = mapped
				}
			}
		}
		rr.ids = append(rr.ids, r.ID)
		rr.byID[r.ID] = r
		return true
	})
	return rr
}

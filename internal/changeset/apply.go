package changeset

import "github.com/conveyal/osmix-sub003/internal/entity"

// Apply copies base into dst, skipping any entity that has a modify or
// delete change, then appends every create/modify entity from cs (spec.md
// §4.5 "Apply"). dst must be freshly constructed, empty stores sharing one
// string table; the caller (osmix) is responsible for calling BuildIndexes
// (and BuildSpatialIndexes, if needed) on dst afterward.
//
// Applying the same Changeset against the same base twice produces the
// same dst both times, since the skip-then-append sequence depends only on
// cs and base, never on dst's prior state.
func Apply(dst, base Snapshot, cs *Changeset) {
	skipNode := make(map[int64]bool)
	skipWay := make(map[int64]bool)
	skipRel := make(map[int64]bool)
	for _, c := range cs.Changes {
		if c.Type == Modify || c.Type == Delete {
			switch c.Kind {
			case KindNode:
				skipNode[c.Node.ID] = true
			case KindWay:
				skipWay[c.Way.ID] = true
			case KindRelation:
				skipRel[c.Relation.ID] = true
			}
		}
	}

	base.Nodes.Sorted(func(n entity.Node) bool {
		if !skipNode[n.ID] {
			dst.Nodes.Add(n, nil)
		}
		return true
	})
	base.Ways.Sorted(func(w entity.Way) bool {
		if !skipWay[w.ID] {
			dst.Ways.Add(w, nil)
		}
		return true
	})
	base.Rels.Sorted(func(r entity.Relation) bool {
		if !skipRel[r.ID] {
			dst.Rels.Add(r, nil)
		}
		return true
	})

	for _, c := range cs.Changes {
		if c.Type == Delete {
			continue
		}
		switch c.Kind {
		case KindNode:
			dst.Nodes.Add(*c.Node, nil)
		case KindWay:
			dst.Ways.Add(*c.Way, nil)
		case KindRelation:
			dst.Rels.Add(*c.Relation, nil)
		}
	}
}

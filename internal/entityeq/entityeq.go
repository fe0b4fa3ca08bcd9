// Package entityeq implements tag-order-insensitive deep equality for the
// three entity kinds, used by the changeset engine's direct diff (spec.md
// §4.5, §8 property 5). Adapted from the teacher's internal/prototest
// comparison helpers (field-by-field struct comparison with a normalized
// view of order-insensitive collections), reshaped around tagstore.Tags
// instead of protobuf message reflection.
package entityeq

import "github.com/conveyal/osmix-sub003/internal/entity"

// Tags reports whether a and b contain the same (key, value) pairs,
// ignoring order.
func Tags(a, b entity.Tags) bool {
	if len(a) != len(b) {
		return false
	}
	am := a.Map()
	bm := b.Map()
	if len(am) != len(bm) {
		return false
	}
	for k, v := range am {
		if bv, ok := bm[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// Node reports whether a and b are equal: same ID, coordinates, and tags.
func Node(a, b entity.Node) bool {
	return a.ID == b.ID && a.Lon == b.Lon && a.Lat == b.Lat && Tags(a.Tags, b.Tags)
}

// Way reports whether a and b are equal: same ID, ref list (order
// significant -- a way is an ordered path), and tags.
func Way(a, b entity.Way) bool {
	if a.ID != b.ID || len(a.Refs) != len(b.Refs) {
		return false
	}
	for i := range a.Refs {
		if a.Refs[i] != b.Refs[i] {
			return false
		}
	}
	return Tags(a.Tags, b.Tags)
}

// Relation reports whether a and b are equal: same ID, ordered member list,
// and tags.
func Relation(a, b entity.Relation) bool {
	if a.ID != b.ID || len(a.Members) != len(b.Members) {
		return false
	}
	for i := range a.Members {
		if a.Members[i] != b.Members[i] {
			return false
		}
	}
	return Tags(a.Tags, b.Tags)
}

package changeset

// IDAllocator mints synthetic node IDs for intersection points, guaranteed
// disjoint from every real (positive, OSM-assigned) ID: it starts one below
// the lowest ID seen across both sides of the changeset and counts down
// (spec.md §4.5 supplement).
type IDAllocator struct {
	next int64
}

// NewIDAllocator seeds an allocator from the lowest node ID present in
// either snapshot.
func NewIDAllocator(snapshots ...Snapshot) *IDAllocator {
	min := int64(0)
	seen := false
	for _, s := range snapshots {
		for _, id := range s.Nodes.IDs() {
			if !seen || id < min {
				min, seen = id, true
			}
		}
	}
	if !seen {
		min = 0
	}
	return &IDAllocator{next: min - 1}
}

// Next returns the next synthetic ID and advances the counter.
func (a *IDAllocator) Next() int64 {
	id := a.next
	a.next--
	return id
}

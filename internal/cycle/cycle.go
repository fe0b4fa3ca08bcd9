// Package cycle guards relation-geometry resolution against reference
// cycles (relation -> relation) and excessive depth, per spec.md §9's design
// note ("Reference cycles in relations -> indirection through ID ... broken
// by a maximum depth (default 10) ... and by memoizing visited IDs").
//
// The teacher's internal/scc package computes strongly-connected components
// over a message-type reference graph to detect recursive protobuf message
// definitions at compile time, once, for the whole schema. Our cycle check
// instead has to run per geometry-resolution call, cheaply, against a graph
// that is only fully known at query time (relations can reference relations
// added after them) -- so rather than precomputing SCCs we carry a small
// visited-set + depth counter through the recursive descent, which is the
// standard shape for this kind of guard.
package cycle

// DefaultMaxDepth is the default recursion limit for relation geometry
// resolution (spec.md §9).
const DefaultMaxDepth = 10

// Guard tracks visited relation dense-indexes and remaining depth budget
// for a single ResolveGeometry call.
type Guard struct {
	visited  map[int]bool
	maxDepth int
}

// NewGuard creates a Guard with the given depth budget.
func NewGuard(maxDepth int) *Guard {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Guard{visited: make(map[int]bool, 8), maxDepth: maxDepth}
}

// Enter reports whether relation index idx at depth may be visited: false if
// it was already visited (a cycle) or depth exceeds the budget. On success it
// marks idx visited.
func (g *Guard) Enter(idx, depth int) bool {
	if depth > g.maxDepth {
		return false
	}
	if g.visited[idx] {
		return false
	}
	g.visited[idx] = true
	return true
}

// Leave un-marks idx, allowing it to be visited again along a sibling (not
// ancestor) branch of the resolution tree.
func (g *Guard) Leave(idx int) {
	delete(g.visited, idx)
}

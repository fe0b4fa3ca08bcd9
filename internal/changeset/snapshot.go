package changeset

import (
	"github.com/conveyal/osmix-sub003/internal/nodestore"
	"github.com/conveyal/osmix-sub003/internal/relstore"
	"github.com/conveyal/osmix-sub003/internal/waystore"
)

// Snapshot bundles the three entity stores of an Osm, the unit this package
// operates on for both "base" and "patch" sides of a changeset.
type Snapshot struct {
	Nodes *nodestore.Store
	Ways  *waystore.Store
	Rels  *relstore.Store
}

package changeset_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conveyal/osmix-sub003/internal/changeset"
	"github.com/conveyal/osmix-sub003/internal/fixtures"
)

func TestDirectDiff(t *testing.T) {
	t.Parallel()

	base := fixtures.DirectDiffBase()
	patch := fixtures.DirectDiffPatch()

	cs := changeset.Generate(
		changeset.Snapshot{Nodes: base.Nodes(), Ways: base.Ways(), Rels: base.Relations()},
		changeset.Snapshot{Nodes: patch.Nodes(), Ways: patch.Ways(), Rels: patch.Relations()},
		changeset.Options{},
	)

	require.Equal(t, 2, cs.Stats.TotalChanges)
	require.Equal(t, 1, cs.Stats.NodesModified)
	require.Equal(t, 1, cs.Stats.NodesCreated)

	var sawModify, sawCreate bool
	for _, c := range cs.Changes {
		switch c.Type {
		case changeset.Modify:
			require.Equal(t, int64(5), c.Node.ID)
			sawModify = true
		case changeset.Create:
			require.Equal(t, int64(6), c.Node.ID)
			sawCreate = true
		}
	}
	require.True(t, sawModify)
	require.True(t, sawCreate)
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	base := fixtures.DedupeBase()
	patch := fixtures.DedupePatch()

	cs := changeset.Generate(
		changeset.Snapshot{Nodes: base.Nodes(), Ways: base.Ways(), Rels: base.Relations()},
		changeset.Snapshot{Nodes: patch.Nodes(), Ways: patch.Ways(), Rels: patch.Relations()},
		changeset.Options{DedupeNodes: true, StrictToleranceMeters: 1, CandidateRadiusMeters: 10},
	)

	require.Equal(t, 1, cs.Stats.DeduplicatedNodes)
	require.GreaterOrEqual(t, cs.Stats.DeduplicatedNodesReplaced, 1)

	var way *changeset.Way
	for _, c := range cs.Changes {
		if c.Kind == changeset.KindWay {
			way = c.Way
		}
	}
	require.NotNil(t, way)
	require.Equal(t, []int64{100}, way.Refs)

	for _, c := range cs.Changes {
		require.False(t, c.Kind == changeset.KindNode && c.Type != changeset.Delete && c.Node.ID == 200,
			"deduplicated node 200 must not be created")
	}
}

func TestIntersection(t *testing.T) {
	t.Parallel()

	base := fixtures.IntersectionBase()
	patch := fixtures.IntersectionPatch()

	cs := changeset.Generate(
		changeset.Snapshot{Nodes: base.Nodes(), Ways: base.Ways(), Rels: base.Relations()},
		changeset.Snapshot{Nodes: patch.Nodes(), Ways: patch.Ways(), Rels: patch.Relations()},
		changeset.Options{Intersections: true},
	)

	require.Equal(t, 1, cs.Stats.IntersectionNodesCreated)

	var newNode *changeset.Node
	for _, c := range cs.Changes {
		if c.Type == changeset.Create && c.Kind == changeset.KindNode {
			newNode = c.Node
		}
	}
	require.NotNil(t, newNode)
	require.InDelta(t, 5, newNode.Lon, 1e-9)
	require.InDelta(t, 0, newNode.Lat, 1e-9)

	var patchWay, baseWay *changeset.Way
	for _, c := range cs.Changes {
		if c.Kind != changeset.KindWay {
			continue
		}
		switch c.Way.ID {
		case 10:
			baseWay = c.Way
		case 20:
			patchWay = c.Way
		}
	}
	require.NotNil(t, baseWay)
	require.NotNil(t, patchWay)
	require.Contains(t, baseWay.Refs, newNode.ID)
	require.Contains(t, patchWay.Refs, newNode.ID)
}

package osmix_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conveyal/osmix-sub003/internal/fixtures"
	"github.com/conveyal/osmix-sub003/osmix"
)

// TestRoundTrip is scenario 1: encode -> decode preserves counts and way 10's
// ref order.
func TestRoundTrip(t *testing.T) {
	t.Parallel()

	buf, err := fixtures.RoundTripPBF()
	require.NoError(t, err)

	out := osmix.New()
	require.NoError(t, out.Decode(bytes.NewReader(buf), nil))
	require.NoError(t, out.BuildIndexes())

	require.Equal(t, 4, out.Nodes().Len())
	require.Equal(t, 2, out.Ways().Len())
	require.Equal(t, 1, out.Relations().Len())

	w, ok := out.Ways().GetByID(10)
	require.True(t, ok)
	require.Equal(t, []int64{1, 2}, w.Refs)
}

// TestExtractSimple is scenario 2.
func TestExtractSimple(t *testing.T) {
	t.Parallel()

	src := fixtures.ExtractSource()
	dst, err := osmix.Extract(src, fixtures.ExtractBbox(), osmix.ExtractSimple)
	require.NoError(t, err)

	require.Equal(t, 2, dst.Nodes().Len())
	require.True(t, dst.Nodes().Exists(1))
	require.True(t, dst.Nodes().Exists(3))

	w10, ok := dst.Ways().GetByID(10)
	require.True(t, ok)
	require.Equal(t, []int64{1}, w10.Refs)

	w11, ok := dst.Ways().GetByID(11)
	require.True(t, ok)
	require.Equal(t, []int64{3}, w11.Refs)

	_, ok = dst.Relations().GetByID(20)
	require.True(t, ok)
}

// TestExtractCompleteWays is scenario 3.
func TestExtractCompleteWays(t *testing.T) {
	t.Parallel()

	src := fixtures.ExtractSource()
	dst, err := osmix.Extract(src, fixtures.ExtractBbox(), osmix.ExtractCompleteWays)
	require.NoError(t, err)

	require.Equal(t, 4, dst.Nodes().Len())

	w10, ok := dst.Ways().GetByID(10)
	require.True(t, ok)
	require.Equal(t, []int64{1, 2}, w10.Refs)

	w11, ok := dst.Ways().GetByID(11)
	require.True(t, ok)
	require.Equal(t, []int64{3, 4}, w11.Refs)

	_, ok = dst.Relations().GetByID(20)
	require.True(t, ok)
}

// TestChangesetDirectDiff is scenario 4, exercised through the public facade.
func TestChangesetDirectDiff(t *testing.T) {
	t.Parallel()

	base := fixtures.DirectDiffBase()
	patch := fixtures.DirectDiffPatch()

	cs, err := osmix.GenerateChangeset(base, patch, osmix.ChangesetOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, cs.Stats.TotalChanges)

	out, err := osmix.ApplyChangeset(base, cs)
	require.NoError(t, err)
	require.Equal(t, 2, out.Nodes().Len())

	n5, ok := out.Nodes().GetByID(5)
	require.True(t, ok)
	require.Equal(t, "X", n5.Tags.Map()["name"])
}

// TestChangesetDedupeAndApply is scenario 5.
func TestChangesetDedupeAndApply(t *testing.T) {
	t.Parallel()

	base := fixtures.DedupeBase()
	patch := fixtures.DedupePatch()

	cs, err := osmix.GenerateChangeset(base, patch, osmix.ChangesetOptions{
		DedupeNodes:           true,
		StrictToleranceMeters: 1,
		CandidateRadiusMeters: 10,
	})
	require.NoError(t, err)
	require.Equal(t, 1, cs.Stats.DeduplicatedNodes)
	require.GreaterOrEqual(t, cs.Stats.DeduplicatedNodesReplaced, 1)

	out, err := osmix.ApplyChangeset(base, cs)
	require.NoError(t, err)
	require.False(t, out.Nodes().Exists(200))
	require.True(t, out.Nodes().Exists(100))

	w, ok := out.Ways().GetByID(300)
	require.True(t, ok)
	require.Equal(t, []int64{100}, w.Refs)
}

// TestChangesetIntersectionAndApply is scenario 6.
func TestChangesetIntersectionAndApply(t *testing.T) {
	t.Parallel()

	base := fixtures.IntersectionBase()
	patch := fixtures.IntersectionPatch()

	cs, err := osmix.GenerateChangeset(base, patch, osmix.ChangesetOptions{Intersections: true})
	require.NoError(t, err)
	require.Equal(t, 1, cs.Stats.IntersectionNodesCreated)

	out, err := osmix.ApplyChangeset(base, cs)
	require.NoError(t, err)

	var newID int64 = -1
	for _, c := range cs.Changes {
		if c.Type == osmix.Create && c.Kind == osmix.KindNode {
			newID = c.Node.ID
		}
	}
	require.NotEqual(t, int64(-1), newID)

	n, ok := out.Nodes().GetByID(newID)
	require.True(t, ok)
	require.InDelta(t, 5, n.Lon, 1e-9)
	require.InDelta(t, 0, n.Lat, 1e-9)

	h1, ok := out.Ways().GetByID(10)
	require.True(t, ok)
	require.Contains(t, h1.Refs, newID)

	h2, ok := out.Ways().GetByID(20)
	require.True(t, ok)
	require.Contains(t, h2.Refs, newID)
}

func TestTileQueries(t *testing.T) {
	t.Parallel()

	o := fixtures.RoundTrip()
	bbox := osmix.NewBbox(-1, -1, 2, 2)

	layers, err := o.VectorQuery(bbox, 0)
	require.NoError(t, err)
	require.Len(t, layers.Nodes, 4)

	plan, err := o.RasterQuery(bbox, 0)
	require.NoError(t, err)
	require.NotEmpty(t, plan.Entities)
}

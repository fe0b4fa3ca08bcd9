package tile_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conveyal/osmix-sub003/internal/fixtures"
	"github.com/conveyal/osmix-sub003/internal/geo"
	"github.com/conveyal/osmix-sub003/internal/tile"
)

func TestVectorQuery(t *testing.T) {
	t.Parallel()

	o := fixtures.RoundTrip()
	s := tile.Snapshot{Nodes: o.Nodes(), Ways: o.Ways(), Rels: o.Relations()}

	bbox := geo.Bbox{MinLon: -1, MinLat: -1, MaxLon: 2, MaxLat: 2}
	layers := tile.VectorQuery(s, bbox, 0)

	require.Len(t, layers.Nodes, 4)
	// way 10 is relation 20's only member and is excluded from the way layer
	// to avoid double-draw; only way 11 remains.
	require.Len(t, layers.Ways, 1)
	require.Equal(t, int64(11), layers.Ways[0].ID)
	require.Len(t, layers.Relations, 1)
	require.Equal(t, int64(20), layers.Relations[0].ID)
	require.NotEmpty(t, layers.Relations[0].Line)

	for _, f := range layers.Ways {
		require.NotEmpty(t, f.Line)
	}
}

func TestRasterQuery(t *testing.T) {
	t.Parallel()

	o := fixtures.RoundTrip()
	s := tile.Snapshot{Nodes: o.Nodes(), Ways: o.Ways(), Rels: o.Relations()}

	bbox := geo.Bbox{MinLon: -1, MinLat: -1, MaxLon: 2, MaxLat: 2}
	plan := tile.RasterQuery(s, bbox, 0)

	require.NotEmpty(t, plan.Entities)
	for _, e := range plan.Entities {
		require.NotEmpty(t, e.Color)
	}

	var sawSubPixelNode bool
	for _, e := range plan.Entities {
		if e.Point != nil {
			sawSubPixelNode = true
			require.True(t, e.SubPixel)
		}
	}
	require.True(t, sawSubPixelNode)
}

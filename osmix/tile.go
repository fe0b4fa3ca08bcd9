package osmix

import (
	"github.com/conveyal/osmix-sub003/internal/tile"
)

// VectorLayers, RasterPlan, and the feature/entity types they carry
// re-export internal/tile's consumer-interface result types.
type (
	VectorLayers = tile.VectorLayers
	Feature      = tile.Feature
	RasterPlan   = tile.RasterPlan
	RasterEntity = tile.RasterEntity
)

func snapshotForTile(o *Osm) tile.Snapshot {
	return tile.Snapshot{Nodes: o.nodes, Ways: o.ways, Rels: o.rels}
}

// VectorQuery gathers every feature relevant to bbox, grouped into node/way/
// relation layers the way an MVT tile would be (spec.md §4.6). o must have
// BuildSpatialIndexes completed. relationMaxDepth of 0 uses o's configured
// Options.RelationMaxDepth.
func (o *Osm) VectorQuery(bbox Bbox, relationMaxDepth int) (VectorLayers, error) {
	if !o.spatial {
		return VectorLayers{}, NewError(KindNotReady, 0, nil)
	}
	if relationMaxDepth <= 0 {
		relationMaxDepth = o.opts.RelationMaxDepth
	}
	return tile.VectorQuery(snapshotForTile(o), bbox, relationMaxDepth), nil
}

// RasterQuery gathers every entity relevant to bbox for raster rendering,
// each carrying a resolved color and the sub-pixel fast-path flag (spec.md
// §4.6). o must have BuildSpatialIndexes completed.
func (o *Osm) RasterQuery(bbox Bbox, relationMaxDepth int) (RasterPlan, error) {
	if !o.spatial {
		return RasterPlan{}, NewError(KindNotReady, 0, nil)
	}
	if relationMaxDepth <= 0 {
		relationMaxDepth = o.opts.RelationMaxDepth
	}
	return tile.RasterQuery(snapshotForTile(o), bbox, relationMaxDepth), nil
}

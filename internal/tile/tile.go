// Package tile implements the two consumer-interface query types described
// in spec.md §4.6: VectorQuery and RasterQuery gather exactly the entities
// and projected geometry a real MVT or RGBA rendering backend would need,
// but stop short of serializing tiles or drawing pixels -- that collaborator
// is explicitly out of scope (spec.md §1).
package tile

import (
	"github.com/conveyal/osmix-sub003/internal/entity"
	"github.com/conveyal/osmix-sub003/internal/geo"
	"github.com/conveyal/osmix-sub003/internal/nodestore"
	"github.com/conveyal/osmix-sub003/internal/relstore"
	"github.com/conveyal/osmix-sub003/internal/waystore"
)

// Snapshot bundles the three stores a tile query reads from.
type Snapshot struct {
	Nodes *nodestore.Store
	Ways  *waystore.Store
	Rels  *relstore.Store
}

// Feature is one rendered entity's geometry and tags, already projected to
// plain [lon,lat] coordinate lists (tile-local projection is the rendering
// backend's job, not this package's).
type Feature struct {
	ID   int64
	Tags entity.Tags

	Point *[2]float64
	Line  [][2]float64
	Rings [][][2]float64
}

// VectorLayers groups features the way an MVT tile would: one layer per
// entity kind. Ways that are members of a rendered relation are excluded
// from the way layer to avoid double-draw (spec.md §4.6).
type VectorLayers struct {
	Nodes     []Feature
	Ways      []Feature
	Relations []Feature
}

// VectorQuery gathers every feature relevant to bbox (spec.md §4.6 "Vector
// tile encoder"). s.Nodes, s.Ways and s.Rels must all have BuildSpatialIndex
// completed.
func VectorQuery(s Snapshot, bbox geo.Bbox, relationMaxDepth int) VectorLayers {
	var layers VectorLayers

	memberWays := make(map[int]bool)
	relIdx := s.Rels.Intersects(bbox)
	for _, ri := range relIdx {
		geomy, ok := s.Rels.ResolveGeometry(ri, s.Nodes, s.Ways, relationMaxDepth)
		if !ok {
			continue
		}
		r := s.Rels.Get(ri)
		f := Feature{ID: r.ID, Tags: r.Tags}
		switch geomy.Kind {
		case relstore.GeometryPoints:
			if len(geomy.Points) > 0 {
				p := geomy.Points[0]
				f.Point = &p
			}
		case relstore.GeometryLineStrings:
			if len(geomy.LineStrings) > 0 {
				f.Line = geomy.LineStrings[0]
			}
		case relstore.GeometryRings:
			f.Rings = geomy.Rings
		default:
			continue
		}
		layers.Relations = append(layers.Relations, f)

		for _, m := range r.Members {
			if m.Type == entity.MemberWay {
				if wi, ok := s.Ways.IndexOf(m.Ref); ok {
					memberWays[wi] = true
				}
			}
		}
	}

	wayIdx := s.Ways.Intersects(bbox, func(i int) bool { return !memberWays[i] })
	for _, wi := range wayIdx {
		w := s.Ways.Get(wi)
		coords := s.Ways.GetCoordinates(wi, s.Nodes)
		if len(coords) == 0 {
			continue
		}
		layers.Ways = append(layers.Ways, Feature{ID: w.ID, Tags: w.Tags, Line: coords})
	}

	nodeIdx := s.Nodes.FindWithinBbox(bbox)
	for _, ni := range nodeIdx {
		n := s.Nodes.Get(ni)
		p := [2]float64{n.Lon, n.Lat}
		layers.Nodes = append(layers.Nodes, Feature{ID: n.ID, Tags: n.Tags, Point: &p})
	}

	return layers
}

// RasterEntity is one entity queued for raster rendering: a resolved color
// and the fast-path flag for bbox-collapses-to-a-pixel entities (spec.md
// §4.6 "Raster encoder").
type RasterEntity struct {
	ID       int64
	Color    string
	SubPixel bool
	Point    *[2]float64
	Line     [][2]float64
	Rings    [][][2]float64
}

// RasterPlan is the data a raster backend needs to draw bbox: every entity
// to paint, each carrying a resolved color and the sub-pixel fast-path
// flag, but no RGBA buffer.
type RasterPlan struct {
	Entities []RasterEntity
}

// defaultColors gives every rendered kind a fallback when no color/colour
// tag is present.
var defaultColors = map[string]string{
	"node":     "#333333",
	"way":      "#888888",
	"relation": "#555555",
}

func resolveColor(tags entity.Tags, kind string) string {
	for _, t := range tags {
		if t.Key == "color" || t.Key == "colour" {
			return t.Value
		}
	}
	return defaultColors[kind]
}

// pixelDegrees is the rough lon/lat extent of one tile pixel at the zoom
// levels this library's consumers render at; bbox-degenerate entities
// below this size take the sub-pixel fast path (spec.md §4.6 "fast path
// for entities whose bbox collapses to ≤ 1 pixel").
const pixelDegrees = 1.0 / 4096.0

// RasterQuery gathers every entity relevant to bbox for raster rendering.
func RasterQuery(s Snapshot, bbox geo.Bbox, relationMaxDepth int) RasterPlan {
	layers := VectorQuery(s, bbox, relationMaxDepth)
	var plan RasterPlan

	for _, f := range layers.Nodes {
		plan.Entities = append(plan.Entities, RasterEntity{
			ID: f.ID, Color: resolveColor(f.Tags, "node"), SubPixel: true, Point: f.Point,
		})
	}
	for _, f := range layers.Ways {
		plan.Entities = append(plan.Entities, RasterEntity{
			ID: f.ID, Color: resolveColor(f.Tags, "way"), SubPixel: lineIsSubPixel(f.Line), Line: f.Line,
		})
	}
	for _, f := range layers.Relations {
		sub := false
		switch {
		case f.Point != nil:
			sub = true
		case f.Line != nil:
			sub = lineIsSubPixel(f.Line)
		case f.Rings != nil:
			sub = ringsAreSubPixel(f.Rings)
		}
		plan.Entities = append(plan.Entities, RasterEntity{
			ID: f.ID, Color: resolveColor(f.Tags, "relation"), SubPixel: sub,
			Point: f.Point, Line: f.Line, Rings: f.Rings,
		})
	}
	return plan
}

func lineIsSubPixel(line [][2]float64) bool {
	b := geo.NewEmpty()
	for _, c := range line {
		b = b.Extend(c[0], c[1])
	}
	return b.MaxLon-b.MinLon <= pixelDegrees && b.MaxLat-b.MinLat <= pixelDegrees
}

func ringsAreSubPixel(rings [][][2]float64) bool {
	b := geo.NewEmpty()
	for _, ring := range rings {
		for _, c := range ring {
			b = b.Extend(c[0], c[1])
		}
	}
	return b.MaxLon-b.MinLon <= pixelDegrees && b.MaxLat-b.MinLat <= pixelDegrees
}

package osmix

import (
	"fmt"

	"github.com/conveyal/osmix-sub003/internal/report"
)

// FormatStats renders an Osm's Stats as an aligned human-readable table,
// suitable for a CLI's info() output or a log line.
func (o *Osm) FormatStats() string {
	s := o.Stats()
	bbox := "empty"
	if !s.BBox.Empty() {
		bbox = fmt.Sprintf("[%.6f,%.6f,%.6f,%.6f]", s.BBox.MinLon, s.BBox.MinLat, s.BBox.MaxLon, s.BBox.MaxLat)
	}
	return report.String(report.StatsRows(s.NodeCount, s.WayCount, s.RelationCount, s.StringCount, s.TagPairCount, bbox))
}

// FormatChangesetStats renders a Changeset's Stats as an aligned
// human-readable table.
func FormatChangesetStats(cs *Changeset) string {
	s := cs.Stats
	return report.String(report.ChangesetRows(report.ChangesetStats{
		TotalChanges:              s.TotalChanges,
		NodesCreated:              s.NodesCreated,
		NodesModified:             s.NodesModified,
		NodesDeleted:              s.NodesDeleted,
		WaysCreated:               s.WaysCreated,
		WaysModified:              s.WaysModified,
		WaysDeleted:               s.WaysDeleted,
		RelationsCreated:          s.RelationsCreated,
		RelationsModified:         s.RelationsModified,
		RelationsDeleted:          s.RelationsDeleted,
		DeduplicatedNodes:         s.DeduplicatedNodes,
		DeduplicatedNodesReplaced: s.DeduplicatedNodesReplaced,
		DeduplicatedWays:          s.DeduplicatedWays,
		IntersectionPointsFound:   s.IntersectionPointsFound,
		IntersectionNodesCreated:  s.IntersectionNodesCreated,
		Duration:                  s.Duration.String(),
	}))
}

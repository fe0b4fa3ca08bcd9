// Package report formats Osm and Changeset statistics into aligned,
// human-readable tables, adapted from the teacher's benchmark-table layout
// (column widths rounded up to a multiple of two, labels left-justified,
// values right-justified)
// but driven by osmix.Stats/changeset.Stats instead of `go test -bench`
// output.
package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// Row is one labeled statistic; Value is pre-formatted so callers can mix
// humanized byte counts, plain integers, and bboxes in one table.
type Row struct {
	Label string
	Value string
}

// Table lays out rows into two pipe-separated columns, labels left-aligned
// and values right-aligned, and writes them to w.
func Table(w io.Writer, rows []Row) {
	labelWidth, valueWidth := 0, 0
	for _, r := range rows {
		labelWidth = max(labelWidth, utf8.RuneCountInString(r.Label))
		valueWidth = max(valueWidth, utf8.RuneCountInString(r.Value))
	}
	labelWidth += labelWidth % 2
	valueWidth += valueWidth % 2

	for _, r := range rows {
		fmt.Fprintf(w, "%-*s | %*s\n", labelWidth, r.Label, valueWidth, r.Value)
	}
}

// Count formats n with thousands separators (humanize.Comma), used for
// entity/string/tag counts which can run into the millions for planet-scale
// extracts.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Bytes formats a byte count the way humanize.Bytes renders transfer sizes
// in pmtiles-extract-style CLI output.
func Bytes(n uint64) string {
	return humanize.Bytes(n)
}

// StatsRows lays out an osmix.Stats-shaped value into report rows. It takes
// plain fields rather than *osmix.Stats to avoid a report->osmix import
// (osmix imports internal/report, so that import would be a cycle).
func StatsRows(nodeCount, wayCount, relationCount, stringCount, tagPairCount int, bboxString string) []Row {
	return []Row{
		{"nodes", Count(nodeCount)},
		{"ways", Count(wayCount)},
		{"relations", Count(relationCount)},
		{"strings", Count(stringCount)},
		{"tag pairs", Count(tagPairCount)},
		{"bbox", bboxString},
	}
}

// ChangesetStats is the subset of changeset.Stats that ChangesetRows lays
// out; named here rather than imported to keep internal/report independent
// of internal/changeset (callers pass fields through, e.g. from
// osmix.Stats or changeset.Stats, which already has every one of these).
type ChangesetStats struct {
	TotalChanges                                          int
	NodesCreated, NodesModified, NodesDeleted             int
	WaysCreated, WaysModified, WaysDeleted                int
	RelationsCreated, RelationsModified, RelationsDeleted int
	DeduplicatedNodes, DeduplicatedNodesReplaced          int
	DeduplicatedWays                                      int
	IntersectionPointsFound, IntersectionNodesCreated     int
	Duration                                              string
}

// ChangesetRows lays out a changeset.Stats-shaped value into report rows.
func ChangesetRows(s ChangesetStats) []Row {
	rows := []Row{
		{"total changes", Count(s.TotalChanges)},
		{"nodes created/modified/deleted", fmt.Sprintf("%d/%d/%d", s.NodesCreated, s.NodesModified, s.NodesDeleted)},
		{"ways created/modified/deleted", fmt.Sprintf("%d/%d/%d", s.WaysCreated, s.WaysModified, s.WaysDeleted)},
		{"relations created/modified/deleted", fmt.Sprintf("%d/%d/%d", s.RelationsCreated, s.RelationsModified, s.RelationsDeleted)},
	}
	if s.DeduplicatedNodes > 0 {
		rows = append(rows, Row{"deduplicated nodes (replaced)", fmt.Sprintf("%d (%d)", s.DeduplicatedNodes, s.DeduplicatedNodesReplaced)})
	}
	if s.DeduplicatedWays > 0 {
		rows = append(rows, Row{"deduplicated ways", Count(s.DeduplicatedWays)})
	}
	if s.IntersectionPointsFound > 0 {
		rows = append(rows, Row{"intersection points found (created)", fmt.Sprintf("%d (%d)", s.IntersectionPointsFound, s.IntersectionNodesCreated)})
	}
	rows = append(rows, Row{"duration", s.Duration})
	return rows
}

// String renders rows as a single string, for callers that want the table
// inline in a log line rather than written to an io.Writer.
func String(rows []Row) string {
	var b strings.Builder
	Table(&b, rows)
	return b.String()
}

// Package fixtures builds the small, deterministic datasets used to exercise
// the end-to-end scenarios in spec.md §8. Each builder returns a finalized
// *osmix.Osm; RoundTripPBF instead encodes one with the module's own PBF
// encoder and returns the bytes, so codec tests can decode real bytes, not
// just in-memory stores.
package fixtures

import (
	"bytes"

	"github.com/conveyal/osmix-sub003/internal/entity"
	"github.com/conveyal/osmix-sub003/osmix"
)

func tags(kv ...string) entity.Tags {
	var t entity.Tags
	for i := 0; i+1 < len(kv); i += 2 {
		t = append(t, entity.Tag{Key: kv[i], Value: kv[i+1]})
	}
	return t
}

func build(nodes []entity.Node, ways []entity.Way, rels []entity.Relation) *osmix.Osm {
	o := osmix.New()
	for _, n := range nodes {
		o.AddNode(n, nil)
	}
	for _, w := range ways {
		o.AddWay(w, nil)
	}
	for _, r := range rels {
		o.AddRelation(r, nil)
	}
	if err := o.BuildIndexes(); err != nil {
		panic(err) // fixtures are constant and always well-formed
	}
	if err := o.BuildSpatialIndexes(); err != nil {
		panic(err)
	}
	return o
}

// RoundTrip is scenario 1: 4 nodes, 2 ways, 1 relation, no spatial content
// needed for the assertion (counts and way 10's ref order survive encode ->
// decode).
func RoundTrip() *osmix.Osm {
	return build(
		[]entity.Node{
			{ID: 1, Lon: 0, Lat: 0},
			{ID: 2, Lon: 1, Lat: 0},
			{ID: 3, Lon: 0, Lat: 1},
			{ID: 4, Lon: 1, Lat: 1},
		},
		[]entity.Way{
			{ID: 10, Refs: []int64{1, 2}},
			{ID: 11, Refs: []int64{3, 4}},
		},
		[]entity.Relation{
			{ID: 20, Members: []entity.Member{{Type: entity.MemberWay, Ref: 10}}},
		},
	)
}

// RoundTripPBF encodes RoundTrip() and returns the bytes, for tests that
// want to decode through internal/pbf and assert the result matches.
func RoundTripPBF() ([]byte, error) {
	o := RoundTrip()
	var buf bytes.Buffer
	if err := o.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExtractSource is scenarios 2-3: the same 4 nodes/2 ways/1 relation shape
// as RoundTrip, but with coordinates chosen so bbox [-0.1,-0.1,1,1] keeps
// nodes {1,3} and drops {2,4}.
func ExtractSource() *osmix.Osm {
	return build(
		[]entity.Node{
			{ID: 1, Lon: 0, Lat: 0},
			{ID: 2, Lon: 2, Lat: 0},
			{ID: 3, Lon: 0.5, Lat: 0.5},
			{ID: 4, Lon: 1.5, Lat: 0.5},
		},
		[]entity.Way{
			{ID: 10, Refs: []int64{1, 2}},
			{ID: 11, Refs: []int64{3, 4}},
		},
		[]entity.Relation{
			{ID: 20, Members: []entity.Member{{Type: entity.MemberWay, Ref: 10}}},
		},
	)
}

// ExtractBbox is the bbox used against ExtractSource in scenarios 2-3.
func ExtractBbox() osmix.Bbox {
	return osmix.NewBbox(-0.1, -0.1, 1, 1)
}

// DirectDiffBase and DirectDiffPatch are scenario 4: base has node 5 tagged
// amenity=cafe; patch modifies node 5's tags and adds node 6.
func DirectDiffBase() *osmix.Osm {
	return build(
		[]entity.Node{{ID: 5, Lon: 0, Lat: 0, Tags: tags("amenity", "cafe")}},
		nil, nil,
	)
}

func DirectDiffPatch() *osmix.Osm {
	return build(
		[]entity.Node{
			{ID: 5, Lon: 0, Lat: 0, Tags: tags("amenity", "cafe", "name", "X")},
			{ID: 6, Lon: 1, Lat: 1},
		},
		nil, nil,
	)
}

// DedupeBase and DedupePatch are scenario 5: base node A sits about 15 mm
// from patch node B, which patch way W references.
func DedupeBase() *osmix.Osm {
	return build([]entity.Node{{ID: 100, Lon: 10.0000000, Lat: 20.0000000}}, nil, nil)
}

func DedupePatch() *osmix.Osm {
	return build(
		[]entity.Node{{ID: 200, Lon: 10.0000001, Lat: 20.0000001}},
		[]entity.Way{{ID: 300, Refs: []int64{200}, Tags: tags("highway", "residential")}},
		nil,
	)
}

// IntersectionBase and IntersectionPatch are scenario 6: base way H1 runs
// along the x-axis, patch way H2 crosses it perpendicularly at (5,0).
func IntersectionBase() *osmix.Osm {
	return build(
		[]entity.Node{
			{ID: 1, Lon: 0, Lat: 0},
			{ID: 2, Lon: 10, Lat: 0},
		},
		[]entity.Way{
			{ID: 10, Refs: []int64{1, 2}, Tags: tags("highway", "residential")},
		},
		nil,
	)
}

func IntersectionPatch() *osmix.Osm {
	return build(
		[]entity.Node{
			{ID: 3, Lon: 5, Lat: -1},
			{ID: 4, Lon: 5, Lat: 1},
		},
		[]entity.Way{
			{ID: 20, Refs: []int64{3, 4}, Tags: tags("highway", "residential")},
		},
		nil,
	)
}

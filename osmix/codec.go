package osmix

import (
	"errors"
	"io"

	"github.com/conveyal/osmix-sub003/internal/pbf"
)

// osmSink adapts an Osm's Add* methods (entity, predicate) onto pbf.Sink's
// narrower (entity) bool signature, so internal/pbf never has to know about
// ingest predicates, bbox filtering, or strict mode.
type osmSink struct {
	o        *Osm
	nodePred func(Node) bool
}

func (s *osmSink) AddNode(n Node) bool         { return s.o.AddNode(n, s.nodePred) }
func (s *osmSink) AddWay(w Way) bool           { return s.o.AddWay(w, nil) }
func (s *osmSink) AddRelation(r Relation) bool { return s.o.AddRelation(r, nil) }

// Decode reads a PBF byte stream into o, which must be freshly constructed
// (via New) and not yet indexed. The stream's HeaderBlock populates o's
// Header. If extractBbox is non-nil, only nodes falling inside it are kept
// (spec.md §4.4 bbox-extract fast path); pass nil to ingest every node.
// Ways and relations are kept whole either way, even when none of their
// refs or members survive.
//
// Decode does not call BuildIndexes -- callers may Decode from multiple
// readers (e.g. a base extract plus a changeset file) before finalizing.
func (o *Osm) Decode(r io.Reader, extractBbox *Bbox) error {
	sink := &osmSink{o: o}
	if extractBbox != nil {
		sink.nodePred = func(n Node) bool { return extractBbox.ContainsPoint(n.Lon, n.Lat) }
	}

	opts := pbf.DecodeOptions{
		ExtractBbox: extractBbox,
		Concurrency: o.opts.ParseConcurrency,
	}
	h, err := pbf.Decode(r, sink, opts)
	if err != nil {
		var nd *pbf.NonDenseError
		if errors.As(err, &nd) {
			return NewError(KindNonDenseNodes, 0, err)
		}
		return NewError(KindMalformedPbf, 0, err)
	}
	o.header = Header{
		WritingProgram:            h.WritingProgram,
		Source:                    h.Source,
		ReplicationTimestamp:      h.ReplicationTimestamp,
		ReplicationSequenceNumber: h.ReplicationSequenceNumber,
		ReplicationBaseURL:        h.ReplicationBaseURL,
		Bbox:                      h.Bbox,
		RequiredFeatures:          h.RequiredFeatures,
		OptionalFeatures:          h.OptionalFeatures,
	}
	return nil
}

// osmSource adapts Osm's per-store Sorted iterators onto pbf.Source.
type osmSource struct{ o *Osm }

func (s *osmSource) SortedNodes(yield func(Node) bool)         { s.o.nodes.Sorted(yield) }
func (s *osmSource) SortedWays(yield func(Way) bool)           { s.o.ways.Sorted(yield) }
func (s *osmSource) SortedRelations(yield func(Relation) bool) { s.o.rels.Sorted(yield) }

// Encode writes o as a PBF byte stream: one OSMHeader blob followed by
// OSMData blocks (nodes, then ways, then relations, each ascending by ID).
// o must be indexed (otherwise Encode returns a NotReady error): entities are
// read via Sorted, which needs the sort permutation BuildIndexes builds.
func (o *Osm) Encode(w io.Writer) error {
	if !o.indexed {
		return NewError(KindNotReady, 0, nil)
	}
	h := pbf.Header{
		WritingProgram:            o.header.WritingProgram,
		Source:                    o.header.Source,
		ReplicationTimestamp:      o.header.ReplicationTimestamp,
		ReplicationSequenceNumber: o.header.ReplicationSequenceNumber,
		ReplicationBaseURL:        o.header.ReplicationBaseURL,
		Bbox:                      o.header.Bbox,
		RequiredFeatures:          o.header.RequiredFeatures,
		OptionalFeatures:          o.header.OptionalFeatures,
	}
	return pbf.Encode(w, &osmSource{o: o}, h, pbf.EncodeOptions{
		MaxEntitiesPerBlock: o.opts.MaxEntitiesPerBlock,
	})
}

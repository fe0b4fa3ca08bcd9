package osmix

import "time"

// Header carries the metadata that travels alongside an Osm's entity data:
// writing-program provenance, an optional bbox, and osmosis replication
// state. It is preserved across PBF round-trip and Transferables().
type Header struct {
	WritingProgram            string
	Source                    string
	ReplicationTimestamp      time.Time
	ReplicationSequenceNumber int64
	ReplicationBaseURL        string
	Bbox                      *Bbox
	RequiredFeatures          []string
	OptionalFeatures          []string
}

// Clone returns a deep copy of h, safe to attach to an independently
// finalized Osm.
func (h Header) Clone() Header {
	out := h
	if h.Bbox != nil {
		b := *h.Bbox
		out.Bbox = &b
	}
	out.RequiredFeatures = append([]string(nil), h.RequiredFeatures...)
	out.OptionalFeatures = append([]string(nil), h.OptionalFeatures...)
	return out
}

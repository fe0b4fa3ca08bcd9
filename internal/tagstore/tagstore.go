// Package tagstore implements the columnar tag-pair storage shared by every
// entity store (spec.md §3 "Tag storage").
package tagstore

import (
	"github.com/conveyal/osmix-sub003/internal/columnar"
	"github.com/conveyal/osmix-sub003/internal/strtable"
)

// Tag is a materialised (key, value) pair.
type Tag struct {
	Key   string
	Value string
}

// Tags is an ordered sequence of tags. Order is not semantically significant
// but is stable, so that two Tags built from the same map compare equal only
// after an order-insensitive comparison (spec.md §3, §8 property 5).
type Tags []Tag

// Get returns the value for key and whether it was present.
func (t Tags) Get(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Map converts Tags to a plain map, discarding order.
func (t Tags) Map() map[string]string {
	m := make(map[string]string, len(t))
	for _, tag := range t {
		m[tag.Key] = tag.Value
	}
	return m
}

// Store is the columnar (keyIdx, valIdx) tag-pair buffer, shared by
// reference through a *strtable.Table by every entity store that owns it.
type Store struct {
	strings *strtable.Table
	offsets *columnar.OffsetBuffer
	pairs   []int32 // alternating keyIdx, valIdx
}

// New creates a Store backed by the given string table.
func New(strings *strtable.Table) *Store {
	return &Store{
		strings: strings,
		offsets: columnar.NewOffsetBuffer(64),
		pairs:   make([]int32, 0, 256),
	}
}

// Append interns and appends tags for the next entity, closing off its
// tagOffsets entry, and returns the dense tag-pair count added.
func (s *Store) Append(tags Tags) int {
	for _, tag := range tags {
		k := s.strings.Intern(tag.Key)
		v := s.strings.Intern(tag.Value)
		s.pairs = append(s.pairs, k, v)
	}
	n := len(tags)
	s.offsets.Advance(n)
	return n
}

// AppendInterned appends tags that have already been interned into indexes
// (used by the stores' interned Add paths, through which osmix.From
// rebuilds an Osm from Transferables).
func (s *Store) AppendInterned(pairs []int32) {
	s.pairs = append(s.pairs, pairs...)
	s.offsets.Advance(len(pairs) / 2)
}

// GetTags materialises the ordered tag mapping for entity i.
func (s *Store) GetTags(i int) Tags {
	start, end := s.offsets.Range(i)
	n := (end - start) / 2
	if n == 0 {
		return nil
	}
	tags := make(Tags, 0, n)
	pairs := s.pairs[2*start : 2*end]
	for j := 0; j < len(pairs); j += 2 {
		tags = append(tags, Tag{
			Key:   s.strings.Get(pairs[j]),
			Value: s.strings.Get(pairs[j+1]),
		})
	}
	return tags
}

// RawPairs returns the (keyIdx, valIdx) slice for entity i without
// materialising strings, for fast tag-key-only scans.
func (s *Store) RawPairs(i int) []int32 {
	start, end := s.offsets.Range(i)
	return s.pairs[2*start : 2*end]
}

// Search scans every stored tag pair and returns the dense indexes of
// entities whose tags match key (and value, if non-empty). This is the
// explicitly acceptable linear slow path described in spec.md §4.2.
func (s *Store) Search(key string, value string) []int {
	keyIdx, ok := lookupExisting(s.strings, key)
	if !ok {
		return nil
	}
	var valIdx int32 = -1
	if value != "" {
		if idx, ok := lookupExisting(s.strings, value); ok {
			valIdx = idx
		} else {
			return nil
		}
	}

	var matches []int
	n := s.offsets.Len()
	for i := 0; i < n; i++ {
		start, end := s.offsets.Range(i)
		pairs := s.pairs[2*start : 2*end]
		for j := 0; j < len(pairs); j += 2 {
			if pairs[j] == keyIdx && (valIdx < 0 || pairs[j+1] == valIdx) {
				matches = append(matches, i)
				break
			}
		}
	}
	return matches
}

// lookupExisting finds a string's index without interning a new one; tag
// search that references a key/value never seen by this Osm simply matches
// nothing.
func lookupExisting(strings *strtable.Table, s string) (int32, bool) {
	for i := 0; i < strings.Len(); i++ {
		if strings.Get(int32(i)) == s {
			return int32(i), true
		}
	}
	return 0, false
}

// PairCount returns the total number of tag pairs stored (used for Osm
// stats/info()).
func (s *Store) PairCount() int { return len(s.pairs) / 2 }

// Offsets exposes the prefix-sum tagOffsets vector for the transferable
// snapshot layout (spec.md §6).
func (s *Store) Offsets() []uint32 { return s.offsets.Raw() }

// Pairs exposes the flat tagPairs buffer for the transferable snapshot
// layout (spec.md §6).
func (s *Store) Pairs() []int32 { return s.pairs }

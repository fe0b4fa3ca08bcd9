// Package strtable implements the interned string table shared by every
// entity store in an Osm (spec.md §4.1).
package strtable

import "github.com/conveyal/osmix-sub003/internal/swiss"

// Table is an append-only, deduplicating string table. Index 0 is always the
// empty string, matching the PBF convention (spec.md §3).
type Table struct {
	strings []string
	offsets []uint32 // prefix sums into the concatenated byte arena
	bytes   []byte
	index   *swiss.StringTable
}

// New creates an empty Table with index 0 reserved for "".
func New() *Table {
	t := &Table{
		strings: make([]string, 0, 64),
		offsets: make([]uint32, 1, 65),
		index:   swiss.NewStringTable(64),
	}
	t.strings = append(t.strings, "")
	t.index.Put("", 0)
	return t
}

// Intern returns the global index for s, appending it if it is new.
func (t *Table) Intern(s string) int32 {
	if idx, ok := t.index.Get(s); ok {
		return idx
	}
	idx := int32(len(t.strings))
	t.strings = append(t.strings, s)
	t.bytes = append(t.bytes, s...)
	t.offsets = append(t.offsets, uint32(len(t.bytes)))
	t.index.Put(s, idx)
	return idx
}

// Get returns the string at idx. Panics if idx is out of range, matching the
// NotReady/caller-bug error-handling policy for malformed internal state
// (spec.md §7 -- this is never reachable from external input, since every
// idx stored in a tagPairs/role slot was produced by Intern).
func (t *Table) Get(idx int32) string {
	return t.strings[idx]
}

// Len returns the number of interned strings, including the reserved empty
// string at index 0.
func (t *Table) Len() int { return len(t.strings) }

// Bytes returns the concatenated UTF-8 bytes of every interned string after
// the reserved empty one, for the transferable snapshot layout (spec.md §6).
func (t *Table) Bytes() []byte { return t.bytes }

// Offsets returns the prefix-sum offsets into Bytes(), one more entry than
// there are non-empty strings.
func (t *Table) Offsets() []uint32 { return t.offsets }

// CreateBlockIndexMap maps a PBF block's local string table (as raw UTF-8
// byte slices, index 0 conventionally "") onto this Table's global indexes,
// interning any string not already known (spec.md §4.1, §4.4 step 3).
func (t *Table) CreateBlockIndexMap(blockStrings [][]byte) []int32 {
	remap := make([]int32, len(blockStrings))
	for i, b := range blockStrings {
		remap[i] = t.Intern(string(b))
	}
	return remap
}

// All returns every interned string in index order, including the reserved
// empty string. Used by the PBF encoder to build a fresh per-block local
// string table (spec.md §4.4 "Encoding").
func (t *Table) All() []string { return t.strings }

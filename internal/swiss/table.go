// Package swiss implements a small open-addressing hash table specialised
// for the two lookup tables the index needs most: string -> interned index,
// and entity id -> dense index.
//
// The teacher (buf.build/go/hyperpb, internal/swiss) builds a SIMD-flavoured
// Swiss table directly over an unsafe byte arena with a bespoke fxhash-style
// hasher, because it is optimizing the hot path of parsing billions of
// protobuf field lookups. We keep one control byte per slot (empty, deleted
// or full) but probe linearly one slot at a time, comparing keys directly,
// drop the unsafe layer, and use the hash function the rest of this
// codebase already depends on (cespare/xxhash/v2), since this table is
// rebuilt once per Osm, not once per field access.
package swiss

import (
	"github.com/cespare/xxhash/v2"
)

const (
	emptyCtrl   = 0x80
	deletedCtrl = 0xfe
	groupSize   = 8
)

// StringTable is a hash map from string to int32, used by internal/strtable
// to deduplicate interned strings.
type StringTable struct {
	ctrl   []byte
	keys   []string
	vals   []int32
	count  int
	growAt int
}

// NewStringTable creates a table sized for roughly n entries.
func NewStringTable(n int) *StringTable {
	t := &StringTable{}
	t.init(n)
	return t
}

func (t *StringTable) init(n int) {
	cap := nextPow2(max(groupSize, n*2))
	t.ctrl = make([]byte, cap)
	for i := range t.ctrl {
		t.ctrl[i] = emptyCtrl
	}
	t.keys = make([]string, cap)
	t.vals = make([]int32, cap)
	t.count = 0
	t.growAt = cap * 7 / 8
}

func nextPow2(n int) int {
	p := groupSize
	for p < n {
		p <<= 1
	}
	return p
}

// Get returns the value for key and whether it was present.
func (t *StringTable) Get(key string) (int32, bool) {
	if len(t.ctrl) == 0 {
		return 0, false
	}
	h := xxhash.Sum64String(key)
	mask := uint64(len(t.ctrl) - 1)
	i := h & mask
	for {
		c := t.ctrl[i]
		if c == emptyCtrl {
			return 0, false
		}
		if c != deletedCtrl && t.keys[i] == key {
			return t.vals[i], true
		}
		i = (i + 1) & mask
	}
}

// Put inserts key->val, overwriting any existing value. Returns true if this
// inserted a new key (as opposed to overwriting).
func (t *StringTable) Put(key string, val int32) bool {
	if t.count >= t.growAt {
		t.grow()
	}
	return t.putNoGrow(key, val)
}

func (t *StringTable) putNoGrow(key string, val int32) bool {
	h := xxhash.Sum64String(key)
	mask := uint64(len(t.ctrl) - 1)
	i := h & mask
	for {
		c := t.ctrl[i]
		if c == emptyCtrl || c == deletedCtrl {
			t.ctrl[i] = byte(h>>56) &^ 0x80
			t.keys[i] = key
			t.vals[i] = val
			t.count++
			return true
		}
		if t.keys[i] == key {
			t.vals[i] = val
			return false
		}
		i = (i + 1) & mask
	}
}

func (t *StringTable) grow() {
	old := *t
	t.init(len(old.ctrl) * 2)
	for i, c := range old.ctrl {
		if c == emptyCtrl || c == deletedCtrl {
			continue
		}
		t.putNoGrow(old.keys[i], old.vals[i])
	}
}

// Len returns the number of live entries.
func (t *StringTable) Len() int { return t.count }

// IDTable is a hash map from int64 entity id to int32 dense index.
type IDTable struct {
	ctrl   []byte
	keys   []int64
	vals   []int32
	count  int
	growAt int
}

// NewIDTable creates a table sized for roughly n entries.
func NewIDTable(n int) *IDTable {
	t := &IDTable{}
	t.init(n)
	return t
}

func (t *IDTable) init(n int) {
	cap := nextPow2(max(groupSize, n*2))
	t.ctrl = make([]byte, cap)
	for i := range t.ctrl {
		t.ctrl[i] = emptyCtrl
	}
	t.keys = make([]int64, cap)
	t.vals = make([]int32, cap)
	t.count = 0
	t.growAt = cap * 7 / 8
}

func hashID(id int64) uint64 {
	var b [8]byte
	u := uint64(id)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
	b[4] = byte(u >> 32)
	b[5] = byte(u >> 40)
	b[6] = byte(u >> 48)
	b[7] = byte(u >> 56)
	return xxhash.Sum64(b[:])
}

// Get returns the dense index for id and whether it was present.
func (t *IDTable) Get(id int64) (int32, bool) {
	if len(t.ctrl) == 0 {
		return 0, false
	}
	h := hashID(id)
	mask := uint64(len(t.ctrl) - 1)
	i := h & mask
	for {
		c := t.ctrl[i]
		if c == emptyCtrl {
			return 0, false
		}
		if c != deletedCtrl && t.keys[i] == id {
			return t.vals[i], true
		}
		i = (i + 1) & mask
	}
}

// Put inserts id->val. Returns false if id was already present (the caller
// uses this to detect duplicate-id-on-append, spec.md §7).
func (t *IDTable) Put(id int64, val int32) bool {
	if t.count >= t.growAt {
		t.grow()
	}
	return t.putNoGrow(id, val)
}

func (t *IDTable) putNoGrow(id int64, val int32) bool {
	h := hashID(id)
	mask := uint64(len(t.ctrl) - 1)
	i := h & mask
	for {
		c := t.ctrl[i]
		if c == emptyCtrl || c == deletedCtrl {
			t.ctrl[i] = byte(h>>56) &^ 0x80
			t.keys[i] = id
			t.vals[i] = val
			t.count++
			return true
		}
		if t.keys[i] == id {
			return false
		}
		i = (i + 1) & mask
	}
}

func (t *IDTable) grow() {
	old := *t
	t.init(len(old.ctrl) * 2)
	for i, c := range old.ctrl {
		if c == emptyCtrl || c == deletedCtrl {
			continue
		}
		t.putNoGrow(old.keys[i], old.vals[i])
	}
}

// Len returns the number of live entries.
func (t *IDTable) Len() int { return t.count }

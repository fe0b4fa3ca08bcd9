// Package columnar provides append-only, cache-friendly typed buffers for the
// entity stores.
//
// The teacher runtime (buf.build/go/hyperpb) backs its message storage with an
// unsafe bump-pointer arena that threads GC liveness through a pointer stashed
// at the head of every allocated chunk (see hyperpb's internal/arena doc
// comment). That trick buys allocation-free growth for pointer-free record
// types, but it depends on unsafe.Pointer games that are hard to audit by
// inspection and are overkill for a store whose correctness (lossless PBF
// round-trip) matters more than shaving allocations. Buffer below keeps the
// same idea — preallocate, grow geometrically, never shrink — using a plain
// Go slice instead.
package columnar

// Buffer is a growable, append-only column of T. The zero value is ready to
// use. Buffer never reallocates on read paths; growth only happens in Append.
type Buffer[T any] struct {
	data []T
}

// NewBuffer preallocates a Buffer with room for n elements without changing
// its length.
func NewBuffer[T any](n int) *Buffer[T] {
	return &Buffer[T]{data: make([]T, 0, n)}
}

// Append adds v to the end of the buffer and returns its index.
func (b *Buffer[T]) Append(v T) int {
	b.data = append(b.data, v)
	return len(b.data) - 1
}

// AppendSlice appends every element of vs, preserving order.
func (b *Buffer[T]) AppendSlice(vs []T) {
	b.data = append(b.data, vs...)
}

// Len returns the number of elements appended so far.
func (b *Buffer[T]) Len() int { return len(b.data) }

// At returns the element at index i.
func (b *Buffer[T]) At(i int) T { return b.data[i] }

// Set overwrites the element at index i.
func (b *Buffer[T]) Set(i int, v T) { b.data[i] = v }

// Raw exposes the underlying slice. Callers must not retain it past a
// subsequent Append, since growth may reallocate.
func (b *Buffer[T]) Raw() []T { return b.data }

// Reset empties the buffer while keeping its capacity.
func (b *Buffer[T]) Reset() { b.data = b.data[:0] }

// OffsetBuffer is a Buffer specialised for prefix-sum offset vectors
// (tagOffsets, refOffsets, memberOffsets). It starts with a leading zero and
// gains one offset per Advance, so after N rows it has length N+1, with
// Offsets()[N] == total data length, per the columnar layout invariant in
// spec.md §3.
type OffsetBuffer struct {
	offsets []uint32
	cur     uint32
}

// NewOffsetBuffer creates an OffsetBuffer seeded with a leading zero offset.
func NewOffsetBuffer(n int) *OffsetBuffer {
	ob := &OffsetBuffer{offsets: make([]uint32, 0, n+1)}
	ob.offsets = append(ob.offsets, 0)
	return ob
}

// Advance records that the most recently appended entity consumed n more
// units of the backing data buffer (tag pairs, refs, members), and closes
// off its offset.
func (ob *OffsetBuffer) Advance(n int) {
	ob.cur += uint32(n)
	ob.offsets = append(ob.offsets, ob.cur)
}

// Range returns the half-open [start, end) range for entity i.
func (ob *OffsetBuffer) Range(i int) (start, end uint32) {
	return ob.offsets[i], ob.offsets[i+1]
}

// Len returns the number of entities recorded (offsets has Len()+1 entries).
func (ob *OffsetBuffer) Len() int {
	if len(ob.offsets) == 0 {
		return 0
	}
	return len(ob.offsets) - 1
}

// Raw exposes the full N+1 offsets vector.
func (ob *OffsetBuffer) Raw() []uint32 { return ob.offsets }

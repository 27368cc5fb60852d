// Package sink defines the per-row-group, per-column output buffers
// that a scan writes into: a typed contiguous data array, a defined/null
// bitmap, and (for byte-array types) the heap chunks the values point
// into. layout.ScanChunk allocates a fresh Column through NewColumn for
// every column chunk it decodes; a Column is never reset or reused for
// another scan. Nothing here is safe for concurrent writes to the same
// Column.
package sink

import "github.com/gaborcsardi/nanoparquet/format"

// Column is the common surface every typed column buffer exposes. Typed
// accessors live on the concrete types (FixedColumn[T], ByteArrayColumn);
// callers that know the physical type use a type switch or type assertion
// to reach them.
type Column interface {
	// Kind reports the physical type this column stores.
	Kind() format.Type
	// Len returns the number of row slots the column was sized for.
	Len() int
	// Defined returns the per-row null bitmap: 1 present, 0 null. Its
	// length always equals Len().
	Defined() []byte
}

// FixedColumn stores one fixed-width value per row. T is one of bool,
// int32, int64, float32, float64, or [12]byte (INT96).
type FixedColumn[T any] struct {
	kind    format.Type
	values  []T
	defined []byte
}

// NewFixedColumn allocates a FixedColumn sized for nrows, with every
// defined slot initially 0 (null).
func NewFixedColumn[T any](kind format.Type, nrows int) *FixedColumn[T] {
	return &FixedColumn[T]{
		kind:    kind,
		values:  make([]T, nrows),
		defined: make([]byte, nrows),
	}
}

func (c *FixedColumn[T]) Kind() format.Type  { return c.kind }
func (c *FixedColumn[T]) Len() int           { return len(c.values) }
func (c *FixedColumn[T]) Defined() []byte    { return c.defined }
func (c *FixedColumn[T]) Values() []T        { return c.values }

// HeapChunk is an append-only byte buffer that byte-array and
// fixed-len-byte-array values are sliced from. Values stored by a scan
// keep a trailing NUL byte after their content, matching the source
// format's string-heap convention; the slice handed back to callers
// excludes that NUL.
type HeapChunk struct {
	buf []byte
}

// NewHeapChunk preallocates a chunk with the given byte capacity.
func NewHeapChunk(capacity int) *HeapChunk {
	return &HeapChunk{buf: make([]byte, 0, capacity)}
}

// Append copies data into the chunk followed by a NUL terminator and
// returns a view of just the copied bytes (excluding the terminator).
// The returned slice aliases the chunk's backing array and is valid for
// the chunk's lifetime.
func (h *HeapChunk) Append(data []byte) []byte {
	start := len(h.buf)
	h.buf = append(h.buf, data...)
	h.buf = append(h.buf, 0)
	return h.buf[start : start+len(data)]
}

// Bytes returns the chunk's full backing storage, including terminators.
func (h *HeapChunk) Bytes() []byte { return h.buf }

// ByteArrayColumn stores BYTE_ARRAY or FIXED_LEN_BYTE_ARRAY values as
// slices into one or more owned HeapChunks. TypeLength is nonzero only
// for FIXED_LEN_BYTE_ARRAY.
type ByteArrayColumn struct {
	kind       format.Type
	typeLength int32
	values     [][]byte
	defined    []byte
	heaps      []*HeapChunk
}

// NewByteArrayColumn allocates a ByteArrayColumn sized for nrows.
func NewByteArrayColumn(kind format.Type, typeLength int32, nrows int) *ByteArrayColumn {
	return &ByteArrayColumn{
		kind:       kind,
		typeLength: typeLength,
		values:     make([][]byte, nrows),
		defined:    make([]byte, nrows),
	}
}

func (c *ByteArrayColumn) Kind() format.Type    { return c.kind }
func (c *ByteArrayColumn) Len() int             { return len(c.values) }
func (c *ByteArrayColumn) Defined() []byte      { return c.defined }
func (c *ByteArrayColumn) TypeLength() int32    { return c.typeLength }
func (c *ByteArrayColumn) Values() [][]byte     { return c.values }
func (c *ByteArrayColumn) Set(row int, v []byte) { c.values[row] = v }

// NewHeap allocates a new heap chunk, records it for the column's
// lifetime, and returns it for the caller to Append into.
func (c *ByteArrayColumn) NewHeap(capacity int) *HeapChunk {
	h := NewHeapChunk(capacity)
	c.heaps = append(c.heaps, h)
	return h
}

// Heaps returns every heap chunk this column owns, in allocation order.
func (c *ByteArrayColumn) Heaps() []*HeapChunk { return c.heaps }

// AdoptHeap records an already-allocated heap chunk as owned by this
// column, used to transfer a scratch dictionary's heaps into the output
// column at chunk-scan end so the values they were sliced from outlive
// the dictionary itself.
func (c *ByteArrayColumn) AdoptHeap(h *HeapChunk) {
	c.heaps = append(c.heaps, h)
}

// NewColumn allocates the column buffer appropriate for a leaf's physical
// type, sized for nrows. typeLength is only consulted for
// FIXED_LEN_BYTE_ARRAY and must be > 0 in that case.
func NewColumn(physicalType format.Type, typeLength int32, nrows int) Column {
	switch physicalType {
	case format.TypeBoolean:
		return NewFixedColumn[bool](physicalType, nrows)
	case format.TypeInt32:
		return NewFixedColumn[int32](physicalType, nrows)
	case format.TypeInt64:
		return NewFixedColumn[int64](physicalType, nrows)
	case format.TypeInt96:
		return NewFixedColumn[[12]byte](physicalType, nrows)
	case format.TypeFloat:
		return NewFixedColumn[float32](physicalType, nrows)
	case format.TypeDouble:
		return NewFixedColumn[float64](physicalType, nrows)
	case format.TypeByteArray, format.TypeFixedLenByteArray:
		return NewByteArrayColumn(physicalType, typeLength, nrows)
	default:
		return nil
	}
}

package sink

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaborcsardi/nanoparquet/format"
)

func TestNewColumnAllocatesByPhysicalType(t *testing.T) {
	testCases := []struct {
		name string
		typ  format.Type
	}{
		{"bool", format.TypeBoolean},
		{"int32", format.TypeInt32},
		{"int64", format.TypeInt64},
		{"int96", format.TypeInt96},
		{"float", format.TypeFloat},
		{"double", format.TypeDouble},
		{"byte-array", format.TypeByteArray},
		{"fixed-len-byte-array", format.TypeFixedLenByteArray},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			col := NewColumn(tc.typ, 4, 10)
			require.NotNil(t, col)
			require.Equal(t, tc.typ, col.Kind())
			require.Equal(t, 10, col.Len())
			require.Len(t, col.Defined(), 10)
			for _, d := range col.Defined() {
				require.Equal(t, byte(0), d)
			}
		})
	}
}

func TestNewColumnRejectsUnknownType(t *testing.T) {
	require.Nil(t, NewColumn(format.Type(99), 0, 1))
}

func TestFixedColumnValuesAccessor(t *testing.T) {
	col := NewFixedColumn[int32](format.TypeInt32, 3)
	col.Values()[0] = 10
	col.Values()[1] = 20
	col.Values()[2] = 30
	col.Defined()[0] = 1
	col.Defined()[1] = 1
	col.Defined()[2] = 1
	require.Equal(t, []int32{10, 20, 30}, col.Values())
}

func TestHeapChunkAppendIsZeroCopyAndNulTerminated(t *testing.T) {
	h := NewHeapChunk(32)
	v1 := h.Append([]byte("hello"))
	v2 := h.Append([]byte("world"))

	require.Equal(t, []byte("hello"), v1)
	require.Equal(t, []byte("world"), v2)

	// NUL terminator sits immediately after each value in the backing buffer.
	require.Equal(t, byte(0), h.Bytes()[len(v1)])
	require.Equal(t, byte(0), h.Bytes()[len(v1)+1+len(v2)])
}

func TestByteArrayColumnOwnsMultipleHeaps(t *testing.T) {
	col := NewByteArrayColumn(format.TypeByteArray, 0, 2)
	dictHeap := col.NewHeap(16)
	dataHeap := col.NewHeap(16)

	col.Set(0, dictHeap.Append([]byte("abc")))
	col.Set(1, dataHeap.Append([]byte("xy")))

	require.Len(t, col.Heaps(), 2)
	require.Equal(t, []byte("abc"), col.Values()[0])
	require.Equal(t, []byte("xy"), col.Values()[1])
}

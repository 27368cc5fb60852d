package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaborcsardi/nanoparquet/thriftcompact"
)

// encodeFieldHeader builds a short-form compact field header byte for a
// field-id delta in [1,15].
func encodeFieldHeader(delta, elemType byte) byte {
	return (delta << 4) | elemType
}

func zigzag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func appendVarint(buf []byte, v uint64) []byte {
	for {
		if v < 0x80 {
			return append(buf, byte(v))
		}
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
}

func TestParseSchemaElementLeaf(t *testing.T) {
	var buf []byte
	buf = append(buf, encodeFieldHeader(1, 0x05)) // field 1 (type), i32
	buf = appendVarint(buf, zigzag(int64(TypeInt32)))
	buf = append(buf, encodeFieldHeader(2, 0x05)) // field 3 (repetition), delta 2 -> field 3
	buf = appendVarint(buf, zigzag(int64(RepetitionRequired)))
	buf = append(buf, encodeFieldHeader(1, 0x08)) // field 4 (name), binary
	buf = appendVarint(buf, 3)
	buf = append(buf, 'c', 'o', 'l')
	buf = append(buf, 0x00) // stop

	var s SchemaElement
	r := thriftcompact.NewReader(buf)
	require.NoError(t, s.readFrom(r))
	require.NotNil(t, s.Type)
	require.Equal(t, TypeInt32, *s.Type)
	require.NotNil(t, s.RepetitionType)
	require.Equal(t, RepetitionRequired, *s.RepetitionType)
	require.Equal(t, "col", s.Name)
}

func TestParseFileMetaDataRoundTrip(t *testing.T) {
	// Build: root schema element (name "root", num_children=1), one leaf
	// column (INT32, REQUIRED, name "a"); one row group with a single
	// column chunk; num_rows = 5.
	var leaf []byte
	leaf = append(leaf, encodeFieldHeader(1, 0x05))
	leaf = appendVarint(leaf, zigzag(int64(TypeInt32)))
	leaf = append(leaf, encodeFieldHeader(2, 0x05))
	leaf = appendVarint(leaf, zigzag(int64(RepetitionRequired)))
	leaf = append(leaf, encodeFieldHeader(1, 0x08))
	leaf = appendVarint(leaf, 1)
	leaf = append(leaf, 'a')
	leaf = append(leaf, 0x00)

	var root []byte
	root = append(root, encodeFieldHeader(4, 0x08)) // field 4 name
	root = appendVarint(root, 4)
	root = append(root, 'r', 'o', 'o', 't')
	root = append(root, encodeFieldHeader(1, 0x05)) // delta1 from 4 -> field5 num_children
	root = appendVarint(root, zigzag(1))
	root = append(root, 0x00)

	var chunkMeta []byte
	chunkMeta = append(chunkMeta, encodeFieldHeader(1, 0x05)) // type
	chunkMeta = appendVarint(chunkMeta, zigzag(int64(TypeInt32)))
	chunkMeta = append(chunkMeta, encodeFieldHeader(3, 0x05)) // delta3 -> field4 codec
	chunkMeta = appendVarint(chunkMeta, zigzag(int64(CompressionUncompressed)))
	chunkMeta = append(chunkMeta, encodeFieldHeader(1, 0x06)) // field5 num_values, i64
	chunkMeta = appendVarint(chunkMeta, zigzag(5))
	chunkMeta = append(chunkMeta, encodeFieldHeader(4, 0x06)) // field9 data_page_offset
	chunkMeta = appendVarint(chunkMeta, zigzag(4))
	chunkMeta = append(chunkMeta, 0x00)

	var chunk []byte
	chunk = append(chunk, encodeFieldHeader(2, 0x06)) // field2 file_offset
	chunk = appendVarint(chunk, zigzag(0))
	chunk = append(chunk, encodeFieldHeader(1, 0x0C)) // delta1 -> field3 meta_data struct
	chunk = append(chunk, chunkMeta...)
	chunk = append(chunk, 0x00)

	var rowGroup []byte
	rowGroup = append(rowGroup, encodeFieldHeader(1, 0x09)) // field1 columns, list
	rowGroup = append(rowGroup, byte((1<<4)|0x0C))          // 1 element, struct
	rowGroup = append(rowGroup, chunk...)
	rowGroup = append(rowGroup, encodeFieldHeader(2, 0x06)) // field3 num_rows
	rowGroup = appendVarint(rowGroup, zigzag(5))
	rowGroup = append(rowGroup, 0x00)

	var meta []byte
	meta = append(meta, encodeFieldHeader(2, 0x09)) // field2 schema list
	meta = append(meta, byte((2<<4)|0x0C))          // 2 elements, struct
	meta = append(meta, root...)
	meta = append(meta, leaf...)
	meta = append(meta, encodeFieldHeader(1, 0x06)) // field3 num_rows
	meta = appendVarint(meta, zigzag(5))
	meta = append(meta, encodeFieldHeader(1, 0x09)) // field4 row_groups list
	meta = append(meta, byte((1<<4)|0x0C))
	meta = append(meta, rowGroup...)
	meta = append(meta, 0x00)

	parsed, consumed, err := ParseFileMetaData(meta)
	require.NoError(t, err)
	require.Equal(t, len(meta), consumed)
	require.Len(t, parsed.Schema, 2)
	require.Equal(t, "root", parsed.Schema[0].Name)
	require.Equal(t, "a", parsed.Schema[1].Name)
	require.Equal(t, int64(5), parsed.NumRows)
	require.Len(t, parsed.RowGroups, 1)
	require.Equal(t, int64(5), parsed.RowGroups[0].NumRows)
	require.Len(t, parsed.RowGroups[0].Columns, 1)
	require.NotNil(t, parsed.RowGroups[0].Columns[0].MetaData)
	require.Equal(t, CompressionUncompressed, parsed.RowGroups[0].Columns[0].MetaData.Codec)
	require.Equal(t, int64(4), parsed.RowGroups[0].Columns[0].MetaData.DataPageOffset)
}

func TestParsePageHeaderDataPage(t *testing.T) {
	var dph []byte
	dph = append(dph, encodeFieldHeader(1, 0x05)) // num_values
	dph = appendVarint(dph, zigzag(10))
	dph = append(dph, encodeFieldHeader(1, 0x05)) // encoding
	dph = appendVarint(dph, zigzag(int64(EncodingPlain)))
	dph = append(dph, encodeFieldHeader(1, 0x05)) // def level encoding
	dph = appendVarint(dph, zigzag(int64(EncodingRLE)))
	dph = append(dph, encodeFieldHeader(1, 0x05)) // rep level encoding
	dph = appendVarint(dph, zigzag(int64(EncodingRLE)))
	dph = append(dph, 0x00)

	var buf []byte
	buf = append(buf, encodeFieldHeader(1, 0x05)) // type
	buf = appendVarint(buf, zigzag(int64(PageTypeDataPage)))
	buf = append(buf, encodeFieldHeader(1, 0x05)) // uncompressed size
	buf = appendVarint(buf, zigzag(40))
	buf = append(buf, encodeFieldHeader(1, 0x05)) // compressed size
	buf = appendVarint(buf, zigzag(40))
	buf = append(buf, encodeFieldHeader(2, 0x0C)) // delta2 -> field5 data_page_header
	buf = append(buf, dph...)
	buf = append(buf, 0x00)

	h, consumed, err := ParsePageHeader(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), consumed)
	require.Equal(t, PageTypeDataPage, h.Type)
	require.NotNil(t, h.DataPageHeader)
	require.Equal(t, int32(10), h.DataPageHeader.NumValues)
	require.Equal(t, EncodingPlain, h.DataPageHeader.Encoding)
}

func TestParseFileMetaDataRejectsTruncatedInput(t *testing.T) {
	_, _, err := ParseFileMetaData([]byte{0x15})
	require.Error(t, err)
}

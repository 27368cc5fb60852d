package reader

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaborcsardi/nanoparquet/format"
	"github.com/gaborcsardi/nanoparquet/sink"
)

// memFile adapts a byte slice to source.FileReader for tests that need a
// complete, in-memory parquet file without touching the filesystem.
type memFile struct {
	*bytes.Reader
}

func newMemFile(data []byte) *memFile { return &memFile{bytes.NewReader(data)} }

func (m *memFile) Close() error         { return nil }
func (m *memFile) Size() (int64, error) { return m.Reader.Size(), nil }

func encodeFieldHeader(delta, elemType byte) byte { return (delta << 4) | elemType }

func zigzag(v int64) uint64 { return uint64((v << 1) ^ (v >> 63)) }

func appendVarint(buf []byte, v uint64) []byte {
	for {
		if v < 0x80 {
			return append(buf, byte(v))
		}
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
}

func le32(v int32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// buildSingleColumnFile assembles a complete, minimal parquet file with
// one REQUIRED INT32 column named "a", one row group, one uncompressed
// PLAIN data page holding values.
func buildSingleColumnFile(values []int32) []byte {
	var payload []byte
	for _, v := range values {
		payload = append(payload, le32(v)...)
	}

	var dph []byte
	dph = append(dph, encodeFieldHeader(1, 0x05))
	dph = appendVarint(dph, zigzag(int64(len(values))))
	dph = append(dph, encodeFieldHeader(1, 0x05))
	dph = appendVarint(dph, zigzag(int64(format.EncodingPlain)))
	dph = append(dph, 0x00)

	var pageHeader []byte
	pageHeader = append(pageHeader, encodeFieldHeader(1, 0x05))
	pageHeader = appendVarint(pageHeader, zigzag(int64(format.PageTypeDataPage)))
	pageHeader = append(pageHeader, encodeFieldHeader(1, 0x05))
	pageHeader = appendVarint(pageHeader, zigzag(int64(len(payload))))
	pageHeader = append(pageHeader, encodeFieldHeader(1, 0x05))
	pageHeader = appendVarint(pageHeader, zigzag(int64(len(payload))))
	pageHeader = append(pageHeader, encodeFieldHeader(2, 0x0C))
	pageHeader = append(pageHeader, dph...)
	pageHeader = append(pageHeader, 0x00)

	page := append(append([]byte{}, pageHeader...), payload...)
	const dataPageOffset = 4

	var chunkMeta []byte
	chunkMeta = append(chunkMeta, encodeFieldHeader(1, 0x05)) // field1 type
	chunkMeta = appendVarint(chunkMeta, zigzag(int64(format.TypeInt32)))
	chunkMeta = append(chunkMeta, encodeFieldHeader(2, 0x09)) // field3 path_in_schema
	chunkMeta = append(chunkMeta, byte((1<<4)|0x08))
	chunkMeta = appendVarint(chunkMeta, 1)
	chunkMeta = append(chunkMeta, 'a')
	chunkMeta = append(chunkMeta, encodeFieldHeader(1, 0x05)) // field4 codec
	chunkMeta = appendVarint(chunkMeta, zigzag(int64(format.CompressionUncompressed)))
	chunkMeta = append(chunkMeta, encodeFieldHeader(1, 0x06)) // field5 num_values
	chunkMeta = appendVarint(chunkMeta, zigzag(int64(len(values))))
	chunkMeta = append(chunkMeta, encodeFieldHeader(2, 0x06)) // field7 total_compressed_size
	chunkMeta = appendVarint(chunkMeta, zigzag(int64(len(page))))
	chunkMeta = append(chunkMeta, encodeFieldHeader(2, 0x06)) // field9 data_page_offset
	chunkMeta = appendVarint(chunkMeta, zigzag(dataPageOffset))
	chunkMeta = append(chunkMeta, 0x00)

	var chunk []byte
	chunk = append(chunk, encodeFieldHeader(2, 0x06))
	chunk = appendVarint(chunk, zigzag(0))
	chunk = append(chunk, encodeFieldHeader(1, 0x0C))
	chunk = append(chunk, chunkMeta...)
	chunk = append(chunk, 0x00)

	var rowGroup []byte
	rowGroup = append(rowGroup, encodeFieldHeader(1, 0x09))
	rowGroup = append(rowGroup, byte((1<<4)|0x0C))
	rowGroup = append(rowGroup, chunk...)
	rowGroup = append(rowGroup, encodeFieldHeader(2, 0x06))
	rowGroup = appendVarint(rowGroup, zigzag(int64(len(values))))
	rowGroup = append(rowGroup, 0x00)

	var leaf []byte
	leaf = append(leaf, encodeFieldHeader(1, 0x05))
	leaf = appendVarint(leaf, zigzag(int64(format.TypeInt32)))
	leaf = append(leaf, encodeFieldHeader(2, 0x05))
	leaf = appendVarint(leaf, zigzag(int64(format.RepetitionRequired)))
	leaf = append(leaf, encodeFieldHeader(1, 0x08))
	leaf = appendVarint(leaf, 1)
	leaf = append(leaf, 'a')
	leaf = append(leaf, 0x00)

	var root []byte
	root = append(root, encodeFieldHeader(4, 0x08))
	root = appendVarint(root, 4)
	root = append(root, 'r', 'o', 'o', 't')
	root = append(root, encodeFieldHeader(1, 0x05))
	root = appendVarint(root, zigzag(1))
	root = append(root, 0x00)

	var meta []byte
	meta = append(meta, encodeFieldHeader(2, 0x09))
	meta = append(meta, byte((2<<4)|0x0C))
	meta = append(meta, root...)
	meta = append(meta, leaf...)
	meta = append(meta, encodeFieldHeader(1, 0x06))
	meta = appendVarint(meta, zigzag(int64(len(values))))
	meta = append(meta, encodeFieldHeader(1, 0x09))
	meta = append(meta, byte((1<<4)|0x0C))
	meta = append(meta, rowGroup...)
	meta = append(meta, 0x00)

	footerLen := le32(int32(len(meta)))

	var file []byte
	file = append(file, 'P', 'A', 'R', '1')
	file = append(file, page...)
	file = append(file, meta...)
	file = append(file, footerLen...)
	file = append(file, 'P', 'A', 'R', '1')
	return file
}

func TestOpenAndScanRoundTrip(t *testing.T) {
	data := buildSingleColumnFile([]int32{10, 20, 30})
	fr, err := Open(newMemFile(data))
	require.NoError(t, err)
	defer fr.Close()

	cols := fr.Columns()
	require.Len(t, cols, 1)
	require.Equal(t, "a", cols[0].Name)

	var state ScanState
	var result ScanResult

	ok, err := fr.Scan(&state, &result)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, result.NumRows)
	col, ok := result.Columns["a"].(*sink.FixedColumn[int32])
	require.True(t, ok)
	require.Equal(t, []int32{10, 20, 30}, col.Values())
	require.Equal(t, []byte{1, 1, 1}, col.Defined())

	ok, err = fr.Scan(&state, &result)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, result.NumRows)
}

func TestScanIsRepeatable(t *testing.T) {
	data := buildSingleColumnFile([]int32{1, 2})
	fr, err := Open(newMemFile(data))
	require.NoError(t, err)
	defer fr.Close()

	var state ScanState
	var first, second ScanResult
	ok1, err1 := fr.Scan(&state, &first)
	require.NoError(t, err1)
	require.True(t, ok1)

	state = ScanState{}
	ok2, err2 := fr.Scan(&state, &second)
	require.NoError(t, err2)
	require.True(t, ok2)

	col1 := first.Columns["a"].(*sink.FixedColumn[int32])
	col2 := second.Columns["a"].(*sink.FixedColumn[int32])
	require.Equal(t, col1.Values(), col2.Values())
}

func TestOpenRejectsMissingLeadingMagic(t *testing.T) {
	data := buildSingleColumnFile([]int32{1})
	data[0] = 'X'
	_, err := Open(newMemFile(data))
	require.Error(t, err)
}

func TestOpenRejectsMissingTrailingMagic(t *testing.T) {
	data := buildSingleColumnFile([]int32{1})
	data[len(data)-1] = 'X'
	_, err := Open(newMemFile(data))
	require.Error(t, err)
}

func TestOpenRejectsZeroFooterLength(t *testing.T) {
	data := buildSingleColumnFile([]int32{1})
	copy(data[len(data)-8:len(data)-4], []byte{0, 0, 0, 0})
	_, err := Open(newMemFile(data))
	require.Error(t, err)
}

func TestOpenRejectsTooShortFile(t *testing.T) {
	_, err := Open(newMemFile([]byte{'P', 'A'}))
	require.Error(t, err)
}

func TestOpenRejectsTruncatedFooter(t *testing.T) {
	data := buildSingleColumnFile([]int32{1})
	bogus := le32(int32(len(data) * 10))
	copy(data[len(data)-8:len(data)-4], bogus)
	_, err := Open(newMemFile(data))
	require.Error(t, err)
}

func TestReadChunkRejectsOutOfBounds(t *testing.T) {
	data := buildSingleColumnFile([]int32{1})
	fr, err := Open(newMemFile(data))
	require.NoError(t, err)
	defer fr.Close()

	_, err = fr.ReadChunk(int64(len(data)), 10)
	require.Error(t, err)
}

func TestReadPageHeaderParsesDataPage(t *testing.T) {
	data := buildSingleColumnFile([]int32{5, 6})
	fr, err := Open(newMemFile(data))
	require.NoError(t, err)
	defer fr.Close()

	hdr, consumed, err := fr.ReadPageHeader(4)
	require.NoError(t, err)
	require.Greater(t, consumed, 0)
	require.Equal(t, format.PageTypeDataPage, hdr.Type)
	require.NotNil(t, hdr.DataPageHeader)
	require.Equal(t, int32(2), hdr.DataPageHeader.NumValues)
}

func TestReadPageHeaderClampsNearEOF(t *testing.T) {
	data := buildSingleColumnFile([]int32{1})
	fr, err := Open(newMemFile(data))
	require.NoError(t, err)
	defer fr.Close()

	_, _, err = fr.ReadPageHeader(fr.size - 1)
	require.Error(t, err)
}

// Package layout walks a column chunk's page stream: parsing page
// headers, decompressing payloads, and decoding dictionary and data
// pages into a sink.Column. It operates entirely on an in-memory byte
// slice -- the caller (reader.FileReader) is responsible for the single
// contiguous read that produces it.
package layout

import (
	"encoding/binary"

	"github.com/gaborcsardi/nanoparquet/compress"
	"github.com/gaborcsardi/nanoparquet/errtax"
	"github.com/gaborcsardi/nanoparquet/format"
	"github.com/gaborcsardi/nanoparquet/rle"
	"github.com/gaborcsardi/nanoparquet/sink"
)

// ChunkStartOffset implements the chunk start policy: if
// dictionary_page_offset is set and at least 4 (a defense against
// writers that leave it at 0 or some other bogus small value), the
// chunk's pages begin there; otherwise they begin at data_page_offset.
func ChunkStartOffset(meta *format.ColumnMetaData) int64 {
	if meta.DictionaryPageOffset != nil && *meta.DictionaryPageOffset >= 4 {
		return *meta.DictionaryPageOffset
	}
	return meta.DataPageOffset
}

// ScanChunk decodes every page of one column chunk, already loaded into
// buf starting at ChunkStartOffset, into a freshly allocated sink.Column
// sized for nrows. It stops when buf is exhausted. A page header that
// fails to parse, or a page body that runs past the end of buf, is an
// error, so a chunk whose declared total_compressed_size leaves out the
// dictionary page (as some writers do) fails instead of being read.
func ScanChunk(buf []byte, schema *format.SchemaElement, meta *format.ColumnMetaData, nrows int) (sink.Column, error) {
	var typeLength int32
	if schema.TypeLength != nil {
		typeLength = *schema.TypeLength
	}
	if *schema.Type == format.TypeFixedLenByteArray && typeLength <= 0 {
		return nil, errtax.Wrap(errtax.ErrUnsupportedType, "layout: FIXED_LEN_BYTE_ARRAY column has no type length")
	}
	// reader.buildColumns already rejects REPEATED leaves, so the only
	// two repetition types reaching here are REQUIRED and OPTIONAL; this
	// is written as "!= REQUIRED" rather than "== OPTIONAL" to match how
	// the original resolves definition-level presence (any non-REQUIRED
	// repetition carries definition levels).
	optional := schema.RepetitionType != nil && *schema.RepetitionType != format.RepetitionRequired

	col := sink.NewColumn(*schema.Type, typeLength, nrows)
	if col == nil {
		return nil, errtax.Wrap(errtax.ErrUnsupportedType, "layout: unsupported physical type %s", schema.Type)
	}

	var dict sink.Column
	seenDict := false
	pageStartRow := 0
	cursor := 0

	for cursor < len(buf) {
		hdr, hdrLen, err := format.ParsePageHeader(buf[cursor:])
		if err != nil {
			return nil, err
		}
		cursor += hdrLen

		compSize := int(hdr.CompressedPageSize)
		if compSize < 0 || cursor+compSize > len(buf) {
			return nil, errtax.Wrap(errtax.ErrTruncatedInput, "layout: page body runs past end of chunk")
		}
		pageBuf, err := compress.Uncompress(buf[cursor:cursor+compSize], meta.Codec, int64(hdr.UncompressedPageSize))
		if err != nil {
			return nil, err
		}
		cursor += compSize

		switch hdr.Type {
		case format.PageTypeDictionaryPage:
			if seenDict {
				return nil, errtax.Wrap(errtax.ErrInconsistentDictionary, "layout: second dictionary page in chunk")
			}
			if hdr.DictionaryPageHeader == nil || hdr.DataPageHeader != nil {
				return nil, errtax.Wrap(errtax.ErrInconsistentDictionary, "layout: page header flags disagree with DICTIONARY_PAGE type")
			}
			dict, err = scanDictionaryPage(pageBuf, hdr.DictionaryPageHeader, *schema.Type, typeLength)
			if err != nil {
				return nil, err
			}
			seenDict = true

		case format.PageTypeDataPage:
			if hdr.DataPageHeader == nil || hdr.DictionaryPageHeader != nil {
				return nil, errtax.Wrap(errtax.ErrInconsistentDictionary, "layout: page header flags disagree with DATA_PAGE type")
			}
			n, err := scanDataPage(col, dict, seenDict, pageBuf, hdr.DataPageHeader, pageStartRow, optional)
			if err != nil {
				return nil, err
			}
			pageStartRow += n

		case format.PageTypeDataPageV2:
			return nil, errtax.Wrap(errtax.ErrUnsupportedFeature, "layout: DATA_PAGE_V2 is not supported")

		default:
			// INDEX_PAGE and any other page type are tolerated but skipped.
		}
	}

	if pageStartRow != nrows {
		return nil, errtax.Wrap(errtax.ErrCorruptFile, "layout: chunk produced %d rows, row group declares %d", pageStartRow, nrows)
	}

	if dict != nil {
		if bc, ok := col.(*sink.ByteArrayColumn); ok {
			if dc, ok := dict.(*sink.ByteArrayColumn); ok {
				for _, h := range dc.Heaps() {
					bc.AdoptHeap(h)
				}
			}
		}
	}

	return col, nil
}

// scanDataPage decodes one DATA_PAGE's definition levels and values into
// col starting at row pageStartRow, and returns the page's num_values.
func scanDataPage(col sink.Column, dict sink.Column, seenDict bool, payload []byte, dph *format.DataPageHeader, pageStartRow int, optional bool) (int, error) {
	numValues := int(dph.NumValues)
	if pageStartRow+numValues > col.Len() {
		return 0, errtax.Wrap(errtax.ErrCorruptFile, "layout: data page overruns column (row %d + %d values > %d rows)", pageStartRow, numValues, col.Len())
	}
	defined := col.Defined()[pageStartRow : pageStartRow+numValues]

	pos := 0
	if optional {
		if dph.DefinitionLevelEncoding != format.EncodingRLE {
			return 0, errtax.Wrap(errtax.ErrUnsupportedEncoding, "layout: definition-level encoding %s is not RLE", dph.DefinitionLevelEncoding)
		}
		if pos+4 > len(payload) {
			return 0, errtax.Wrap(errtax.ErrTruncatedInput, "layout: definition-level length runs past page end")
		}
		defLen := int(binary.LittleEndian.Uint32(payload[pos : pos+4]))
		pos += 4
		if defLen < 0 || pos+defLen > len(payload) {
			return 0, errtax.Wrap(errtax.ErrTruncatedInput, "layout: definition-level payload runs past page end")
		}
		dec := rle.NewDecoder(payload[pos:pos+defLen], 1)
		pos += defLen
		raw := make([]uint32, numValues)
		if err := dec.GetBatch(raw); err != nil {
			return 0, err
		}
		for i, v := range raw {
			defined[i] = byte(v)
		}
	} else {
		for i := range defined {
			defined[i] = 1
		}
	}

	numDefined := 0
	for _, d := range defined {
		if d == 1 {
			numDefined++
		}
	}

	switch dph.Encoding {
	case format.EncodingPlain:
		if err := decodePlainValues(col, pageStartRow, defined, payload[pos:]); err != nil {
			return 0, err
		}
	case format.EncodingPlainDictionary, format.EncodingRLEDictionary:
		if !seenDict {
			return 0, errtax.Wrap(errtax.ErrInconsistentDictionary, "layout: dictionary-encoded data page with no preceding dictionary page")
		}
		if err := decodeDictionaryValues(col, dict, pageStartRow, defined, numDefined, payload[pos:]); err != nil {
			return 0, err
		}
	default:
		return 0, errtax.Wrap(errtax.ErrUnsupportedEncoding, "layout: data page encoding %s is not supported", dph.Encoding)
	}

	return numValues, nil
}

// decodePlainValues dispatches PLAIN decoding by the column's concrete
// type, writing into col starting at pageStartRow for every row where
// defined[i] == 1.
func decodePlainValues(col sink.Column, pageStartRow int, defined []byte, buf []byte) error {
	switch c := col.(type) {
	case *sink.FixedColumn[bool]:
		return decodeBoolSlicePlain(c.Values()[pageStartRow:pageStartRow+len(defined)], defined, buf)
	case *sink.FixedColumn[int32]:
		_, err := decodeFixedSlicePlain(c.Values()[pageStartRow:pageStartRow+len(defined)], defined, buf, 4,
			func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) })
		return err
	case *sink.FixedColumn[int64]:
		_, err := decodeFixedSlicePlain(c.Values()[pageStartRow:pageStartRow+len(defined)], defined, buf, 8,
			func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) })
		return err
	case *sink.FixedColumn[float32]:
		_, err := decodeFixedSlicePlain(c.Values()[pageStartRow:pageStartRow+len(defined)], defined, buf, 4, float32FromLE)
		return err
	case *sink.FixedColumn[float64]:
		_, err := decodeFixedSlicePlain(c.Values()[pageStartRow:pageStartRow+len(defined)], defined, buf, 8, float64FromLE)
		return err
	case *sink.FixedColumn[[12]byte]:
		_, err := decodeFixedSlicePlain(c.Values()[pageStartRow:pageStartRow+len(defined)], defined, buf, 12,
			func(b []byte) [12]byte { var v [12]byte; copy(v[:], b); return v })
		return err
	case *sink.ByteArrayColumn:
		values := c.Values()[pageStartRow : pageStartRow+len(defined)]
		if c.TypeLength() > 0 {
			heap := c.NewHeap(len(buf) + len(defined))
			return decodeFixedLenByteArraySlicePlain(values, defined, buf, int(c.TypeLength()), heap.Append)
		}
		heap := c.NewHeap(len(buf))
		return decodeByteArraySlicePlain(values, defined, buf, heap.Append)
	default:
		return errtax.Wrap(errtax.ErrUnsupportedType, "layout: PLAIN decode has no handler for this column type")
	}
}

// decodeDictionaryValues reads dictionary indices from buf and scatters
// the corresponding dictionary entries into col starting at pageStartRow.
func decodeDictionaryValues(col sink.Column, dict sink.Column, pageStartRow int, defined []byte, numDefined int, buf []byte) error {
	if len(buf) < 1 {
		return errtax.Wrap(errtax.ErrTruncatedInput, "layout: dictionary-encoded page is missing its bit-width byte")
	}
	bitWidth := uint(buf[0])
	indices := make([]uint32, len(defined))
	if bitWidth > 0 {
		dec := rle.NewDecoder(buf[1:], bitWidth)
		nullCount := len(defined) - numDefined
		var err error
		if nullCount > 0 {
			err = dec.GetBatchSpaced(len(defined), nullCount, defined, indices)
		} else {
			err = dec.GetBatch(indices)
		}
		if err != nil {
			return err
		}
	}

	switch c := col.(type) {
	case *sink.FixedColumn[bool]:
		dc := dict.(*sink.FixedColumn[bool])
		for i, d := range defined {
			if d == 1 {
				v, err := dictLookup(dc.Values(), indices[i])
				if err != nil {
					return err
				}
				c.Values()[pageStartRow+i] = v
			}
		}
	case *sink.FixedColumn[int32]:
		dc := dict.(*sink.FixedColumn[int32])
		for i, d := range defined {
			if d == 1 {
				v, err := dictLookup(dc.Values(), indices[i])
				if err != nil {
					return err
				}
				c.Values()[pageStartRow+i] = v
			}
		}
	case *sink.FixedColumn[int64]:
		dc := dict.(*sink.FixedColumn[int64])
		for i, d := range defined {
			if d == 1 {
				v, err := dictLookup(dc.Values(), indices[i])
				if err != nil {
					return err
				}
				c.Values()[pageStartRow+i] = v
			}
		}
	case *sink.FixedColumn[float32]:
		dc := dict.(*sink.FixedColumn[float32])
		for i, d := range defined {
			if d == 1 {
				v, err := dictLookup(dc.Values(), indices[i])
				if err != nil {
					return err
				}
				c.Values()[pageStartRow+i] = v
			}
		}
	case *sink.FixedColumn[float64]:
		dc := dict.(*sink.FixedColumn[float64])
		for i, d := range defined {
			if d == 1 {
				v, err := dictLookup(dc.Values(), indices[i])
				if err != nil {
					return err
				}
				c.Values()[pageStartRow+i] = v
			}
		}
	case *sink.FixedColumn[[12]byte]:
		dc := dict.(*sink.FixedColumn[[12]byte])
		for i, d := range defined {
			if d == 1 {
				v, err := dictLookup(dc.Values(), indices[i])
				if err != nil {
					return err
				}
				c.Values()[pageStartRow+i] = v
			}
		}
	case *sink.ByteArrayColumn:
		dc := dict.(*sink.ByteArrayColumn)
		for i, d := range defined {
			if d == 1 {
				v, err := dictLookup(dc.Values(), indices[i])
				if err != nil {
					return err
				}
				c.Set(pageStartRow+i, v)
			}
		}
	default:
		return errtax.Wrap(errtax.ErrUnsupportedType, "layout: dictionary decode has no handler for this column type")
	}
	return nil
}

// dictLookup bounds-checks a decoded dictionary index before indexing
// into the dictionary, so a corrupt file with an out-of-range index
// surfaces as errtax.ErrInconsistentDictionary instead of a panic.
func dictLookup[T any](dict []T, index uint32) (T, error) {
	if int(index) >= len(dict) {
		var zero T
		return zero, errtax.Wrap(errtax.ErrInconsistentDictionary, "layout: dictionary index %d out of range for %d entries", index, len(dict))
	}
	return dict[index], nil
}

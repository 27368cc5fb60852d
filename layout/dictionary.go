package layout

import (
	"encoding/binary"

	"github.com/gaborcsardi/nanoparquet/errtax"
	"github.com/gaborcsardi/nanoparquet/format"
	"github.com/gaborcsardi/nanoparquet/sink"
)

// scanDictionaryPage decodes a dictionary page's payload into a
// scratch sink.Column of the given physical type, sized to the page's
// declared num_values. Encoding must be PLAIN or PLAIN_DICTIONARY (the
// only two encodings the format permits for dictionary pages); both are
// decoded identically since the dictionary itself is never index-encoded.
func scanDictionaryPage(payload []byte, hdr *format.DictionaryPageHeader, physicalType format.Type, typeLength int32) (sink.Column, error) {
	if hdr.Encoding != format.EncodingPlain && hdr.Encoding != format.EncodingPlainDictionary {
		return nil, errtax.Wrap(errtax.ErrUnsupportedEncoding, "layout: dictionary page encoding %s is not PLAIN", hdr.Encoding)
	}

	n := int(hdr.NumValues)
	dict := sink.NewColumn(physicalType, typeLength, n)
	if dict == nil {
		return nil, errtax.Wrap(errtax.ErrUnsupportedType, "layout: unsupported dictionary physical type %s", physicalType)
	}
	defined := dict.Defined()
	for i := range defined {
		defined[i] = 1
	}

	switch c := dict.(type) {
	case *sink.FixedColumn[bool]:
		return dict, decodePlainBoolInto(c.Values(), payload)
	case *sink.FixedColumn[int32]:
		return dict, decodeFixedInto(c.Values(), payload, 4, func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) })
	case *sink.FixedColumn[int64]:
		return dict, decodeFixedInto(c.Values(), payload, 8, func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) })
	case *sink.FixedColumn[float32]:
		return dict, decodeFixedInto(c.Values(), payload, 4, func(b []byte) float32 { return float32FromLE(b) })
	case *sink.FixedColumn[float64]:
		return dict, decodeFixedInto(c.Values(), payload, 8, func(b []byte) float64 { return float64FromLE(b) })
	case *sink.FixedColumn[[12]byte]:
		return dict, decodeFixedInto(c.Values(), payload, 12, func(b []byte) [12]byte { var v [12]byte; copy(v[:], b); return v })
	case *sink.ByteArrayColumn:
		if typeLength > 0 {
			return dict, decodeDictionaryFixedLenByteArray(c, payload, typeLength)
		}
		return dict, decodeDictionaryByteArray(c, payload)
	default:
		return nil, errtax.Wrap(errtax.ErrUnsupportedType, "layout: unsupported dictionary physical type %s", physicalType)
	}
}

func decodeDictionaryByteArray(col *sink.ByteArrayColumn, payload []byte) error {
	heap := col.NewHeap(len(payload))
	pos := 0
	for i := range col.Values() {
		if pos+4 > len(payload) {
			return errtax.Wrap(errtax.ErrTruncatedInput, "layout: dictionary string length runs past page end")
		}
		length := int(binary.LittleEndian.Uint32(payload[pos : pos+4]))
		pos += 4
		if length < 0 || pos+length > len(payload) {
			return errtax.Wrap(errtax.ErrTruncatedInput, "layout: dictionary string runs past page end")
		}
		col.Set(i, heap.Append(payload[pos:pos+length]))
		pos += length
	}
	return nil
}

func decodeDictionaryFixedLenByteArray(col *sink.ByteArrayColumn, payload []byte, typeLength int32) error {
	heap := col.NewHeap(len(payload) + len(col.Values()))
	pos := 0
	width := int(typeLength)
	for i := range col.Values() {
		if pos+width > len(payload) {
			return errtax.Wrap(errtax.ErrTruncatedInput, "layout: dictionary fixed-length value runs past page end")
		}
		col.Set(i, heap.Append(payload[pos:pos+width]))
		pos += width
	}
	return nil
}

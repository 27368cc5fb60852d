package layout

import (
	"encoding/binary"
	"math"

	"github.com/gaborcsardi/nanoparquet/errtax"
)

func float32FromLE(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func float64FromLE(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// decodeFixedInto reads len(dst) fixed-width values (every slot, no
// nullability) from buf, used for dictionary pages where every entry is
// present by construction.
func decodeFixedInto[T any](dst []T, buf []byte, width int, read func([]byte) T) error {
	need := len(dst) * width
	if len(buf) < need {
		return errtax.Wrap(errtax.ErrTruncatedInput, "layout: dictionary page has %d bytes, needs %d", len(buf), need)
	}
	for i := range dst {
		dst[i] = read(buf[i*width : i*width+width])
	}
	return nil
}

// decodePlainBoolInto unpacks one bit per destination slot, LSB-first
// within each byte, used for dictionary pages.
func decodePlainBoolInto(dst []bool, buf []byte) error {
	need := (len(dst) + 7) / 8
	if len(buf) < need {
		return errtax.Wrap(errtax.ErrTruncatedInput, "layout: dictionary page has %d bytes, needs %d for %d booleans", len(buf), need, len(dst))
	}
	for i := range dst {
		dst[i] = (buf[i/8]>>(uint(i)%8))&1 == 1
	}
	return nil
}

// decodeFixedSlicePlain reads a PLAIN-encoded fixed-width value for every
// row where defined[i] == 1, writing into dst[i] and skipping undefined
// rows entirely (they consume no input bytes). dst and defined must be
// the same length. It returns the number of bytes consumed.
func decodeFixedSlicePlain[T any](dst []T, defined []byte, buf []byte, width int, read func([]byte) T) (int, error) {
	pos := 0
	for i, d := range defined {
		if d == 0 {
			continue
		}
		if pos+width > len(buf) {
			return 0, errtax.Wrap(errtax.ErrTruncatedInput, "layout: data page runs past end decoding row %d", i)
		}
		dst[i] = read(buf[pos : pos+width])
		pos += width
	}
	return pos, nil
}

// decodeBoolSlicePlain unpacks one bit per defined row, LSB-first within
// each byte, advancing the bit cursor only for defined rows -- undefined
// rows consume no input bits.
func decodeBoolSlicePlain(dst []bool, defined []byte, buf []byte) error {
	bitPos := 0
	for i, d := range defined {
		if d == 0 {
			continue
		}
		byteIdx := bitPos / 8
		if byteIdx >= len(buf) {
			return errtax.Wrap(errtax.ErrTruncatedInput, "layout: boolean data runs past page end at row %d", i)
		}
		dst[i] = (buf[byteIdx]>>(uint(bitPos)%8))&1 == 1
		bitPos++
	}
	return nil
}

// decodeByteArraySlicePlain reads a 4-byte length + bytes for every
// defined row, appending each value into heap.
func decodeByteArraySlicePlain(values [][]byte, defined []byte, buf []byte, heap func([]byte) []byte) error {
	pos := 0
	for i, d := range defined {
		if d == 0 {
			continue
		}
		if pos+4 > len(buf) {
			return errtax.Wrap(errtax.ErrTruncatedInput, "layout: byte-array length runs past page end at row %d", i)
		}
		length := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
		pos += 4
		if length < 0 || pos+length > len(buf) {
			return errtax.Wrap(errtax.ErrTruncatedInput, "layout: byte-array value runs past page end at row %d", i)
		}
		values[i] = heap(buf[pos : pos+length])
		pos += length
	}
	return nil
}

// decodeFixedLenByteArraySlicePlain reads typeLength bytes for every
// defined row.
func decodeFixedLenByteArraySlicePlain(values [][]byte, defined []byte, buf []byte, typeLength int, heap func([]byte) []byte) error {
	pos := 0
	for i, d := range defined {
		if d == 0 {
			continue
		}
		if pos+typeLength > len(buf) {
			return errtax.Wrap(errtax.ErrTruncatedInput, "layout: fixed-length value runs past page end at row %d", i)
		}
		values[i] = heap(buf[pos : pos+typeLength])
		pos += typeLength
	}
	return nil
}

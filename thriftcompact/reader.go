// Package thriftcompact is a minimal, read-only decoder for Apache
// Thrift's compact binary protocol. It implements exactly the primitives
// the format package needs to walk FileMetaData, PageHeader and their
// nested messages; it is not a general-purpose Thrift library.
package thriftcompact

import (
	"math"

	"github.com/gaborcsardi/nanoparquet/errtax"
)

// Element types as they appear in the compact protocol's type nibble.
// These are the compact-protocol wire codes, distinct from Thrift's
// regular TType values for BOOL (which compact splits into two codes,
// true/false, so that a boolean field's value needs no separate byte).
const (
	CompactBooleanTrue  = 0x01
	CompactBooleanFalse = 0x02
	CompactByte         = 0x03
	CompactI16          = 0x04
	CompactI32          = 0x05
	CompactI64          = 0x06
	CompactDouble       = 0x07
	CompactBinary       = 0x08
	CompactList         = 0x09
	CompactSet          = 0x0A
	CompactMap          = 0x0B
	CompactStruct       = 0x0C
)

// Reader is a forward-only cursor over a compact-protocol-encoded byte
// slice. It never copies the underlying buffer; ReadBinary returns a
// sub-slice.
type Reader struct {
	buf []byte
	pos int

	// lastFieldID tracks the running field id for short-form field
	// headers, reset on entry to each struct via PushStruct/PopStruct.
	lastFieldID int16
	fieldStack  []int16
}

// NewReader wraps buf for decoding starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the number of bytes consumed so far.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errtax.Wrap(errtax.ErrTruncatedInput, "thrift: read byte past end of buffer")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, errtax.Wrap(errtax.ErrTruncatedInput, "thrift: read %d bytes past end of buffer", n)
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// ReadVarint reads an unsigned LEB128 varint (used for list/binary
// lengths and as the basis for zig-zag-encoded signed values).
func (r *Reader) ReadVarint() (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, errtax.Wrap(errtax.ErrCorruptFile, "thrift: varint too long")
		}
	}
}

// ReadZigZagVarint reads a zig-zag-encoded signed varint (i16/i32/i64 in
// the compact protocol all share this encoding).
func (r *Reader) ReadZigZagVarint() (int64, error) {
	u, err := r.ReadVarint()
	if err != nil {
		return 0, err
	}
	return int64(u>>1) ^ -(int64(u) & 1), nil
}

// ReadDouble reads an 8-byte little-endian IEEE 754 double.
func (r *Reader) ReadDouble() (float64, error) {
	b, err := r.readBytes(8)
	if err != nil {
		return 0, err
	}
	bits := uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
	return math.Float64frombits(bits), nil
}

// ReadBinary reads a varint-prefixed byte string and returns a view into
// the underlying buffer (no copy).
func (r *Reader) ReadBinary() ([]byte, error) {
	n, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Remaining()) {
		return nil, errtax.Wrap(errtax.ErrTruncatedInput, "thrift: binary length %d exceeds remaining buffer", n)
	}
	return r.readBytes(int(n))
}

// ReadString is ReadBinary with a string conversion.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBinary()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FieldHeader describes one struct field as found on the wire.
type FieldHeader struct {
	ID   int16
	Type byte // 0 means "stop", i.e. end of struct
}

// PushStruct must be called before reading a struct's fields, and
// PopStruct after the stop byte is seen, so nested structs restart their
// field-id delta tracking correctly.
func (r *Reader) PushStruct() {
	r.fieldStack = append(r.fieldStack, r.lastFieldID)
	r.lastFieldID = 0
}

func (r *Reader) PopStruct() {
	n := len(r.fieldStack)
	r.lastFieldID = r.fieldStack[n-1]
	r.fieldStack = r.fieldStack[:n-1]
}

// ReadFieldHeader reads one struct field header. A short-form header
// packs a 1..15 field-id delta into the upper nibble with the element
// type in the lower nibble; delta 0 (i.e. the whole byte is the element
// type, upper nibble zero) signals the long form, where the element type
// occupies the lower nibble and a zig-zag varint carries the absolute
// field id. A zero byte is the struct's stop marker.
func (r *Reader) ReadFieldHeader() (FieldHeader, error) {
	b, err := r.ReadByte()
	if err != nil {
		return FieldHeader{}, err
	}
	if b == 0 {
		return FieldHeader{Type: 0}, nil
	}
	elemType := b & 0x0f
	delta := (b >> 4) & 0x0f
	if delta != 0 {
		r.lastFieldID += int16(delta)
		return FieldHeader{ID: r.lastFieldID, Type: elemType}, nil
	}
	id, err := r.ReadZigZagVarint()
	if err != nil {
		return FieldHeader{}, err
	}
	r.lastFieldID = int16(id)
	return FieldHeader{ID: r.lastFieldID, Type: elemType}, nil
}

// ListHeader describes a compact list/set header.
type ListHeader struct {
	Size     int
	ElemType byte
}

// ReadListHeader reads a compact list (or set) header: the upper nibble
// holds the size for size < 15, or the escape value 0xF when the size
// must follow as a separate varint; the lower nibble holds the element
// type.
func (r *Reader) ReadListHeader() (ListHeader, error) {
	b, err := r.ReadByte()
	if err != nil {
		return ListHeader{}, err
	}
	elemType := b & 0x0f
	size := int((b >> 4) & 0x0f)
	if size == 0x0f {
		n, err := r.ReadVarint()
		if err != nil {
			return ListHeader{}, err
		}
		size = int(n)
	}
	if size < 0 {
		return ListHeader{}, errtax.Wrap(errtax.ErrCorruptFile, "thrift: negative list size")
	}
	if size > r.Remaining() {
		return ListHeader{}, errtax.Wrap(errtax.ErrCorruptFile, "thrift: list size %d exceeds %d remaining bytes", size, r.Remaining())
	}
	return ListHeader{Size: size, ElemType: elemType}, nil
}

// SkipValue discards one value of the given compact element type,
// recursing into structs/lists/sets/maps as needed. Used for fields the
// caller's struct definition doesn't declare.
func (r *Reader) SkipValue(elemType byte) error {
	switch elemType {
	case CompactBooleanTrue, CompactBooleanFalse:
		return nil
	case CompactByte:
		_, err := r.ReadByte()
		return err
	case CompactI16, CompactI32, CompactI64:
		_, err := r.ReadZigZagVarint()
		return err
	case CompactDouble:
		_, err := r.ReadDouble()
		return err
	case CompactBinary:
		_, err := r.ReadBinary()
		return err
	case CompactStruct:
		r.PushStruct()
		for {
			fh, err := r.ReadFieldHeader()
			if err != nil {
				return err
			}
			if fh.Type == 0 {
				break
			}
			if err := r.SkipValue(fh.Type); err != nil {
				return err
			}
		}
		r.PopStruct()
		return nil
	case CompactList, CompactSet:
		lh, err := r.ReadListHeader()
		if err != nil {
			return err
		}
		for i := 0; i < lh.Size; i++ {
			if err := r.SkipValue(lh.ElemType); err != nil {
				return err
			}
		}
		return nil
	case CompactMap:
		size, err := r.ReadVarint()
		if err != nil {
			return err
		}
		if size == 0 {
			// Empty maps encode as a single zero-size varint with no
			// key/value type byte following.
			return nil
		}
		if size > uint64(r.Remaining()) {
			return errtax.Wrap(errtax.ErrCorruptFile, "thrift: map size %d exceeds %d remaining bytes", size, r.Remaining())
		}
		kvTypes, err := r.ReadByte()
		if err != nil {
			return err
		}
		keyType := (kvTypes >> 4) & 0x0f
		valType := kvTypes & 0x0f
		for i := uint64(0); i < size; i++ {
			if err := r.SkipValue(keyType); err != nil {
				return err
			}
			if err := r.SkipValue(valType); err != nil {
				return err
			}
		}
		return nil
	default:
		return errtax.Wrap(errtax.ErrCorruptFile, "thrift: cannot skip unknown element type %d", elemType)
	}
}

// Package snappy implements a single Snappy block's raw (un-framed)
// decompression and a minimal encoder sufficient to build test fixtures.
// Parquet pages never use Snappy's streaming/framing format: the page
// header already carries the compressed and uncompressed sizes, so this
// package deals only in byte slices.
package snappy

import (
	"encoding/binary"

	"github.com/gaborcsardi/nanoparquet/errtax"
)

// Decode decompresses a single Snappy block from src and returns the
// result. It rejects copies whose source offset is zero or reaches
// before the output origin, and rejects a decoded length that doesn't
// match the block's own uncompressed-length header.
func Decode(src []byte) ([]byte, error) {
	length, n := binary.Uvarint(src)
	if n <= 0 {
		return nil, errtax.Wrap(errtax.ErrDecompressionFailed, "snappy: invalid or truncated length varint")
	}
	dst := make([]byte, 0, length)
	src = src[n:]

	for len(src) > 0 {
		tag := src[0]
		switch tag & 0x03 {
		case 0x00: // literal
			field := uint32(tag >> 2)
			extra := 0
			if field >= 60 {
				extra = int(field) - 59
			}
			if 1+extra > len(src) {
				return nil, errtax.Wrap(errtax.ErrDecompressionFailed, "snappy: truncated literal tag")
			}
			litLenMinusOne := field
			if extra > 0 {
				var v uint32
				for i := 0; i < extra; i++ {
					v |= uint32(src[1+i]) << (8 * i)
				}
				litLenMinusOne = v
			}
			actualLen := int(litLenMinusOne) + 1
			start := 1 + extra
			if start+actualLen > len(src) {
				return nil, errtax.Wrap(errtax.ErrDecompressionFailed, "snappy: literal runs past end of block")
			}
			dst = append(dst, src[start:start+actualLen]...)
			src = src[start+actualLen:]
		case 0x01: // 1-byte offset copy
			if len(src) < 2 {
				return nil, errtax.Wrap(errtax.ErrDecompressionFailed, "snappy: truncated copy-1 tag")
			}
			copyLen := int((tag>>2)&0x07) + 4
			offset := int(src[1]) | int((tag>>5)&0x07)<<8
			src = src[2:]
			if err := appendCopy(&dst, offset, copyLen); err != nil {
				return nil, err
			}
		case 0x02: // 2-byte offset copy
			if len(src) < 3 {
				return nil, errtax.Wrap(errtax.ErrDecompressionFailed, "snappy: truncated copy-2 tag")
			}
			copyLen := int(tag>>2) + 1
			offset := int(src[1]) | int(src[2])<<8
			src = src[3:]
			if err := appendCopy(&dst, offset, copyLen); err != nil {
				return nil, err
			}
		case 0x03: // 4-byte offset copy
			if len(src) < 5 {
				return nil, errtax.Wrap(errtax.ErrDecompressionFailed, "snappy: truncated copy-4 tag")
			}
			copyLen := int(tag>>2) + 1
			offset := int(src[1]) | int(src[2])<<8 | int(src[3])<<16 | int(src[4])<<24
			src = src[5:]
			if err := appendCopy(&dst, offset, copyLen); err != nil {
				return nil, err
			}
		}
	}

	if uint64(len(dst)) != length {
		return nil, errtax.Wrap(errtax.ErrDecompressionFailed, "snappy: decoded length %d does not match header %d", len(dst), length)
	}
	return dst, nil
}

func appendCopy(dst *[]byte, offset, length int) error {
	if offset <= 0 {
		return errtax.Wrap(errtax.ErrDecompressionFailed, "snappy: copy with non-positive offset %d", offset)
	}
	start := len(*dst) - offset
	if start < 0 {
		return errtax.Wrap(errtax.ErrDecompressionFailed, "snappy: copy reaches before output origin")
	}
	for i := 0; i < length; i++ {
		*dst = append(*dst, (*dst)[start+i])
	}
	return nil
}

// Encode produces a valid (if unoptimized) Snappy block: the whole input
// as one or more literal runs, with no copy search. Parquet readers
// never need this; it exists so tests can build Snappy-compressed
// fixtures deterministically.
func Encode(src []byte) []byte {
	var dst []byte
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(src)))
	dst = append(dst, lenBuf[:n]...)

	for off := 0; off < len(src); {
		chunk := src[off:]
		if len(chunk) > 1<<24 {
			chunk = chunk[:1<<24]
		}
		dst = append(dst, literalTag(len(chunk))...)
		dst = append(dst, chunk...)
		off += len(chunk)
	}
	return dst
}

func literalTag(length int) []byte {
	l := length - 1
	switch {
	case length <= 60:
		return []byte{byte(l << 2)}
	case length <= 1<<8:
		return []byte{60 << 2, byte(l)}
	case length <= 1<<16:
		return []byte{61 << 2, byte(l), byte(l >> 8)}
	case length <= 1<<24:
		return []byte{62 << 2, byte(l), byte(l >> 8), byte(l >> 16)}
	default:
		return []byte{63 << 2, byte(l), byte(l >> 8), byte(l >> 16), byte(l >> 24)}
	}
}

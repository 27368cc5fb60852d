package rle

import (
	"github.com/gaborcsardi/nanoparquet/errtax"
)

const (
	runModeNone = iota
	runModeRLE
	runModeBitPacked
)

// Decoder decodes Parquet's hybrid RLE / bit-packed integer encoding for
// a fixed bit width. Each run begins with an unsigned varint header whose
// low bit selects RLE (0) or bit-packed (1) framing. An RLE header's upper
// bits are the run length, and one value follows in ceil(bit_width/8)
// little-endian bytes; a bit-packed header's upper bits are a group
// count, and that many groups of 8 values follow, bit_width bits each,
// packed LSB-first. The same decoder serves definition levels
// (bit_width == 1), dictionary indices, and the standalone test surface.
type Decoder struct {
	buf      []byte
	pos      int
	bitWidth uint

	mode int

	rleValue     uint32
	rleRemaining int

	bpReader    *BitReader
	bpRemaining int
}

// NewDecoder wraps buf (the run-encoded payload, with no outer length
// prefix -- callers strip any 4-byte/1-byte length or bit-width prefix
// before constructing the decoder) for decoding at the given bit width.
func NewDecoder(buf []byte, bitWidth uint) *Decoder {
	return &Decoder{buf: buf, bitWidth: bitWidth}
}

func readUvarint(buf []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, errtax.Wrap(errtax.ErrCorruptFile, "rle: varint header too long")
		}
	}
	return 0, 0, errtax.Wrap(errtax.ErrTruncatedInput, "rle: varint header runs past end of buffer")
}

// nextRun parses the next run header and primes mode/rleRemaining or
// bpReader/bpRemaining accordingly.
func (d *Decoder) nextRun() error {
	if d.pos >= len(d.buf) {
		return errtax.Wrap(errtax.ErrTruncatedInput, "rle: no more runs but more values requested")
	}
	header, n, err := readUvarint(d.buf[d.pos:])
	if err != nil {
		return err
	}
	d.pos += n

	if header&1 == 0 {
		runLength := int(header >> 1)
		width := int((d.bitWidth + 7) / 8)
		if d.pos+width > len(d.buf) {
			return errtax.Wrap(errtax.ErrTruncatedInput, "rle: RLE run value runs past end of buffer")
		}
		var val uint32
		for i := 0; i < width; i++ {
			val |= uint32(d.buf[d.pos+i]) << (8 * uint(i))
		}
		d.pos += width
		d.mode = runModeRLE
		d.rleValue = val
		d.rleRemaining = runLength
		return nil
	}

	groups := int(header >> 1)
	byteWidth := groups * int(d.bitWidth)
	if d.pos+byteWidth > len(d.buf) {
		return errtax.Wrap(errtax.ErrTruncatedInput, "rle: bit-packed run runs past end of buffer")
	}
	d.mode = runModeBitPacked
	d.bpReader = NewBitReader(d.buf[d.pos : d.pos+byteWidth])
	d.bpRemaining = groups * 8
	d.pos += byteWidth
	return nil
}

// next returns the next decoded value, pulling a new run if the current
// one is exhausted.
func (d *Decoder) next() (uint32, error) {
	if d.bitWidth == 0 {
		return 0, nil
	}
	for {
		switch d.mode {
		case runModeRLE:
			if d.rleRemaining > 0 {
				d.rleRemaining--
				return d.rleValue, nil
			}
		case runModeBitPacked:
			if d.bpRemaining > 0 {
				v, err := d.bpReader.GetBits(d.bitWidth)
				if err != nil {
					return 0, err
				}
				d.bpRemaining--
				return v, nil
			}
		}
		if err := d.nextRun(); err != nil {
			return 0, err
		}
	}
}

// GetBatch fills every slot of out with the next len(out) decoded
// values. bit_width == 0 yields zeros without consuming any input bytes.
func (d *Decoder) GetBatch(out []uint32) error {
	if d.bitWidth == 0 {
		for i := range out {
			out[i] = 0
		}
		return nil
	}
	for i := range out {
		v, err := d.next()
		if err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}

// GetBatchSpaced fills out[0:n] at the positions where defined[i] == 1,
// leaving the rest of out untouched, and consumes exactly n - nullCount
// values from the underlying run stream (positions with defined[i] == 0
// consume nothing).
func (d *Decoder) GetBatchSpaced(n, nullCount int, defined []byte, out []uint32) error {
	if len(defined) < n || len(out) < n {
		return errtax.Wrap(errtax.ErrCorruptFile, "rle: defined/out shorter than n")
	}
	consumed := 0
	for i := 0; i < n; i++ {
		if defined[i] == 0 {
			continue
		}
		v, err := d.next()
		if err != nil {
			return err
		}
		out[i] = v
		consumed++
	}
	if consumed != n-nullCount {
		return errtax.Wrap(errtax.ErrCorruptFile, "rle: expected %d defined values, saw %d", n-nullCount, consumed)
	}
	return nil
}

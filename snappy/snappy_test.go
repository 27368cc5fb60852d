package snappy

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripAcrossLiteralLengthBrackets(t *testing.T) {
	lengths := []int{0, 1, 59, 60, 61, 255, 256, 257, 70000}
	for _, n := range lengths {
		t.Run("", func(t *testing.T) {
			src := make([]byte, n)
			for i := range src {
				src[i] = byte(i * 37)
			}
			encoded := Encode(src)
			got, err := Decode(encoded)
			require.NoError(t, err)
			require.Equal(t, src, got)
		})
	}
}

func TestDecodeCompressedDoublePage(t *testing.T) {
	// [1.5, 2.5, 3.5] as IEEE-754 little-endian float64s.
	var raw []byte
	for _, v := range []float64{1.5, 2.5, 3.5} {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		raw = append(raw, buf[:]...)
	}
	compressed := Encode(raw)
	got, err := Decode(compressed)
	require.NoError(t, err)
	require.Equal(t, raw, got)

	for i, want := range []float64{1.5, 2.5, 3.5} {
		bits := binary.LittleEndian.Uint64(got[i*8 : i*8+8])
		require.Equal(t, want, math.Float64frombits(bits))
	}
}

func TestDecodeRejectsZeroOffsetCopy(t *testing.T) {
	// length header = 4, then a 1-byte-offset copy tag with offset 0.
	block := []byte{4, 0x01, 0x00}
	_, err := Decode(block)
	require.Error(t, err)
}

func TestDecodeRejectsCopyBeforeOutputOrigin(t *testing.T) {
	// A literal of length 1 followed by a 2-byte copy whose offset reaches
	// past the single byte already emitted.
	block := []byte{5, 0x00, 'a', 0x02<<2 | 0x02, 10, 0}
	_, err := Decode(block)
	require.Error(t, err)
}

func TestDecodeRejectsLengthMismatch(t *testing.T) {
	// Header claims 10 bytes but the block only contains a 1-byte literal.
	block := []byte{10, 0x00, 'a'}
	_, err := Decode(block)
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedLiteralTag(t *testing.T) {
	block := []byte{5, 60 << 2}
	_, err := Decode(block)
	require.Error(t, err)
}

func TestDecodeEmptyBlock(t *testing.T) {
	got, err := Decode([]byte{0})
	require.NoError(t, err)
	require.Empty(t, got)
}

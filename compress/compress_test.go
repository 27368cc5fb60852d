package compress

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaborcsardi/nanoparquet/format"
)

func TestUncompressedRoundTrip(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5}
	compressed, err := Compress(raw, format.CompressionUncompressed)
	require.NoError(t, err)
	got, err := Uncompress(compressed, format.CompressionUncompressed, int64(len(raw)))
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestSnappyRoundTrip(t *testing.T) {
	raw := []byte("the quick brown fox jumps over the lazy dog, repeatedly, repeatedly")
	compressed, err := Compress(raw, format.CompressionSnappy)
	require.NoError(t, err)
	got, err := Uncompress(compressed, format.CompressionSnappy, int64(len(raw)))
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestUncompressRejectsUnsupportedCodec(t *testing.T) {
	_, err := Uncompress([]byte{1, 2, 3}, format.CompressionGzip, 3)
	require.Error(t, err)
}

func TestCompressRejectsUnsupportedCodec(t *testing.T) {
	_, err := Compress([]byte{1, 2, 3}, format.CompressionLZ4Raw)
	require.Error(t, err)
}

func TestUncompressRejectsSizeMismatch(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5}
	_, err := Uncompress(raw, format.CompressionUncompressed, 6)
	require.Error(t, err)
}

func TestUncompressRejectsDeclaredSizeOverLimit(t *testing.T) {
	SetMaxDecompressedSize(10)
	defer SetMaxDecompressedSize(DefaultMaxDecompressedSize)

	_, err := Uncompress([]byte{1, 2, 3}, format.CompressionUncompressed, 1000)
	require.Error(t, err)
}

func TestUncompressRejectsDeclaredRatioOverLimit(t *testing.T) {
	_, err := Uncompress([]byte{1}, format.CompressionUncompressed, MaxDecompressionRatio*2)
	require.Error(t, err)
}

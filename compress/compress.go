// Package compress dispatches page decompression by codec. Only
// UNCOMPRESSED and SNAPPY are registered; any other codec named in a
// file's metadata is reported as an unsupported feature rather than
// silently ignored.
package compress

import (
	"sync/atomic"

	"github.com/gaborcsardi/nanoparquet/errtax"
	"github.com/gaborcsardi/nanoparquet/format"
	"github.com/gaborcsardi/nanoparquet/snappy"
)

// DefaultMaxDecompressedSize bounds a single page's decompressed size (256
// MB) to guard against decompression-bomb inputs -- a small compressed
// page whose header claims an enormous uncompressed size.
const DefaultMaxDecompressedSize = 256 * 1024 * 1024

// MaxDecompressionRatio bounds the decompressed:compressed size ratio.
// 1000:1 is generous for legitimate columnar data.
const MaxDecompressionRatio = 1000

var maxDecompressedSize int64 = DefaultMaxDecompressedSize

// SetMaxDecompressedSize overrides the maximum decompressed page size.
// Zero disables the limit.
func SetMaxDecompressedSize(size int64) {
	atomic.StoreInt64(&maxDecompressedSize, size)
}

// GetMaxDecompressedSize returns the current maximum decompressed page size.
func GetMaxDecompressedSize() int64 {
	return atomic.LoadInt64(&maxDecompressedSize)
}

type codec struct {
	compress   func(buf []byte) []byte
	uncompress func(buf []byte) ([]byte, error)
}

var codecs = map[format.CompressionCodec]*codec{
	format.CompressionUncompressed: {
		compress:   func(buf []byte) []byte { return buf },
		uncompress: func(buf []byte) ([]byte, error) { return buf, nil },
	},
	format.CompressionSnappy: {
		compress:   snappy.Encode,
		uncompress: snappy.Decode,
	},
}

// Uncompress decompresses buf with the given codec and checks the result
// against expectedSize (the page header's uncompressed_page_size), guarding
// against decompression bombs both before and after running the codec.
func Uncompress(buf []byte, method format.CompressionCodec, expectedSize int64) ([]byte, error) {
	c, ok := codecs[method]
	if !ok {
		return nil, errtax.Wrap(errtax.ErrUnsupportedFeature, "compress: codec %s is not supported", method)
	}

	maxSize := GetMaxDecompressedSize()
	if maxSize > 0 && expectedSize > maxSize {
		return nil, errtax.Wrap(errtax.ErrCorruptFile, "compress: declared uncompressed size %d exceeds limit %d", expectedSize, maxSize)
	}
	if len(buf) > 0 && expectedSize/int64(len(buf)) > MaxDecompressionRatio {
		return nil, errtax.Wrap(errtax.ErrCorruptFile, "compress: declared decompression ratio exceeds limit %d:1", MaxDecompressionRatio)
	}

	result, err := c.uncompress(buf)
	if err != nil {
		return nil, err
	}
	if int64(len(result)) != expectedSize {
		return nil, errtax.Wrap(errtax.ErrCorruptFile, "compress: decompressed %d bytes, page header declared %d", len(result), expectedSize)
	}
	return result, nil
}

// Compress encodes buf with the given codec. It exists to build test
// fixtures; the reader never calls it.
func Compress(buf []byte, method format.CompressionCodec) ([]byte, error) {
	c, ok := codecs[method]
	if !ok {
		return nil, errtax.Wrap(errtax.ErrUnsupportedFeature, "compress: codec %s is not supported", method)
	}
	return c.compress(buf), nil
}

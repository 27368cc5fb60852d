// Package errtax defines the stable error taxonomy shared by every package
// in this module. Every decode failure is classified into one of a small
// number of kinds so callers can branch with errors.Is instead of parsing
// message strings.
package errtax

import (
	"errors"
	"fmt"
)

var (
	// ErrNotParquet means the file's leading/trailing magic bytes don't
	// read "PAR1", or the footer length is zero.
	ErrNotParquet = errors.New("not a parquet file")

	// ErrTruncatedInput means a read ran past the end of its declared
	// bounds: a short footer/chunk/page read, or premature EOF inside a
	// Thrift, RLE, or Snappy decoder.
	ErrTruncatedInput = errors.New("truncated input")

	// ErrUnsupportedFeature means the file uses a feature this reader
	// deliberately does not implement: encryption, nested schemas,
	// DATA_PAGE_V2, file_path-referenced chunks, multi-element
	// path_in_schema.
	ErrUnsupportedFeature = errors.New("unsupported feature")

	// ErrUnsupportedEncoding means a page declares an encoding outside
	// the supported set for its role (dictionary page, data page, or
	// definition levels).
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrUnsupportedType means the physical type can't be handled in the
	// current context, e.g. FIXED_LEN_BYTE_ARRAY with no type length.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInconsistentDictionary means a chunk has more than one
	// dictionary page, or a data page references dictionary encoding
	// without one having been seen first.
	ErrInconsistentDictionary = errors.New("inconsistent dictionary state")

	// ErrDecompressionFailed means a codec failed to decompress a page,
	// or the decompressed length didn't match the header's claim.
	ErrDecompressionFailed = errors.New("decompression failed")

	// ErrCorruptFile is the catch-all for structural violations that
	// don't fit a more specific kind, e.g. a Thrift struct that fails to
	// deserialize.
	ErrCorruptFile = errors.New("corrupt parquet file")
)

// Wrap annotates kind with a formatted message while keeping kind
// discoverable through errors.Is.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// Package source defines the minimal storage interface the reader needs
// and provides a local-filesystem implementation. Parquet's footer-first
// layout means every read is a seek-and-read at a known offset and
// length, so a reader.FileReader only ever needs random access plus a
// way to learn the file's total size.
package source

import "io"

// FileReader is the storage abstraction a reader.FileReader is built on.
// Size must return the total length of the underlying data; ReadAt
// follows the usual io.ReaderAt contract (safe for concurrent calls,
// never mutates seek position).
type FileReader interface {
	io.ReaderAt
	io.Closer
	Size() (int64, error)
}

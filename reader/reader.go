// Package reader implements the top-level FileReader: opening a local
// parquet file, verifying its magic bytes, parsing the Thrift footer,
// validating the schema is flat and unencrypted, and driving row-group
// scans through the layout package into sink.Column buffers.
package reader

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/gaborcsardi/nanoparquet/errtax"
	"github.com/gaborcsardi/nanoparquet/format"
	"github.com/gaborcsardi/nanoparquet/layout"
	"github.com/gaborcsardi/nanoparquet/sink"
	"github.com/gaborcsardi/nanoparquet/source"
)

const magic = "PAR1"

// maxPageHeaderPeek bounds the speculative read ReadPageHeader performs;
// real page headers are a handful of Thrift fields and never come close
// to this.
const maxPageHeaderPeek = 2048

// ColumnDescriptor names one leaf column of the file's flat schema, in
// the order chunks appear within every row group.
type ColumnDescriptor struct {
	Name        string
	SchemaIndex int
	Schema      *format.SchemaElement
}

// FileReader owns one open parquet file for its entire lifetime: the
// underlying source.FileReader, the parsed footer, and the derived
// column list.
type FileReader struct {
	f       source.FileReader
	size    int64
	meta    *format.FileMetaData
	columns []ColumnDescriptor
}

// OpenFile opens path on the local filesystem and prepares it for
// scanning.
func OpenFile(path string) (*FileReader, error) {
	f, err := source.OpenLocal(path)
	if err != nil {
		return nil, errtax.Wrap(errtax.ErrCorruptFile, "reader: open %s: %v", path, err)
	}
	return Open(f)
}

// Open prepares an already-open source.FileReader for scanning: it
// verifies the magic bytes, parses and validates the footer, and builds
// the column descriptor list. On any error it closes f before returning.
func Open(f source.FileReader) (*FileReader, error) {
	size, err := f.Size()
	if err != nil {
		_ = f.Close()
		return nil, errtax.Wrap(errtax.ErrCorruptFile, "reader: stat file: %v", err)
	}

	fr := &FileReader{f: f, size: size}
	if err := fr.verifyMagic(); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := fr.readFooter(); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := fr.buildColumns(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return fr, nil
}

func (fr *FileReader) verifyMagic() error {
	if fr.size < 8 {
		return errtax.Wrap(errtax.ErrNotParquet, "reader: file is %d bytes, too short to hold magic and footer length", fr.size)
	}

	var head [4]byte
	if _, err := fr.f.ReadAt(head[:], 0); err != nil {
		return errtax.Wrap(errtax.ErrCorruptFile, "reader: read leading magic: %v", err)
	}
	if string(head[:]) != magic {
		return errtax.Wrap(errtax.ErrNotParquet, "reader: leading magic is %q, want PAR1", head[:])
	}

	var tail [4]byte
	if _, err := fr.f.ReadAt(tail[:], fr.size-4); err != nil {
		return errtax.Wrap(errtax.ErrCorruptFile, "reader: read trailing magic: %v", err)
	}
	if string(tail[:]) != magic {
		return errtax.Wrap(errtax.ErrNotParquet, "reader: trailing magic is %q, want PAR1", tail[:])
	}
	return nil
}

func (fr *FileReader) readFooter() error {
	var lenBuf [4]byte
	if _, err := fr.f.ReadAt(lenBuf[:], fr.size-8); err != nil {
		return errtax.Wrap(errtax.ErrCorruptFile, "reader: read footer length: %v", err)
	}
	footerLen := binary.LittleEndian.Uint32(lenBuf[:])
	if footerLen == 0 {
		return errtax.Wrap(errtax.ErrNotParquet, "reader: footer length is zero")
	}

	footerStart := fr.size - 8 - int64(footerLen)
	if footerStart < 4 {
		return errtax.Wrap(errtax.ErrTruncatedInput, "reader: declared footer length %d exceeds file size %d", footerLen, fr.size)
	}

	buf := make([]byte, footerLen)
	if _, err := fr.f.ReadAt(buf, footerStart); err != nil {
		return errtax.Wrap(errtax.ErrTruncatedInput, "reader: short read of %d byte footer: %v", footerLen, err)
	}

	meta, consumed, err := format.ParseFileMetaData(buf)
	if err != nil {
		return err
	}
	if consumed > len(buf) {
		return errtax.Wrap(errtax.ErrCorruptFile, "reader: footer metadata claims %d bytes, only %d available", consumed, len(buf))
	}
	if meta.EncryptionAlgorithmSet {
		return errtax.Wrap(errtax.ErrUnsupportedFeature, "reader: encrypted files are not supported")
	}

	fr.meta = meta
	return nil
}

func (fr *FileReader) buildColumns() error {
	schemaList := fr.meta.Schema
	if len(schemaList) < 2 {
		return errtax.Wrap(errtax.ErrUnsupportedFeature, "reader: schema has no leaf columns")
	}

	root := schemaList[0]
	if root.NumChildren == nil || int(*root.NumChildren) != len(schemaList)-1 {
		return errtax.Wrap(errtax.ErrUnsupportedFeature, "reader: root schema element's num_children does not match leaf count, nested schemas are not supported")
	}

	columns := make([]ColumnDescriptor, 0, len(schemaList)-1)
	for i := 1; i < len(schemaList); i++ {
		leaf := &schemaList[i]
		if leaf.Type == nil {
			return errtax.Wrap(errtax.ErrUnsupportedFeature, "reader: column %q has no physical type, nested schemas are not supported", leaf.Name)
		}
		if leaf.NumChildren != nil && *leaf.NumChildren != 0 {
			return errtax.Wrap(errtax.ErrUnsupportedFeature, "reader: column %q has children, nested schemas are not supported", leaf.Name)
		}
		if leaf.RepetitionType != nil && *leaf.RepetitionType == format.RepetitionRepeated {
			return errtax.Wrap(errtax.ErrUnsupportedFeature, "reader: column %q is REPEATED, repeated fields are not supported", leaf.Name)
		}
		columns = append(columns, ColumnDescriptor{Name: leaf.Name, SchemaIndex: i, Schema: leaf})
	}

	fr.columns = columns
	return nil
}

// Metadata returns the parsed footer.
func (fr *FileReader) Metadata() *format.FileMetaData { return fr.meta }

// Columns returns the file's leaf columns in chunk order.
func (fr *FileReader) Columns() []ColumnDescriptor { return fr.columns }

// Close releases the underlying file handle.
func (fr *FileReader) Close() error { return fr.f.Close() }

// ScanState tracks progress across repeated Scan calls.
type ScanState struct {
	RowGroupIndex int
}

// ScanResult holds one row group's decoded columns, keyed by column
// name. Callers reuse a ScanResult across calls; Scan overwrites its
// Columns map each time a row group is produced.
type ScanResult struct {
	NumRows int
	Columns map[string]sink.Column
}

// Scan decodes the row group at state.RowGroupIndex into result and
// advances state.RowGroupIndex. It returns false, with result.NumRows
// set to 0, once every row group has been scanned.
func (fr *FileReader) Scan(state *ScanState, result *ScanResult) (bool, error) {
	if state.RowGroupIndex >= len(fr.meta.RowGroups) {
		result.NumRows = 0
		result.Columns = nil
		return false, nil
	}

	rg := &fr.meta.RowGroups[state.RowGroupIndex]
	nrows := int(rg.NumRows)
	if len(rg.Columns) != len(fr.columns) {
		return false, errtax.Wrap(errtax.ErrCorruptFile, "reader: row group %d has %d chunks, schema declares %d leaf columns", state.RowGroupIndex, len(rg.Columns), len(fr.columns))
	}

	columns := make(map[string]sink.Column, len(fr.columns))
	for i, desc := range fr.columns {
		chunk := &rg.Columns[i]
		if chunk.FilePath != nil {
			return false, errtax.Wrap(errtax.ErrUnsupportedFeature, "reader: column %q references an external file_path, not supported", desc.Name)
		}
		if chunk.EncryptedMetadataSet {
			return false, errtax.Wrap(errtax.ErrUnsupportedFeature, "reader: column %q is encrypted", desc.Name)
		}
		if chunk.MetaData == nil {
			return false, errtax.Wrap(errtax.ErrCorruptFile, "reader: column %q chunk has no metadata", desc.Name)
		}
		meta := chunk.MetaData
		if len(meta.PathInSchema) != 1 {
			return false, errtax.Wrap(errtax.ErrUnsupportedFeature, "reader: column %q has path_in_schema of length %d, nested schemas are not supported", desc.Name, len(meta.PathInSchema))
		}

		start := layout.ChunkStartOffset(meta)
		buf, err := fr.ReadChunk(start, meta.TotalCompressedSize)
		if err != nil {
			return false, err
		}

		col, err := layout.ScanChunk(buf, desc.Schema, meta, nrows)
		if err != nil {
			return false, err
		}
		columns[desc.Name] = col
	}

	result.NumRows = nrows
	result.Columns = columns
	state.RowGroupIndex++
	return true, nil
}

// ReadChunk performs one bounded random read, rejecting a request that
// would run past the end of the file.
func (fr *FileReader) ReadChunk(offset, size int64) ([]byte, error) {
	if offset < 0 || size < 0 || offset+size > fr.size {
		return nil, errtax.Wrap(errtax.ErrTruncatedInput, "reader: chunk [%d, %d) runs past end of %d byte file", offset, offset+size, fr.size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(fr.f, offset, size), buf); err != nil {
		return nil, errtax.Wrap(errtax.ErrTruncatedInput, "reader: short read of chunk at offset %d: %v", offset, err)
	}
	return buf, nil
}

// ReadPageHeader speculatively reads up to maxPageHeaderPeek bytes
// starting at offset, never reaching into the trailing 4-byte magic, and
// parses a page header from them, for diagnostic callers that want to
// enumerate pages without scanning a whole chunk.
func (fr *FileReader) ReadPageHeader(offset int64) (*format.PageHeader, int, error) {
	limit := fr.size - 4
	if offset < 0 || offset >= limit {
		return nil, 0, errtax.Wrap(errtax.ErrTruncatedInput, "reader: page header offset %d is outside the file's first %d bytes", offset, limit)
	}

	peek := limit - offset
	if peek > maxPageHeaderPeek {
		peek = maxPageHeaderPeek
	}

	buf := make([]byte, peek)
	n, err := fr.f.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, errtax.Wrap(errtax.ErrTruncatedInput, "reader: read page header at offset %d: %v", offset, err)
	}
	buf = buf[:n]

	return format.ParsePageHeader(buf)
}

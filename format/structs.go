package format

import (
	"github.com/gaborcsardi/nanoparquet/errtax"
	"github.com/gaborcsardi/nanoparquet/thriftcompact"
)

// SchemaElement is one node of the flattened schema tree. Index 0 is
// always the root (a group with no type); indices 1..n are the physical
// leaf columns, in file order.
type SchemaElement struct {
	Type                *Type
	TypeLength          *int32
	RepetitionType      *FieldRepetitionType
	Name                string
	NumChildren         *int32
	ConvertedType       *ConvertedType
	Scale               *int32
	Precision           *int32
	FieldID             *int32
}

func (s *SchemaElement) readFrom(r *thriftcompact.Reader) error {
	r.PushStruct()
	defer r.PopStruct()
	for {
		fh, err := r.ReadFieldHeader()
		if err != nil {
			return err
		}
		if fh.Type == 0 {
			return nil
		}
		switch fh.ID {
		case 1:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			t := Type(int32(v))
			s.Type = &t
		case 2:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			tl := int32(v)
			s.TypeLength = &tl
		case 3:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			rt := FieldRepetitionType(int32(v))
			s.RepetitionType = &rt
		case 4:
			v, err := r.ReadString()
			if err != nil {
				return err
			}
			s.Name = v
		case 5:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			nc := int32(v)
			s.NumChildren = &nc
		case 6:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			ct := ConvertedType(int32(v))
			s.ConvertedType = &ct
		case 7:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			sc := int32(v)
			s.Scale = &sc
		case 8:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			pr := int32(v)
			s.Precision = &pr
		case 9:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			fid := int32(v)
			s.FieldID = &fid
		default:
			// field 10 (logicalType) and anything newer: read but not
			// interpreted by the core.
			if err := r.SkipValue(fh.Type); err != nil {
				return err
			}
		}
	}
}

// KeyValue is a single entry of FileMetaData's optional key/value
// metadata map.
type KeyValue struct {
	Key   string
	Value *string
}

func (kv *KeyValue) readFrom(r *thriftcompact.Reader) error {
	r.PushStruct()
	defer r.PopStruct()
	for {
		fh, err := r.ReadFieldHeader()
		if err != nil {
			return err
		}
		if fh.Type == 0 {
			return nil
		}
		switch fh.ID {
		case 1:
			v, err := r.ReadString()
			if err != nil {
				return err
			}
			kv.Key = v
		case 2:
			v, err := r.ReadString()
			if err != nil {
				return err
			}
			kv.Value = &v
		default:
			if err := r.SkipValue(fh.Type); err != nil {
				return err
			}
		}
	}
}

// ColumnMetaData carries everything the page scanner needs to locate and
// decode one column chunk's pages.
type ColumnMetaData struct {
	Type                 Type
	Encodings            []Encoding
	PathInSchema         []string
	Codec                CompressionCodec
	NumValues            int64
	TotalUncompressedSize int64
	TotalCompressedSize  int64
	KeyValueMetadata     []KeyValue
	DataPageOffset       int64
	IndexPageOffset      *int64
	DictionaryPageOffset *int64
	EncryptionAlgorithmSet bool
}

func (c *ColumnMetaData) readFrom(r *thriftcompact.Reader) error {
	r.PushStruct()
	defer r.PopStruct()
	for {
		fh, err := r.ReadFieldHeader()
		if err != nil {
			return err
		}
		if fh.Type == 0 {
			return nil
		}
		switch fh.ID {
		case 1:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			c.Type = Type(int32(v))
		case 2:
			lh, err := r.ReadListHeader()
			if err != nil {
				return err
			}
			c.Encodings = make([]Encoding, 0, lh.Size)
			for i := 0; i < lh.Size; i++ {
				v, err := r.ReadZigZagVarint()
				if err != nil {
					return err
				}
				c.Encodings = append(c.Encodings, Encoding(int32(v)))
			}
		case 3:
			lh, err := r.ReadListHeader()
			if err != nil {
				return err
			}
			c.PathInSchema = make([]string, 0, lh.Size)
			for i := 0; i < lh.Size; i++ {
				v, err := r.ReadString()
				if err != nil {
					return err
				}
				c.PathInSchema = append(c.PathInSchema, v)
			}
		case 4:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			c.Codec = CompressionCodec(int32(v))
		case 5:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			c.NumValues = v
		case 6:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			c.TotalUncompressedSize = v
		case 7:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			c.TotalCompressedSize = v
		case 8:
			lh, err := r.ReadListHeader()
			if err != nil {
				return err
			}
			c.KeyValueMetadata = make([]KeyValue, lh.Size)
			for i := 0; i < lh.Size; i++ {
				if err := c.KeyValueMetadata[i].readFrom(r); err != nil {
					return err
				}
			}
		case 9:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			c.DataPageOffset = v
		case 10:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			ipo := v
			c.IndexPageOffset = &ipo
		case 11:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			dpo := v
			c.DictionaryPageOffset = &dpo
		default:
			// field 12 (statistics), 13 (encoding_stats), 14/15 (bloom
			// filter location), and anything newer: read but unused by
			// the core.
			if err := r.SkipValue(fh.Type); err != nil {
				return err
			}
		}
	}
}

// ColumnChunk is one column's slice of one row group.
type ColumnChunk struct {
	FilePath             *string
	FileOffset           int64
	MetaData             *ColumnMetaData
	EncryptedMetadataSet bool
}

func (c *ColumnChunk) readFrom(r *thriftcompact.Reader) error {
	r.PushStruct()
	defer r.PopStruct()
	for {
		fh, err := r.ReadFieldHeader()
		if err != nil {
			return err
		}
		if fh.Type == 0 {
			return nil
		}
		switch fh.ID {
		case 1:
			v, err := r.ReadString()
			if err != nil {
				return err
			}
			c.FilePath = &v
		case 2:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			c.FileOffset = v
		case 3:
			c.MetaData = &ColumnMetaData{}
			if err := c.MetaData.readFrom(r); err != nil {
				return err
			}
		case 8:
			// crypto_metadata: its mere presence means the chunk is
			// encrypted.
			c.EncryptedMetadataSet = true
			if err := r.SkipValue(fh.Type); err != nil {
				return err
			}
		default:
			if err := r.SkipValue(fh.Type); err != nil {
				return err
			}
		}
	}
}

// RowGroup is an ordered list of column chunks plus row-group-level
// counters.
type RowGroup struct {
	Columns        []ColumnChunk
	TotalByteSize  int64
	NumRows        int64
}

func (g *RowGroup) readFrom(r *thriftcompact.Reader) error {
	r.PushStruct()
	defer r.PopStruct()
	for {
		fh, err := r.ReadFieldHeader()
		if err != nil {
			return err
		}
		if fh.Type == 0 {
			return nil
		}
		switch fh.ID {
		case 1:
			lh, err := r.ReadListHeader()
			if err != nil {
				return err
			}
			g.Columns = make([]ColumnChunk, lh.Size)
			for i := 0; i < lh.Size; i++ {
				if err := g.Columns[i].readFrom(r); err != nil {
					return err
				}
			}
		case 2:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			g.TotalByteSize = v
		case 3:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			g.NumRows = v
		default:
			if err := r.SkipValue(fh.Type); err != nil {
				return err
			}
		}
	}
}

// FileMetaData is the deserialized trailer.
type FileMetaData struct {
	Version               int32
	Schema                []SchemaElement
	NumRows                int64
	RowGroups              []RowGroup
	KeyValueMetadata       []KeyValue
	CreatedBy              *string
	EncryptionAlgorithmSet bool
}

func (m *FileMetaData) readFrom(r *thriftcompact.Reader) error {
	r.PushStruct()
	defer r.PopStruct()
	for {
		fh, err := r.ReadFieldHeader()
		if err != nil {
			return err
		}
		if fh.Type == 0 {
			return nil
		}
		switch fh.ID {
		case 1:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			m.Version = int32(v)
		case 2:
			lh, err := r.ReadListHeader()
			if err != nil {
				return err
			}
			m.Schema = make([]SchemaElement, lh.Size)
			for i := 0; i < lh.Size; i++ {
				if err := m.Schema[i].readFrom(r); err != nil {
					return err
				}
			}
		case 3:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			m.NumRows = v
		case 4:
			lh, err := r.ReadListHeader()
			if err != nil {
				return err
			}
			m.RowGroups = make([]RowGroup, lh.Size)
			for i := 0; i < lh.Size; i++ {
				if err := m.RowGroups[i].readFrom(r); err != nil {
					return err
				}
			}
		case 5:
			lh, err := r.ReadListHeader()
			if err != nil {
				return err
			}
			m.KeyValueMetadata = make([]KeyValue, lh.Size)
			for i := 0; i < lh.Size; i++ {
				if err := m.KeyValueMetadata[i].readFrom(r); err != nil {
					return err
				}
			}
		case 6:
			v, err := r.ReadString()
			if err != nil {
				return err
			}
			m.CreatedBy = &v
		case 8:
			// encryption_algorithm: presence alone is a hard error per
			// this reader's scope (no encryption support).
			m.EncryptionAlgorithmSet = true
			if err := r.SkipValue(fh.Type); err != nil {
				return err
			}
		default:
			if err := r.SkipValue(fh.Type); err != nil {
				return err
			}
		}
	}
}

// DataPageHeader describes a DATA_PAGE's value count and encodings.
type DataPageHeader struct {
	NumValues                int32
	Encoding                 Encoding
	DefinitionLevelEncoding  Encoding
	RepetitionLevelEncoding  Encoding
}

func (h *DataPageHeader) readFrom(r *thriftcompact.Reader) error {
	r.PushStruct()
	defer r.PopStruct()
	for {
		fh, err := r.ReadFieldHeader()
		if err != nil {
			return err
		}
		if fh.Type == 0 {
			return nil
		}
		switch fh.ID {
		case 1:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			h.NumValues = int32(v)
		case 2:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			h.Encoding = Encoding(int32(v))
		case 3:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			h.DefinitionLevelEncoding = Encoding(int32(v))
		case 4:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			h.RepetitionLevelEncoding = Encoding(int32(v))
		default:
			if err := r.SkipValue(fh.Type); err != nil {
				return err
			}
		}
	}
}

// DictionaryPageHeader describes a DICTIONARY_PAGE's entry count and
// encoding.
type DictionaryPageHeader struct {
	NumValues int32
	Encoding  Encoding
	IsSorted  *bool
}

func (h *DictionaryPageHeader) readFrom(r *thriftcompact.Reader) error {
	r.PushStruct()
	defer r.PopStruct()
	for {
		fh, err := r.ReadFieldHeader()
		if err != nil {
			return err
		}
		if fh.Type == 0 {
			return nil
		}
		switch fh.ID {
		case 1:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			h.NumValues = int32(v)
		case 2:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			h.Encoding = Encoding(int32(v))
		case 3:
			var b bool
			switch fh.Type {
			case thriftcompact.CompactBooleanTrue:
				b = true
			case thriftcompact.CompactBooleanFalse:
				b = false
			}
			h.IsSorted = &b
		default:
			if err := r.SkipValue(fh.Type); err != nil {
				return err
			}
		}
	}
}

// PageHeader is a union-ish record: exactly one of DataPageHeader /
// DictionaryPageHeader must be set for DATA_PAGE / DICTIONARY_PAGE
// respectively; DATA_PAGE_V2 is rejected before this distinction matters.
type PageHeader struct {
	Type                 PageType
	UncompressedPageSize int32
	CompressedPageSize   int32
	DataPageHeader       *DataPageHeader
	DictionaryPageHeader *DictionaryPageHeader
}

func (h *PageHeader) readFrom(r *thriftcompact.Reader) error {
	r.PushStruct()
	defer r.PopStruct()
	for {
		fh, err := r.ReadFieldHeader()
		if err != nil {
			return err
		}
		if fh.Type == 0 {
			return nil
		}
		switch fh.ID {
		case 1:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			h.Type = PageType(int32(v))
		case 2:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			h.UncompressedPageSize = int32(v)
		case 3:
			v, err := r.ReadZigZagVarint()
			if err != nil {
				return err
			}
			h.CompressedPageSize = int32(v)
		case 5:
			h.DataPageHeader = &DataPageHeader{}
			if err := h.DataPageHeader.readFrom(r); err != nil {
				return err
			}
		case 7:
			h.DictionaryPageHeader = &DictionaryPageHeader{}
			if err := h.DictionaryPageHeader.readFrom(r); err != nil {
				return err
			}
		default:
			// field 4 (crc), 6 (index_page_header, empty struct),
			// 8 (data_page_header_v2): read but not used, or rejected
			// by the caller once it sees Type == DATA_PAGE_V2.
			if err := r.SkipValue(fh.Type); err != nil {
				return err
			}
		}
	}
}

// ParseFileMetaData deserializes buf as a FileMetaData struct and
// returns the number of bytes consumed, so the caller can verify it
// doesn't exceed buf's length.
func ParseFileMetaData(buf []byte) (*FileMetaData, int, error) {
	r := thriftcompact.NewReader(buf)
	m := &FileMetaData{}
	if err := m.readFrom(r); err != nil {
		return nil, 0, errtax.Wrap(errtax.ErrCorruptFile, "parse file metadata: %v", err)
	}
	return m, r.Pos(), nil
}

// ParsePageHeader deserializes buf as a PageHeader struct starting at
// offset 0 and returns the number of bytes consumed, i.e. the offset at
// which the page payload begins.
func ParsePageHeader(buf []byte) (*PageHeader, int, error) {
	r := thriftcompact.NewReader(buf)
	h := &PageHeader{}
	if err := h.readFrom(r); err != nil {
		return nil, 0, errtax.Wrap(errtax.ErrCorruptFile, "parse page header: %v", err)
	}
	return h, r.Pos(), nil
}

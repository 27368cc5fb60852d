package format

// Enum integer values are copied bit-exactly from the Apache Parquet
// Thrift IDL (parquet.thrift). Unknown values are preserved as-is: these
// are plain int32-based types, not closed Go enums, so a value the
// current constant list doesn't name still round-trips and can be
// reported in an error message instead of silently clamping to a known
// constant.

// Type is a column's physical (on-disk) type.
type Type int32

const (
	TypeBoolean           Type = 0
	TypeInt32             Type = 1
	TypeInt64             Type = 2
	TypeInt96             Type = 3
	TypeFloat             Type = 4
	TypeDouble            Type = 5
	TypeByteArray         Type = 6
	TypeFixedLenByteArray Type = 7
)

func (t Type) String() string {
	switch t {
	case TypeBoolean:
		return "BOOLEAN"
	case TypeInt32:
		return "INT32"
	case TypeInt64:
		return "INT64"
	case TypeInt96:
		return "INT96"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	case TypeByteArray:
		return "BYTE_ARRAY"
	case TypeFixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN_TYPE(" + itoa(int64(t)) + ")"
	}
}

// ConvertedType is the legacy logical-type annotation. The core reads but
// never interprets it.
type ConvertedType int32

// FieldRepetitionType constrains this reader to REQUIRED/OPTIONAL;
// REPEATED is rejected as an unsupported (nested-schema) feature.
type FieldRepetitionType int32

const (
	RepetitionRequired FieldRepetitionType = 0
	RepetitionOptional FieldRepetitionType = 1
	RepetitionRepeated FieldRepetitionType = 2
)

func (f FieldRepetitionType) String() string {
	switch f {
	case RepetitionRequired:
		return "REQUIRED"
	case RepetitionOptional:
		return "OPTIONAL"
	case RepetitionRepeated:
		return "REPEATED"
	default:
		return "UNKNOWN_REPETITION(" + itoa(int64(f)) + ")"
	}
}

// Encoding identifies how a page's values (or a chunk's definition
// levels) are bit-packed on the wire.
type Encoding int32

const (
	EncodingPlain                Encoding = 0
	EncodingGroupVarInt          Encoding = 1 // deprecated, never emitted
	EncodingPlainDictionary      Encoding = 2
	EncodingRLE                  Encoding = 3
	EncodingBitPacked            Encoding = 4 // deprecated
	EncodingDeltaBinaryPacked    Encoding = 5
	EncodingDeltaLengthByteArray Encoding = 6
	EncodingDeltaByteArray       Encoding = 7
	EncodingRLEDictionary        Encoding = 8
	EncodingByteStreamSplit      Encoding = 9
)

func (e Encoding) String() string {
	switch e {
	case EncodingPlain:
		return "PLAIN"
	case EncodingGroupVarInt:
		return "GROUP_VAR_INT"
	case EncodingPlainDictionary:
		return "PLAIN_DICTIONARY"
	case EncodingRLE:
		return "RLE"
	case EncodingBitPacked:
		return "BIT_PACKED"
	case EncodingDeltaBinaryPacked:
		return "DELTA_BINARY_PACKED"
	case EncodingDeltaLengthByteArray:
		return "DELTA_LENGTH_BYTE_ARRAY"
	case EncodingDeltaByteArray:
		return "DELTA_BYTE_ARRAY"
	case EncodingRLEDictionary:
		return "RLE_DICTIONARY"
	case EncodingByteStreamSplit:
		return "BYTE_STREAM_SPLIT"
	default:
		return "UNKNOWN_ENCODING(" + itoa(int64(e)) + ")"
	}
}

// CompressionCodec identifies a column chunk's page compression. This
// reader implements only Uncompressed and Snappy; any other value is
// rejected as an unsupported feature when a page of the chunk is
// decompressed.
type CompressionCodec int32

const (
	CompressionUncompressed CompressionCodec = 0
	CompressionSnappy       CompressionCodec = 1
	CompressionGzip         CompressionCodec = 2
	CompressionLZO          CompressionCodec = 3
	CompressionBrotli       CompressionCodec = 4
	CompressionLZ4          CompressionCodec = 5
	CompressionZSTD         CompressionCodec = 6
	CompressionLZ4Raw       CompressionCodec = 7
)

func (c CompressionCodec) String() string {
	switch c {
	case CompressionUncompressed:
		return "UNCOMPRESSED"
	case CompressionSnappy:
		return "SNAPPY"
	case CompressionGzip:
		return "GZIP"
	case CompressionLZO:
		return "LZO"
	case CompressionBrotli:
		return "BROTLI"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZSTD:
		return "ZSTD"
	case CompressionLZ4Raw:
		return "LZ4_RAW"
	default:
		return "UNKNOWN_CODEC(" + itoa(int64(c)) + ")"
	}
}

// PageType identifies a page's role within a column chunk.
type PageType int32

const (
	PageTypeDataPage       PageType = 0
	PageTypeIndexPage      PageType = 1
	PageTypeDictionaryPage PageType = 2
	PageTypeDataPageV2     PageType = 3
)

func (p PageType) String() string {
	switch p {
	case PageTypeDataPage:
		return "DATA_PAGE"
	case PageTypeIndexPage:
		return "INDEX_PAGE"
	case PageTypeDictionaryPage:
		return "DICTIONARY_PAGE"
	case PageTypeDataPageV2:
		return "DATA_PAGE_V2"
	default:
		return "UNKNOWN_PAGE_TYPE(" + itoa(int64(p)) + ")"
	}
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

package flatrecord

import "strings"

// ColumnKind is the closed set of logical types a Column may carry.
type ColumnKind int

const (
	Bool ColumnKind = iota
	Byte
	Short
	Int32
	Int64
	Single
	Double
	Decimal
	Char
	String
	Guid
	DateTime
	DateTimeOffset
	TimeSpan
	Enum
	ByteArray
	CharArray
	// Ignored columns consume a token on read but are never surfaced to the
	// consumer; they emit a fill token on write.
	Ignored
	// Metadata columns produce a value derived from record context on read
	// (e.g. the physical record number) and are skipped on write.
	Metadata
	// Custom columns delegate parse/format to user-supplied functions.
	Custom
)

func (k ColumnKind) String() string {
	switch k {
	case Bool:
		return "Bool"
	case Byte:
		return "Byte"
	case Short:
		return "Short"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Single:
		return "Single"
	case Double:
		return "Double"
	case Decimal:
		return "Decimal"
	case Char:
		return "Char"
	case String:
		return "String"
	case Guid:
		return "Guid"
	case DateTime:
		return "DateTime"
	case DateTimeOffset:
		return "DateTimeOffset"
	case TimeSpan:
		return "TimeSpan"
	case Enum:
		return "Enum"
	case ByteArray:
		return "ByteArray"
	case CharArray:
		return "CharArray"
	case Ignored:
		return "Ignored"
	case Metadata:
		return "Metadata"
	case Custom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Alignment is a fixed-width window's text justification within its field.
type Alignment int

const (
	LeftAligned Alignment = iota
	RightAligned
)

// TruncationPolicy decides which end of an overflowing value is dropped when
// writing a fixed-width field.
type TruncationPolicy int

const (
	TruncateTrailing TruncationPolicy = iota
	TruncateLeading
)

// Window is the fixed-width descriptor for a Column: width plus the
// alignment, fill, and overflow policy used to pad or truncate formatted
// text to exactly Width runes.
type Window struct {
	Width            int
	Alignment        Alignment
	FillChar         rune
	TruncationPolicy TruncationPolicy
}

func (w Window) fillChar() rune {
	if w.FillChar == 0 {
		return ' '
	}
	return w.FillChar
}

// MetadataKind identifies which derived value a Metadata column produces.
type MetadataKind int

const (
	// MetadataPhysicalRecordNumber yields RecordContext.PhysicalRecordNumber.
	MetadataPhysicalRecordNumber MetadataKind = iota
	// MetadataLogicalRecordNumber yields RecordContext.LogicalRecordNumber.
	MetadataLogicalRecordNumber
)

// CustomParseFunc converts a raw field into a typed value for a Custom
// column.
type CustomParseFunc func(raw string, ctx *RecordContext) (interface{}, error)

// CustomFormatFunc converts a typed value into its raw field text for a
// Custom column.
type CustomFormatFunc func(value interface{}, ctx *RecordContext) (string, error)

// EnumTable maps enum member names to their ordinal value and back, used by
// Enum columns.
type EnumTable struct {
	nameToOrdinal map[string]int
	ordinalToName map[int]string
}

// NewEnumTable builds an EnumTable from an ordered list of member names; the
// ordinal of members[i] is i.
func NewEnumTable(members ...string) *EnumTable {
	t := &EnumTable{
		nameToOrdinal: make(map[string]int, len(members)),
		ordinalToName: make(map[int]string, len(members)),
	}
	for i, m := range members {
		t.nameToOrdinal[m] = i
		t.ordinalToName[i] = m
	}
	return t
}

// Column is a single named, typed field of a Schema.
type Column struct {
	Name   string
	Kind   ColumnKind
	Window Window

	// NullSentinel, when NullSentinelSet is true, is the literal text that
	// means null on read and is emitted for null on write. When
	// NullSentinelSet is false, an empty raw string means null.
	NullSentinel    string
	NullSentinelSet bool

	// PreserveWhitespace disables the codec's trim-before-convert step for
	// this column.
	PreserveWhitespace bool

	// Format is a Go layout/format string consulted by the codec: a
	// time.Parse/time.Format layout for DateTime/DateTimeOffset, or a
	// strconv format verb used on write for Single/Double/Decimal ("f",
	// "e", "g"; default "f"; an empty Format keeps a Decimal's parsed
	// text). TimeSpan and the integer kinds ignore it.
	Format string

	// FormatProvider carries the culture hint used for locale-aware
	// formatting of Int64/Single/Double/Decimal values on write (see
	// context.go). Nil means plain strconv formatting.
	FormatProvider *FormatProvider

	// Enum is required for Kind == Enum.
	Enum *EnumTable

	// CustomParse/CustomFormat are required for Kind == Custom.
	CustomParse  CustomParseFunc
	CustomFormat CustomFormatFunc

	// MetadataKind is consulted for Kind == Metadata.
	MetadataKind MetadataKind

	schema *Schema
	index  int
}

// isNull reports whether raw should be treated as the column's null value.
func (c *Column) isNull(raw string) bool {
	if c.NullSentinelSet {
		return raw == c.NullSentinel
	}
	return raw == ""
}

// trim applies the column's whitespace policy to a raw field before
// conversion.
func (c *Column) trim(raw string) string {
	if c.PreserveWhitespace {
		return raw
	}
	return strings.TrimSpace(raw)
}

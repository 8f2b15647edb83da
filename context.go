package flatrecord

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatProvider carries the culture/locale hint columns consult when
// formatting Int64, Single, Double and Decimal values for write; date and
// time kinds do not consult it. Parsing never uses it: numbers are parsed
// with strconv and dates with the column's Format layout, since a
// locale-formatted number is ambiguous over an open alphabet of locales.
type FormatProvider struct {
	Tag     language.Tag
	printer *message.Printer
}

// NewFormatProvider builds a FormatProvider for the given BCP 47 tag.
func NewFormatProvider(tag language.Tag) *FormatProvider {
	return &FormatProvider{Tag: tag, printer: message.NewPrinter(tag)}
}

// DefaultFormatProvider supplies the printer for a FormatProvider that is nil
// or was not built by NewFormatProvider.
var DefaultFormatProvider = NewFormatProvider(language.AmericanEnglish)

func (p *FormatProvider) printerOrDefault() *message.Printer {
	if p == nil || p.printer == nil {
		return DefaultFormatProvider.printer
	}
	return p.printer
}

// RecordContext is the per-record state handed to codecs and error events.
type RecordContext struct {
	// Schema is the schema in effect for this record (may differ per record
	// when a SchemaSelector is in use).
	Schema *Schema

	// RawText is the unparsed record span, exactly as tokenized.
	RawText string

	// RawFields is the raw token vector produced by the tokenizer.
	RawFields []string

	// Values is the parsed value vector. Schema.ParseRecord sets it once the
	// whole record has parsed successfully.
	Values []interface{}

	// PhysicalRecordNumber counts every raw record consumed, including
	// skipped records and the header.
	PhysicalRecordNumber int64

	// LogicalRecordNumber counts only successfully parsed, non-skipped,
	// non-header records.
	LogicalRecordNumber int64
}

package flatrecord

import (
	"strings"

	"github.com/pkg/errors"
)

// Schema is an ordered, uniquely-named (case-insensitively) sequence of
// columns. It drives both the parse and format pipelines and, once a record
// has flowed through it, may no longer be extended.
type Schema struct {
	columns  []*Column
	byName   map[string]*Column
	attached bool

	physicalCount int
	logicalCount  int
	metadataCount int
}

// NewSchema returns an empty, mutable Schema.
func NewSchema() *Schema {
	return &Schema{byName: make(map[string]*Column)}
}

// AddColumn appends col to the schema and returns the schema for chaining.
// It fails if col.Name duplicates an existing column under case-insensitive
// comparison, or if the schema is already attached to a stream that has
// read or written a record.
func (s *Schema) AddColumn(col *Column) (*Schema, error) {
	if s.attached {
		return s, errors.Errorf("flatrecord: schema is attached; cannot add column %q", col.Name)
	}
	key := strings.ToLower(col.Name)
	if _, exists := s.byName[key]; exists {
		return s, errors.Errorf("flatrecord: duplicate column name %q (case-insensitive)", col.Name)
	}

	col.schema = s
	col.index = len(s.columns)
	s.columns = append(s.columns, col)
	s.byName[key] = col

	s.physicalCount++
	switch col.Kind {
	case Metadata:
		s.metadataCount++
	default:
		s.logicalCount++
	}
	return s, nil
}

// Columns returns the ordered, read-only view of the schema's columns.
func (s *Schema) Columns() []*Column {
	out := make([]*Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Column looks up a column by name, case-insensitively.
func (s *Schema) Column(name string) (*Column, bool) {
	c, ok := s.byName[strings.ToLower(name)]
	return c, ok
}

// PhysicalCount is the total number of columns in serialization order.
func (s *Schema) PhysicalCount() int { return s.physicalCount }

// LogicalCount is PhysicalCount minus the number of Metadata columns: the
// length of the value vector a caller sees.
func (s *Schema) LogicalCount() int { return s.logicalCount }

// MetadataCount is the number of Metadata columns.
func (s *Schema) MetadataCount() int { return s.metadataCount }

// attach marks the schema as no longer extendable. Called on the first
// record a reader or writer processes through it.
func (s *Schema) attach() { s.attached = true }

// ParseRecord walks rawFields against the schema's columns, producing the
// logical value vector. Metadata columns synthesize their value from ctx
// without consuming a raw field; all other columns consume one field each
// and invoke their codec. Column-level failures are routed through disp; if
// a ColumnError is not marked handled, ParseRecord returns a
// ColumnConversionError immediately (the caller is responsible for
// record-level error policy around that).
func (s *Schema) ParseRecord(ctx *RecordContext, rawFields []string, disp *ErrorDispatcher) ([]interface{}, error) {
	s.attach()

	if len(rawFields)+s.metadataCount < s.physicalCount {
		return nil, newRecordShapeError(ctx.PhysicalRecordNumber, len(rawFields), s.physicalCount-s.metadataCount)
	}

	values := make([]interface{}, 0, s.logicalCount)
	fieldIdx := 0
	for _, col := range s.columns {
		if col.Kind == Metadata {
			values = append(values, col.metadataValue(ctx))
			continue
		}

		raw := ""
		if fieldIdx < len(rawFields) {
			raw = rawFields[fieldIdx]
		}
		fieldIdx++

		if col.Kind == Ignored {
			values = append(values, nil)
			continue
		}

		value, err := col.parseField(raw, ctx)
		if err != nil {
			convErr := newColumnConversionError(ctx.PhysicalRecordNumber, col.Name, raw, err)
			handled, substitute := disp.fireColumnError(ctx, col.Name, raw, convErr)
			if !handled {
				return nil, convErr
			}
			value = substitute
		}
		values = append(values, value)
	}

	ctx.Values = values
	return values, nil
}

// parseField applies the column's null, trim, and conversion rules to one
// raw field.
func (c *Column) parseField(raw string, ctx *RecordContext) (value interface{}, err error) {
	if c.isNull(raw) {
		return nil, nil
	}
	defer recoverAsError(&err)
	return c.parseValue(c.trim(raw), ctx)
}

// metadataValue synthesizes the value for a Metadata column from ctx.
func (c *Column) metadataValue(ctx *RecordContext) interface{} {
	switch c.MetadataKind {
	case MetadataLogicalRecordNumber:
		return ctx.LogicalRecordNumber
	default:
		return ctx.PhysicalRecordNumber
	}
}

// FormatRecord emits one raw field per non-Metadata column, in schema order:
// Metadata columns are skipped (they consume nothing from values and emit no
// field), Ignored columns
// emit their fill token, and every other column consumes the next element
// of values.
func (s *Schema) FormatRecord(ctx *RecordContext, values []interface{}) ([]string, error) {
	s.attach()

	if len(values) != s.logicalCount {
		return nil, errors.Errorf("flatrecord: format record expects %d values, got %d", s.logicalCount, len(values))
	}

	fields := make([]string, 0, s.physicalCount)
	valueIdx := 0
	for _, col := range s.columns {
		if col.Kind == Metadata {
			continue
		}
		if col.Kind == Ignored {
			fields = append(fields, "")
			valueIdx++
			continue
		}

		value := values[valueIdx]
		valueIdx++

		raw, err := col.formatField(value, ctx)
		if err != nil {
			return nil, newColumnConversionError(ctx.PhysicalRecordNumber, col.Name, "", err)
		}
		fields = append(fields, raw)
	}
	return fields, nil
}

// formatField applies the column's null and conversion rules to produce one
// raw field.
func (c *Column) formatField(value interface{}, ctx *RecordContext) (raw string, err error) {
	if value == nil {
		if c.NullSentinelSet {
			return c.NullSentinel, nil
		}
		return "", nil
	}
	defer recoverAsError(&err)
	return c.formatValue(value, ctx)
}

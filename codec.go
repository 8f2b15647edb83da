package flatrecord

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/text/number"
)

// DecimalValue is a fixed-precision decimal: the exact text that was parsed
// (or will be emitted, if set directly) plus a float64 view for arithmetic.
// Keeping the text alongside the float lets Decimal columns round-trip
// exactly instead of drifting through binary-float rounding.
type DecimalValue struct {
	Text  string
	Float float64
}

func newDecimalValue(text string) (DecimalValue, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return DecimalValue{}, err
	}
	return DecimalValue{Text: text, Float: f}, nil
}

const defaultTimeLayout = "2006-01-02T15:04:05"
const defaultDateLayout = "2006-01-02"

// parseValue converts a trimmed raw field into a typed value per c.Kind. It
// never itself returns a null: callers check Column.isNull first.
func (c *Column) parseValue(raw string, ctx *RecordContext) (interface{}, error) {
	switch c.Kind {
	case Bool:
		return strconv.ParseBool(raw)
	case Byte:
		n, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			return nil, err
		}
		return byte(n), nil
	case Short:
		n, err := strconv.ParseInt(raw, 10, 16)
		if err != nil {
			return nil, err
		}
		return int16(n), nil
	case Int32:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case Int64:
		return strconv.ParseInt(raw, 10, 64)
	case Single:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case Double:
		return strconv.ParseFloat(raw, 64)
	case Decimal:
		return newDecimalValue(raw)
	case Char:
		r := []rune(raw)
		if len(r) != 1 {
			return nil, errors.Errorf("expected exactly one character, got %q", raw)
		}
		return r[0], nil
	case String:
		return raw, nil
	case Guid:
		return uuid.Parse(raw)
	case DateTime:
		return time.Parse(c.layoutOrDefault(defaultTimeLayout), raw)
	case DateTimeOffset:
		t, err := time.Parse(c.layoutOrDefault(time.RFC3339), raw)
		if err != nil {
			return nil, err
		}
		return t, nil
	case TimeSpan:
		return time.ParseDuration(raw)
	case Enum:
		if c.Enum == nil {
			return nil, errors.Errorf("column %q: enum kind without an EnumTable", c.Name)
		}
		ord, ok := c.Enum.nameToOrdinal[raw]
		if !ok {
			return nil, errors.Errorf("column %q: %q is not a member of the enum", c.Name, raw)
		}
		return ord, nil
	case ByteArray:
		return []byte(raw), nil
	case CharArray:
		return []rune(raw), nil
	case Custom:
		if c.CustomParse == nil {
			return nil, errors.Errorf("column %q: custom kind without a parse function", c.Name)
		}
		return c.CustomParse(raw, ctx)
	default:
		return nil, errors.Errorf("column %q: unsupported kind %s", c.Name, c.Kind)
	}
}

// formatValue converts a non-null typed value back into its raw field text,
// per c.Kind and c.FormatProvider.
func (c *Column) formatValue(value interface{}, ctx *RecordContext) (string, error) {
	p := c.FormatProvider.printerOrDefault()

	switch c.Kind {
	case Bool:
		return strconv.FormatBool(value.(bool)), nil
	case Byte:
		return strconv.FormatUint(uint64(value.(byte)), 10), nil
	case Short:
		return strconv.FormatInt(int64(value.(int16)), 10), nil
	case Int32:
		return strconv.FormatInt(int64(value.(int32)), 10), nil
	case Int64:
		if c.FormatProvider == nil {
			return strconv.FormatInt(value.(int64), 10), nil
		}
		return p.Sprintf("%d", number.Decimal(value.(int64))), nil
	case Single:
		f := float64(value.(float32))
		if c.FormatProvider == nil {
			return strconv.FormatFloat(f, formatVerb(c.Format), -1, 32), nil
		}
		return p.Sprintf("%v", number.Decimal(f)), nil
	case Double:
		f := value.(float64)
		if c.FormatProvider == nil {
			return strconv.FormatFloat(f, formatVerb(c.Format), -1, 64), nil
		}
		return p.Sprintf("%v", number.Decimal(f)), nil
	case Decimal:
		d := value.(DecimalValue)
		if c.FormatProvider != nil {
			return p.Sprintf("%v", number.Decimal(d.Float)), nil
		}
		if c.Format == "" {
			return d.Text, nil
		}
		return strconv.FormatFloat(d.Float, formatVerb(c.Format), -1, 64), nil
	case Char:
		return string(value.(rune)), nil
	case String:
		return value.(string), nil
	case Guid:
		return value.(uuid.UUID).String(), nil
	case DateTime:
		return value.(time.Time).Format(c.layoutOrDefault(defaultTimeLayout)), nil
	case DateTimeOffset:
		return value.(time.Time).Format(c.layoutOrDefault(time.RFC3339)), nil
	case TimeSpan:
		return value.(time.Duration).String(), nil
	case Enum:
		if c.Enum == nil {
			return "", errors.Errorf("column %q: enum kind without an EnumTable", c.Name)
		}
		name, ok := c.Enum.ordinalToName[value.(int)]
		if !ok {
			return "", errors.Errorf("column %q: ordinal %d is not a member of the enum", c.Name, value)
		}
		return name, nil
	case ByteArray:
		return string(value.([]byte)), nil
	case CharArray:
		return string(value.([]rune)), nil
	case Custom:
		if c.CustomFormat == nil {
			return "", errors.Errorf("column %q: custom kind without a format function", c.Name)
		}
		return c.CustomFormat(value, ctx)
	default:
		return "", errors.Errorf("column %q: unsupported kind %s", c.Name, c.Kind)
	}
}

func (c *Column) layoutOrDefault(def string) string {
	if c.Format == "" {
		return def
	}
	return c.Format
}

// formatVerb maps a column's Format hint to a strconv.FormatFloat verb.
// An empty or unrecognized hint defaults to "f".
func formatVerb(format string) byte {
	switch strings.ToLower(format) {
	case "e":
		return 'e'
	case "g":
		return 'g'
	default:
		return 'f'
	}
}

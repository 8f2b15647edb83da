package flatrecord

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCodecRoundTripNoFormatProvider(t *testing.T) {
	for _, tt := range []struct {
		name string
		col  *Column
		raw  string
	}{
		{"Bool", &Column{Name: "b", Kind: Bool}, "true"},
		{"Byte", &Column{Name: "b", Kind: Byte}, "200"},
		{"Short", &Column{Name: "s", Kind: Short}, "-123"},
		{"Int32", &Column{Name: "i", Kind: Int32}, "42"},
		{"Int64", &Column{Name: "i", Kind: Int64}, "9000000000"},
		{"Single", &Column{Name: "f", Kind: Single}, "1.5"},
		{"Double", &Column{Name: "f", Kind: Double}, "3.14159"},
		{"Char", &Column{Name: "c", Kind: Char}, "x"},
		{"String", &Column{Name: "s", Kind: String}, "hello"},
		{"ByteArray", &Column{Name: "b", Kind: ByteArray}, "raw bytes"},
		{"CharArray", &Column{Name: "c", Kind: CharArray}, "runes"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.col.parseValue(tt.raw, nil)
			if err != nil {
				t.Fatalf("parseValue(%q): %v", tt.raw, err)
			}
			got, err := tt.col.formatValue(v, nil)
			if err != nil {
				t.Fatalf("formatValue: %v", err)
			}
			if got != tt.raw {
				t.Errorf("round trip = %q, want %q", got, tt.raw)
			}
		})
	}
}

func TestCodecDecimalPreservesText(t *testing.T) {
	c := &Column{Name: "d", Kind: Decimal}
	v, err := c.parseValue("10.500", nil)
	if err != nil {
		t.Fatalf("parseValue: %v", err)
	}
	got, err := c.formatValue(v, nil)
	if err != nil {
		t.Fatalf("formatValue: %v", err)
	}
	if got != "10.500" {
		t.Errorf("Decimal round trip = %q, want %q (trailing zero preserved)", got, "10.500")
	}
}

func TestCodecGuid(t *testing.T) {
	id := uuid.New()
	c := &Column{Name: "g", Kind: Guid}
	v, err := c.parseValue(id.String(), nil)
	if err != nil {
		t.Fatalf("parseValue: %v", err)
	}
	got, err := c.formatValue(v, nil)
	if err != nil {
		t.Fatalf("formatValue: %v", err)
	}
	if got != id.String() {
		t.Errorf("Guid round trip = %q, want %q", got, id.String())
	}
}

func TestCodecDateTime(t *testing.T) {
	c := &Column{Name: "dt", Kind: DateTime}
	raw := "2024-03-05T13:45:00"
	v, err := c.parseValue(raw, nil)
	if err != nil {
		t.Fatalf("parseValue: %v", err)
	}
	tm, ok := v.(time.Time)
	if !ok {
		t.Fatalf("parseValue returned %T, want time.Time", v)
	}
	if tm.Year() != 2024 || tm.Month() != 3 || tm.Day() != 5 {
		t.Errorf("parsed time = %v, want 2024-03-05", tm)
	}
	got, err := c.formatValue(tm, nil)
	if err != nil {
		t.Fatalf("formatValue: %v", err)
	}
	if got != raw {
		t.Errorf("DateTime round trip = %q, want %q", got, raw)
	}
}

func TestCodecTimeSpan(t *testing.T) {
	c := &Column{Name: "ts", Kind: TimeSpan}
	v, err := c.parseValue("1h30m0s", nil)
	if err != nil {
		t.Fatalf("parseValue: %v", err)
	}
	d, ok := v.(time.Duration)
	if !ok || d != 90*time.Minute {
		t.Fatalf("parsed duration = %v, %v, want 90m, true", d, ok)
	}
}

func TestCodecEnum(t *testing.T) {
	tbl := NewEnumTable("Red", "Green", "Blue")
	c := &Column{Name: "color", Kind: Enum, Enum: tbl}
	v, err := c.parseValue("Green", nil)
	if err != nil {
		t.Fatalf("parseValue: %v", err)
	}
	if v.(int) != 1 {
		t.Fatalf("parsed ordinal = %v, want 1", v)
	}
	got, err := c.formatValue(v, nil)
	if err != nil {
		t.Fatalf("formatValue: %v", err)
	}
	if got != "Green" {
		t.Errorf("formatted enum = %q, want %q", got, "Green")
	}
}

func TestCodecEnumUnknownMember(t *testing.T) {
	tbl := NewEnumTable("Red", "Green")
	c := &Column{Name: "color", Kind: Enum, Enum: tbl}
	if _, err := c.parseValue("Purple", nil); err == nil {
		t.Fatal("expected error for unknown enum member")
	}
}

func TestCodecCustom(t *testing.T) {
	c := &Column{
		Name: "custom",
		Kind: Custom,
		CustomParse: func(raw string, ctx *RecordContext) (interface{}, error) {
			return len(raw), nil
		},
		CustomFormat: func(value interface{}, ctx *RecordContext) (string, error) {
			n := value.(int)
			out := make([]byte, n)
			for i := range out {
				out[i] = 'x'
			}
			return string(out), nil
		},
	}
	v, err := c.parseValue("hello", nil)
	if err != nil {
		t.Fatalf("parseValue: %v", err)
	}
	got, err := c.formatValue(v, nil)
	if err != nil {
		t.Fatalf("formatValue: %v", err)
	}
	if got != "xxxxx" {
		t.Errorf("custom format = %q, want %q", got, "xxxxx")
	}
}

func TestCodecLocaleFormattingIsOptIn(t *testing.T) {
	c := &Column{Name: "n", Kind: Int64}
	got, err := c.formatValue(int64(1234567), nil)
	if err != nil {
		t.Fatalf("formatValue: %v", err)
	}
	if got != "1234567" {
		t.Errorf("without FormatProvider, expected plain digits, got %q", got)
	}
	v, err := c.parseValue(got, nil)
	if err != nil {
		t.Fatalf("round trip parse of formatted value failed: %v", err)
	}
	if v.(int64) != 1234567 {
		t.Errorf("round tripped value = %v, want 1234567", v)
	}
}

func TestCodecCharRejectsMultipleRunes(t *testing.T) {
	c := &Column{Name: "c", Kind: Char}
	if _, err := c.parseValue("ab", nil); err == nil {
		t.Fatal("expected error for multi-rune Char field")
	}
}

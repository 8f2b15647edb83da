package flatrecord

import (
	"io"
	"strings"
	"testing"
)

func TestFixedWindowTokenizerBasic(t *testing.T) {
	windows := []Window{{Width: 3}, {Width: 4}, {Width: 2}}
	tok := NewFixedWindowTokenizer(NewRetryReader(strings.NewReader("1  Ian 99")), NewFixedWidthOptions(), windows)
	fields, _, err := tok.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	want := []string{"1", "Ian", "99"}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields[%d] = %q, want %q", i, fields[i], want[i])
		}
	}
}

func TestFixedWindowTokenizerRightAlignedStripsLeadingFill(t *testing.T) {
	windows := []Window{{Width: 5, Alignment: RightAligned}}
	tok := NewFixedWindowTokenizer(NewRetryReader(strings.NewReader("  123")), NewFixedWidthOptions(), windows)
	fields, _, err := tok.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if fields[0] != "123" {
		t.Errorf("fields[0] = %q, want %q", fields[0], "123")
	}
}

func TestFixedWindowTokenizerCustomFillChar(t *testing.T) {
	windows := []Window{{Width: 6, FillChar: '0', Alignment: RightAligned}}
	tok := NewFixedWindowTokenizer(NewRetryReader(strings.NewReader("000042")), NewFixedWidthOptions(), windows)
	fields, _, err := tok.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if fields[0] != "42" {
		t.Errorf("fields[0] = %q, want %q", fields[0], "42")
	}
}

func TestFixedWindowTokenizerShortRecordPadsEmpty(t *testing.T) {
	windows := []Window{{Width: 3}, {Width: 3}, {Width: 3}}
	tok := NewFixedWindowTokenizer(NewRetryReader(strings.NewReader("abc")), NewFixedWidthOptions(), windows)
	fields, _, err := tok.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	want := []string{"abc", "", ""}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields[%d] = %q, want %q", i, fields[i], want[i])
		}
	}
}

func TestFixedWindowTokenizerShortRecordIsSyntaxErrorWhenConfigured(t *testing.T) {
	windows := []Window{{Width: 3}, {Width: 3}}
	opts := NewFixedWidthOptions()
	opts.ShortRecordIsSyntaxError = true
	tok := NewFixedWindowTokenizer(NewRetryReader(strings.NewReader("abc")), opts, windows)
	_, _, err := tok.ReadRecord()
	if err == nil {
		t.Fatal("expected error for short record")
	}
}

func TestFixedWindowTokenizerMultipleRecordsWithSeparator(t *testing.T) {
	windows := []Window{{Width: 2}, {Width: 2}}
	opts := NewFixedWidthOptions()
	opts.HasRecordSeparator = true
	tok := NewFixedWindowTokenizer(NewRetryReader(strings.NewReader("ab12\ncd34\n")), opts, windows)

	var got [][]string
	for {
		fields, _, err := tok.ReadRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadRecord: %v", err)
		}
		got = append(got, fields)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0][0] != "ab" || got[0][1] != "12" {
		t.Errorf("record 0 = %v", got[0])
	}
	if got[1][0] != "cd" || got[1][1] != "34" {
		t.Errorf("record 1 = %v", got[1])
	}
}

func TestFixedWindowTokenizerMultiByteRunesCountAsOneWidth(t *testing.T) {
	windows := []Window{{Width: 3}, {Width: 2}}
	tok := NewFixedWindowTokenizer(NewRetryReader(strings.NewReader("héllo")), NewFixedWidthOptions(), windows)
	fields, _, err := tok.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if fields[0] != "hél" {
		t.Errorf("fields[0] = %q, want %q", fields[0], "hél")
	}
	if fields[1] != "lo" {
		t.Errorf("fields[1] = %q, want %q", fields[1], "lo")
	}
}

func TestPadOrTruncateToWindowPad(t *testing.T) {
	w := Window{Width: 5, Alignment: LeftAligned}
	got := padOrTruncateToWindow("ab", w)
	if got != "ab   " {
		t.Errorf("got %q, want %q", got, "ab   ")
	}
}

func TestPadOrTruncateToWindowRightAlignedPad(t *testing.T) {
	w := Window{Width: 5, Alignment: RightAligned, FillChar: '0'}
	got := padOrTruncateToWindow("42", w)
	if got != "00042" {
		t.Errorf("got %q, want %q", got, "00042")
	}
}

func TestPadOrTruncateToWindowTruncateTrailing(t *testing.T) {
	w := Window{Width: 3, TruncationPolicy: TruncateTrailing}
	got := padOrTruncateToWindow("abcdef", w)
	if got != "abc" {
		t.Errorf("got %q, want %q", got, "abc")
	}
}

func TestPadOrTruncateToWindowTruncateLeading(t *testing.T) {
	w := Window{Width: 3, TruncationPolicy: TruncateLeading}
	got := padOrTruncateToWindow("abcdef", w)
	if got != "def" {
		t.Errorf("got %q, want %q", got, "def")
	}
}

package flatrecord

import (
	"io"

	"github.com/pkg/errors"
)

var errShortRecord = errors.New("flatrecord: record shorter than the sum of window widths")

// FixedWidthOptions configures a FixedWindowTokenizer / fixed-width Reader
// or Writer.
type FixedWidthOptions struct {
	// FillChar is the default fill character for windows that do not set
	// their own. Default ' '.
	FillChar rune

	// Alignment is not applied to windows: the tokenizer and the
	// fixed-width Writer use each Window's own Alignment (zero value
	// LeftAligned) as is.
	Alignment Alignment

	// TruncationPolicy is not applied to windows: the fixed-width Writer
	// uses each Window's own TruncationPolicy (zero value
	// TruncateTrailing) as is.
	TruncationPolicy TruncationPolicy

	// HasRecordSeparator, when true, records are delimited by
	// RecordSeparator (or the auto \r\n/\r/\n forms if empty) in addition
	// to the sum of window widths. When false, a record is exactly
	// sum(window widths) runes with no terminator consumed.
	HasRecordSeparator bool

	// RecordSeparator is the record terminator used when
	// HasRecordSeparator is true. Empty means auto (any of \r\n, \r, \n).
	RecordSeparator string

	// IsFirstRecordHeader mirrors DelimitedOptions.IsFirstRecordHeader.
	IsFirstRecordHeader bool

	// ShortRecordIsSyntaxError, when true, makes a record shorter than
	// the sum of window widths a SyntaxError instead of right-padding the
	// missing columns with empty fields.
	ShortRecordIsSyntaxError bool

	FormatProvider *FormatProvider
}

// NewFixedWidthOptions returns FixedWidthOptions with the documented
// defaults: space fill, left alignment, trailing truncation.
func NewFixedWidthOptions() FixedWidthOptions {
	return FixedWidthOptions{
		FillChar:         ' ',
		Alignment:        LeftAligned,
		TruncationPolicy: TruncateTrailing,
	}
}

// FixedWindowTokenizer partitions a fixed-width record into raw field
// strings given a sequence of Windows, per SPEC_FULL.md §4.3.
type FixedWindowTokenizer struct {
	r       *RetryReader
	opts    FixedWidthOptions
	windows []Window
}

// NewFixedWindowTokenizer returns a tokenizer reading from r, partitioning
// each record by windows.
func NewFixedWindowTokenizer(r *RetryReader, opts FixedWidthOptions, windows []Window) *FixedWindowTokenizer {
	resolved := make([]Window, len(windows))
	for i, w := range windows {
		if w.FillChar == 0 {
			w.FillChar = opts.FillChar
			if w.FillChar == 0 {
				w.FillChar = ' '
			}
		}
		resolved[i] = w
	}
	return &FixedWindowTokenizer{r: r, opts: opts, windows: resolved}
}

// ReadRecord reads and partitions the next record. It returns io.EOF when
// the source is exhausted with no data left to yield.
func (t *FixedWindowTokenizer) ReadRecord() (fields []string, rawText string, err error) {
	atEOF, err := t.r.AtEOF()
	if err != nil {
		return nil, "", err
	}
	if atEOF {
		return nil, "", io.EOF
	}

	total := 0
	for _, w := range t.windows {
		total += w.Width
	}

	runes := make([]rune, 0, total)
	for len(runes) < total {
		atEOF, err := t.r.AtEOF()
		if err != nil {
			return nil, string(runes), err
		}
		if atEOF {
			break
		}
		if t.opts.HasRecordSeparator && t.peekMatchesTerminator() {
			break
		}
		ch, err := t.r.ReadRune()
		if err != nil {
			return nil, string(runes), err
		}
		runes = append(runes, ch)
	}

	if len(runes) < total && t.opts.ShortRecordIsSyntaxError {
		return nil, string(runes), errShortRecord
	}

	sepText := ""
	if t.opts.HasRecordSeparator {
		text, ok, err := t.tryConsumeTerminator()
		if err != nil {
			return nil, string(runes), err
		}
		if ok {
			sepText = text
		}
	}

	fields = make([]string, len(t.windows))
	offset := 0
	for i, w := range t.windows {
		end := offset + w.Width
		var field []rune
		switch {
		case offset >= len(runes):
			field = nil
		case end > len(runes):
			field = runes[offset:len(runes)]
		default:
			field = runes[offset:end]
		}
		fields[i] = stripFill(field, w)
		offset = end
	}
	return fields, string(runes) + sepText, nil
}

// stripFill removes leading or trailing fill runes from a window's slice
// per its alignment, so codecs receive the semantic content.
func stripFill(field []rune, w Window) string {
	start, end := 0, len(field)
	switch w.Alignment {
	case RightAligned:
		for start < end && field[start] == w.fillChar() {
			start++
		}
	default: // LeftAligned
		for end > start && field[end-1] == w.fillChar() {
			end--
		}
	}
	return string(field[start:end])
}

func (t *FixedWindowTokenizer) peekMatchesTerminator() bool {
	if t.opts.RecordSeparator != "" {
		return t.peekMatches(t.opts.RecordSeparator)
	}
	return t.peekMatches("\r\n") || t.peekMatches("\r") || t.peekMatches("\n")
}

func (t *FixedWindowTokenizer) peekMatches(s string) bool {
	want := []rune(s)
	got, err := t.r.Peek(len(want))
	if err != nil || len(got) < len(want) {
		return false
	}
	for i, ch := range want {
		if got[i] != ch {
			return false
		}
	}
	return true
}

// padOrTruncateToWindow pads raw with w's fill character (aligned per
// w.Alignment) or truncates it per w.TruncationPolicy so the result is
// exactly w.Width runes, per SPEC_FULL.md §4.4 step 3.
func padOrTruncateToWindow(raw string, w Window) string {
	r := []rune(raw)
	switch {
	case len(r) == w.Width:
		return string(r)
	case len(r) > w.Width:
		if w.TruncationPolicy == TruncateLeading {
			return string(r[len(r)-w.Width:])
		}
		return string(r[:w.Width])
	default:
		fill := make([]rune, w.Width-len(r))
		for i := range fill {
			fill[i] = w.fillChar()
		}
		if w.Alignment == RightAligned {
			return string(fill) + string(r)
		}
		return string(r) + string(fill)
	}
}

func (t *FixedWindowTokenizer) tryConsumeTerminator() (string, bool, error) {
	if t.opts.RecordSeparator != "" {
		ok, err := t.r.Consume(t.opts.RecordSeparator)
		return t.opts.RecordSeparator, ok, err
	}
	for _, candidate := range []string{"\r\n", "\r", "\n"} {
		ok, err := t.r.Consume(candidate)
		if err != nil {
			return "", false, err
		}
		if ok {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

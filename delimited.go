package flatrecord

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

var (
	errUnexpectedCharacter = errors.New("flatrecord: unexpected character between fields")
	errExpectedQuote       = errors.New("flatrecord: expected opening quote")
	errUnterminatedQuote   = errors.New("flatrecord: unterminated quoted field")
	errEmbeddedLineEnding  = errors.New("flatrecord: embedded line ending in quoted field not allowed")
)

// DelimitedOptions configures a DelimitedTokenizer / delimited Reader or
// Writer. The zero value is not usable; use NewDelimitedOptions.
type DelimitedOptions struct {
	// Separator is the non-empty field separator. Default ",".
	Separator string

	// RecordSeparator is the record terminator. An empty string means
	// "infer from first line-ending": each record may end in any of
	// "\r\n", "\r", or "\n".
	RecordSeparator string

	// Quote is the quote rune. Default '"'.
	Quote rune

	// IsFirstRecordHeader, when true, treats the first record specially
	// per the Reader state machine (see reader.go).
	IsFirstRecordHeader bool

	// PreserveWhitespace is not read by the tokenizer, the Reader or the
	// Writer; whether a field is trimmed is decided only by each column's
	// own Column.PreserveWhitespace.
	PreserveWhitespace bool

	// Partitioned selects never-quote tokenization: Quote loses its
	// special meaning and fields are split purely on Separator and
	// RecordSeparator.
	Partitioned bool

	// AllowEmbeddedLineEndings permits a line ending ('\r' or '\n') to
	// appear literally inside a quoted field without being treated as a
	// syntax error. Such embedded line endings never split the field either
	// way; this flag only controls whether their presence is rejected. A
	// custom RecordSeparator inside quotes is always accepted as data.
	AllowEmbeddedLineEndings bool

	FormatProvider *FormatProvider
}

// NewDelimitedOptions returns DelimitedOptions with the documented defaults:
// comma separator, double-quote, auto record separator.
func NewDelimitedOptions() DelimitedOptions {
	return DelimitedOptions{
		Separator: ",",
		Quote:     '"',
	}
}

// DelimitedTokenizer splits delimited records into raw field strings per the
// grammar in SPEC_FULL.md §4.2.
type DelimitedTokenizer struct {
	r    *RetryReader
	opts DelimitedOptions
}

// NewDelimitedTokenizer returns a tokenizer reading from r under opts.
func NewDelimitedTokenizer(r *RetryReader, opts DelimitedOptions) *DelimitedTokenizer {
	if opts.Separator == "" {
		opts.Separator = ","
	}
	if opts.Quote == 0 {
		opts.Quote = '"'
	}
	return &DelimitedTokenizer{r: r, opts: opts}
}

// ReadRecord reads and tokenizes the next record. It returns io.EOF when the
// source is exhausted with no data left to yield.
func (t *DelimitedTokenizer) ReadRecord() (fields []string, rawText string, err error) {
	atEOF, err := t.r.AtEOF()
	if err != nil {
		return nil, "", err
	}
	if atEOF {
		return nil, "", io.EOF
	}

	var raw strings.Builder
	for {
		field, fieldRaw, err := t.readField()
		raw.WriteString(fieldRaw)
		if err != nil {
			return nil, raw.String(), err
		}
		fields = append(fields, field)

		sepText, kind, err := t.consumeSeparatorOrTerminator()
		raw.WriteString(sepText)
		if err != nil {
			return nil, raw.String(), err
		}
		if kind == sepKindField {
			continue
		}
		// kind is sepKindTerminator or sepKindEOF: record is complete.
		return fields, raw.String(), nil
	}
}

type sepKind int

const (
	sepKindField sepKind = iota
	sepKindTerminator
	sepKindEOF
)

// consumeSeparatorOrTerminator consumes whichever of the field separator or
// the record terminator appears next, preferring the record terminator per
// the grammar's longest-match rule (a terminator is never a valid prefix of
// the field separator for any sane configuration, but checking it first
// also correctly resolves the end-of-record case at EOF).
func (t *DelimitedTokenizer) consumeSeparatorOrTerminator() (string, sepKind, error) {
	if text, ok, err := t.tryConsumeRecordSeparator(); err != nil {
		return "", sepKindEOF, err
	} else if ok {
		return text, sepKindTerminator, nil
	}

	if ok, err := t.r.Consume(t.opts.Separator); err != nil {
		return "", sepKindEOF, err
	} else if ok {
		return t.opts.Separator, sepKindField, nil
	}

	atEOF, err := t.r.AtEOF()
	if err != nil {
		return "", sepKindEOF, err
	}
	if atEOF {
		return "", sepKindEOF, nil
	}

	// Neither the separator nor a terminator matched, and we are not at
	// EOF: readField must have stopped short for some other reason (it
	// never should under correct predicates), so surface it as a syntax
	// error rather than looping forever.
	return "", sepKindEOF, errUnexpectedCharacter
}

func (t *DelimitedTokenizer) tryConsumeRecordSeparator() (string, bool, error) {
	if t.opts.RecordSeparator != "" {
		ok, err := t.r.Consume(t.opts.RecordSeparator)
		if err != nil {
			return "", false, err
		}
		return t.opts.RecordSeparator, ok, nil
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

// readField reads one field (quoted or unquoted) and returns its semantic
// value (quotes and doubled-quote escapes removed) plus the exact raw text
// consumed (quotes and escapes included, for diagnostics).
func (t *DelimitedTokenizer) readField() (value string, raw string, err error) {
	if !t.opts.Partitioned {
		next, err := t.r.Peek(1)
		if err != nil {
			return "", "", err
		}
		if len(next) > 0 && next[0] == t.opts.Quote {
			return t.readQuotedField()
		}
	}
	return t.readUnquotedField()
}

func (t *DelimitedTokenizer) readUnquotedField() (value string, raw string, err error) {
	var sb strings.Builder
	for {
		atEOF, err := t.r.AtEOF()
		if err != nil {
			return "", sb.String(), err
		}
		if atEOF {
			break
		}

		if t.peekMatches(t.opts.RecordSeparator) {
			break
		}
		if t.opts.RecordSeparator == "" && t.peekMatchesAny("\r\n", "\r", "\n") {
			break
		}
		if t.peekMatches(t.opts.Separator) {
			break
		}

		ch, err := t.r.ReadRune()
		if err != nil {
			return "", sb.String(), err
		}
		sb.WriteRune(ch)
	}
	s := sb.String()
	return s, s, nil
}

// peekMatches reports whether s (non-empty) is next in the stream, without
// consuming it.
func (t *DelimitedTokenizer) peekMatches(s string) bool {
	if s == "" {
		return false
	}
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

func (t *DelimitedTokenizer) peekMatchesAny(candidates ...string) bool {
	for _, c := range candidates {
		if t.peekMatches(c) {
			return true
		}
	}
	return false
}

func (t *DelimitedTokenizer) readQuotedField() (value string, raw string, err error) {
	var rawBuf strings.Builder
	var valueBuf strings.Builder

	ok, err := t.r.Consume(string(t.opts.Quote))
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", errExpectedQuote
	}
	rawBuf.WriteRune(t.opts.Quote)

	for {
		atEOF, err := t.r.AtEOF()
		if err != nil {
			return "", rawBuf.String(), err
		}
		if atEOF {
			return "", rawBuf.String(), errUnterminatedQuote
		}

		ch, err := t.r.ReadRune()
		if err != nil {
			return "", rawBuf.String(), err
		}

		if ch == t.opts.Quote {
			next, err := t.r.Peek(1)
			if err != nil {
				return "", rawBuf.String(), err
			}
			if len(next) > 0 && next[0] == t.opts.Quote {
				// Doubled quote: escape.
				_, _ = t.r.ReadRune()
				rawBuf.WriteRune(t.opts.Quote)
				rawBuf.WriteRune(t.opts.Quote)
				valueBuf.WriteRune(t.opts.Quote)
				continue
			}
			// Closing quote.
			rawBuf.WriteRune(t.opts.Quote)
			return valueBuf.String(), rawBuf.String(), nil
		}

		if (ch == '\r' || ch == '\n') && !t.opts.AllowEmbeddedLineEndings {
			return "", rawBuf.String(), errEmbeddedLineEnding
		}

		rawBuf.WriteRune(ch)
		valueBuf.WriteRune(ch)
	}
}

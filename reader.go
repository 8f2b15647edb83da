package flatrecord

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Tokenizer is the format-agnostic source of raw records a Reader drives.
// DelimitedTokenizer and FixedWindowTokenizer both implement it.
type Tokenizer interface {
	ReadRecord() (fields []string, rawText string, err error)
}

// readerState names the Reader's position in the state machine described in
// SPEC_FULL.md §4.7.
type readerState string

const (
	stateFresh         readerState = "fresh"
	stateHeaderHandled readerState = "header-handled"
	stateStreaming     readerState = "streaming"
	stateDrained       readerState = "drained"
	stateErrored       readerState = "errored"
)

var errHeaderMismatch = errors.New("flatrecord: header record does not match schema column names")

func namesEqualFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// RecordReadEvent is fired once a record's raw fields are available but
// before it is parsed. A handler may call Skip to discard the record
// without parsing it; skipped records do not advance the logical record
// number.
type RecordReadEvent struct {
	Context *RecordContext
	skip    bool
}

// Skip marks the current record to be discarded unparsed.
func (e *RecordReadEvent) Skip() { e.skip = true }

// RecordParsedEvent is fired after a record has been successfully parsed.
type RecordParsedEvent struct {
	Context *RecordContext
}

// Reader drives a Tokenizer against a Schema (or SchemaSelector) and an
// ErrorDispatcher to produce a sequence of typed value vectors.
type Reader struct {
	tok      Tokenizer
	Schema   *Schema
	Selector *SchemaSelector

	// IsFirstRecordHeader mirrors the header-handling rules in
	// SPEC_FULL.md §4.7.
	IsFirstRecordHeader bool

	// VerifyHeaderAgainstSchema, when true and both Schema and
	// IsFirstRecordHeader are set, checks the discarded header's field
	// names against Schema's column names and raises a RecordError on
	// mismatch rather than silently discarding it (SPEC_FULL.md §9 design
	// note).
	VerifyHeaderAgainstSchema bool

	Dispatcher *ErrorDispatcher

	state                readerState
	physicalRecordNumber int64
	logicalRecordNumber  int64
	hasReadOnce          bool
	values               []interface{}

	recordReadHandlers   []func(*RecordReadEvent)
	recordParsedHandlers []func(*RecordParsedEvent)
}

// NewReader returns a Reader in the Fresh state, driving tok.
func NewReader(tok Tokenizer) *Reader {
	return &Reader{tok: tok, state: stateFresh, Dispatcher: NewErrorDispatcher()}
}

// NewDelimitedReader is a convenience constructor wiring a DelimitedTokenizer
// over r.
func NewDelimitedReader(r io.Reader, opts DelimitedOptions, schema *Schema) *Reader {
	rr := NewReader(NewDelimitedTokenizer(NewRetryReader(r), opts))
	rr.Schema = schema
	rr.IsFirstRecordHeader = opts.IsFirstRecordHeader
	return rr
}

// NewFixedWidthReader is a convenience constructor wiring a
// FixedWindowTokenizer over r using schema's column windows.
func NewFixedWidthReader(r io.Reader, opts FixedWidthOptions, schema *Schema) *Reader {
	rr := NewReader(NewFixedWindowTokenizer(NewRetryReader(r), opts, windowsOf(schema)))
	rr.Schema = schema
	rr.IsFirstRecordHeader = opts.IsFirstRecordHeader
	return rr
}

func windowsOf(schema *Schema) []Window {
	if schema == nil {
		return nil
	}
	cols := schema.Columns()
	windows := make([]Window, 0, len(cols))
	for _, c := range cols {
		if c.Kind == Metadata {
			continue
		}
		windows = append(windows, c.Window)
	}
	return windows
}

// OnRecordRead registers h to observe every RecordReadEvent, in registration
// order.
func (r *Reader) OnRecordRead(h func(*RecordReadEvent)) {
	r.recordReadHandlers = append(r.recordReadHandlers, h)
}

// OnRecordParsed registers h to observe every RecordParsedEvent, in
// registration order.
func (r *Reader) OnRecordParsed(h func(*RecordParsedEvent)) {
	r.recordParsedHandlers = append(r.recordParsedHandlers, h)
}

// State reports the reader's current state machine position.
func (r *Reader) State() string { return string(r.state) }

// PhysicalRecordNumber counts every raw record consumed, including skipped
// records and the header.
func (r *Reader) PhysicalRecordNumber() int64 { return r.physicalRecordNumber }

// LogicalRecordNumber counts only successfully parsed, non-skipped,
// non-header records.
func (r *Reader) LogicalRecordNumber() int64 { return r.logicalRecordNumber }

// Read advances to the next logical record, returning false at EOF. ctx is
// checked for cancellation only between records, never mid-tokenization.
func (r *Reader) Read(ctx context.Context) (bool, error) {
	if r.state == stateErrored {
		return false, errReadingWithErrors
	}
	if r.state == stateFresh {
		if err := r.handleHeader(); err != nil {
			return false, r.fail(err)
		}
		r.state = stateHeaderHandled
	}
	if r.state == stateDrained {
		return false, nil
	}
	r.state = stateStreaming

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		fields, rawText, err := r.tok.ReadRecord()
		if err == io.EOF {
			r.state = stateDrained
			return false, nil
		}
		r.physicalRecordNumber++
		if err != nil {
			if _, ok := err.(*SourceIOError); ok {
				return false, r.fail(err)
			}
			syn := newSyntaxError(r.physicalRecordNumber, rawText, err)
			recCtx := &RecordContext{RawText: rawText, PhysicalRecordNumber: r.physicalRecordNumber, LogicalRecordNumber: r.logicalRecordNumber}
			if r.Dispatcher.fireRecordError(recCtx, syn) {
				continue
			}
			return false, r.fail(syn)
		}

		recCtx := &RecordContext{
			RawText:              rawText,
			RawFields:            fields,
			PhysicalRecordNumber: r.physicalRecordNumber,
			LogicalRecordNumber:  r.logicalRecordNumber,
		}

		schema, err := r.resolveSchema(fields)
		if err != nil {
			if r.Dispatcher.fireRecordError(recCtx, err) {
				continue
			}
			return false, r.fail(err)
		}
		recCtx.Schema = schema

		ev := &RecordReadEvent{Context: recCtx}
		for _, h := range r.recordReadHandlers {
			h(ev)
		}
		if ev.skip {
			continue
		}

		values, err := schema.ParseRecord(recCtx, fields, r.Dispatcher)
		if err != nil {
			if r.Dispatcher.fireRecordError(recCtx, err) {
				continue
			}
			return false, r.fail(err)
		}

		r.logicalRecordNumber++
		recCtx.LogicalRecordNumber = r.logicalRecordNumber
		r.values = values
		r.hasReadOnce = true

		for _, h := range r.recordParsedHandlers {
			h(&RecordParsedEvent{Context: recCtx})
		}
		return true, nil
	}
}

// Skip discards the next raw record without parsing it, counting toward
// the physical but not the logical record number. It runs header handling
// first, identically to Read.
func (r *Reader) Skip(ctx context.Context) (bool, error) {
	if r.state == stateErrored {
		return false, errReadingWithErrors
	}
	if r.state == stateFresh {
		if err := r.handleHeader(); err != nil {
			return false, r.fail(err)
		}
		r.state = stateHeaderHandled
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, _, err := r.tok.ReadRecord()
	if err == io.EOF {
		r.state = stateDrained
		return false, nil
	}
	if err != nil {
		return false, r.fail(err)
	}
	r.physicalRecordNumber++
	return true, nil
}

// GetValues returns a defensive copy of the most recently parsed value
// vector. It is an error to call it before the first successful Read or
// once the stream has entered Errored.
func (r *Reader) GetValues() ([]interface{}, error) {
	if r.state == stateErrored {
		return nil, errReadingWithErrors
	}
	if !r.hasReadOnce {
		return nil, newStateError("GetValues", "before first successful read")
	}
	out := make([]interface{}, len(r.values))
	copy(out, r.values)
	return out, nil
}

func (r *Reader) fail(err error) error {
	r.state = stateErrored
	return err
}

// resolveSchema picks the schema in effect for a record, consulting
// Selector if configured.
func (r *Reader) resolveSchema(fields []string) (*Schema, error) {
	if r.Selector != nil {
		return r.Selector.SelectForRead(fields, r.physicalRecordNumber)
	}
	if r.Schema == nil {
		return nil, newStateError("resolveSchema", "no schema or selector configured")
	}
	return r.Schema, nil
}

// handleHeader implements the Fresh -> HeaderHandled transition.
func (r *Reader) handleHeader() error {
	if !r.IsFirstRecordHeader {
		return nil
	}
	if r.Schema == nil && r.Selector == nil {
		fields, _, err := r.tok.ReadRecord()
		if err == io.EOF {
			r.Schema = NewSchema()
			return nil
		}
		if err != nil {
			return err
		}
		r.physicalRecordNumber++
		schema := NewSchema()
		for _, name := range fields {
			if _, err := schema.AddColumn(&Column{Name: name, Kind: String}); err != nil {
				return err
			}
		}
		r.Schema = schema
		return nil
	}

	fields, rawText, err := r.tok.ReadRecord()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	r.physicalRecordNumber++

	if r.VerifyHeaderAgainstSchema && r.Schema != nil {
		cols := r.Schema.Columns()
		nonMetadata := make([]*Column, 0, len(cols))
		for _, c := range cols {
			if c.Kind != Metadata {
				nonMetadata = append(nonMetadata, c)
			}
		}
		mismatch := len(fields) != len(nonMetadata)
		for i := 0; !mismatch && i < len(fields); i++ {
			mismatch = !namesEqualFold(fields[i], nonMetadata[i].Name)
		}
		if mismatch {
			syn := newSyntaxError(r.physicalRecordNumber, rawText, errHeaderMismatch)
			recCtx := &RecordContext{Schema: r.Schema, RawText: rawText, RawFields: fields, PhysicalRecordNumber: r.physicalRecordNumber}
			if r.Dispatcher.fireRecordError(recCtx, syn) {
				return nil
			}
			return syn
		}
	}
	return nil
}

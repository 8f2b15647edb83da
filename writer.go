package flatrecord

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// RecordSink is the format-agnostic destination a Writer drives. Delimited
// and fixed-width sinks both implement it by joining/padding fields and
// writing the result plus terminator to an io.Writer.
type RecordSink interface {
	WriteRecord(fields []string) error
}

// WriteRecordReadEvent is fired once an entity's values are known but before
// they are formatted into raw fields.
type WriteRecordReadEvent struct {
	Context *RecordContext
	Values  []interface{}
}

// WriteRecordWrittenEvent is fired after a record's raw fields have been
// written to the sink.
type WriteRecordWrittenEvent struct {
	Context *RecordContext
}

// Writer drives a RecordSink against a Schema (or SchemaSelector) and an
// ErrorDispatcher to serialize a sequence of typed value vectors.
type Writer struct {
	sink     RecordSink
	Schema   *Schema
	Selector *SchemaSelector

	Dispatcher *ErrorDispatcher

	state                readerState
	physicalRecordNumber int64
	logicalRecordNumber  int64

	recordReadHandlers    []func(*WriteRecordReadEvent)
	recordWrittenHandlers []func(*WriteRecordWrittenEvent)
}

// NewWriter returns a Writer in the Fresh state, driving sink.
func NewWriter(sink RecordSink) *Writer {
	return &Writer{sink: sink, state: stateFresh, Dispatcher: NewErrorDispatcher()}
}

// NewDelimitedWriter is a convenience constructor wiring a delimited sink
// over w.
func NewDelimitedWriter(w io.Writer, opts DelimitedOptions, schema *Schema) *Writer {
	wr := NewWriter(newDelimitedSink(w, opts))
	wr.Schema = schema
	return wr
}

// NewFixedWidthWriter is a convenience constructor wiring a fixed-width sink
// over w using schema's column windows.
func NewFixedWidthWriter(w io.Writer, opts FixedWidthOptions, schema *Schema) *Writer {
	wr := NewWriter(newFixedWidthSink(w, opts, windowsOf(schema)))
	wr.Schema = schema
	return wr
}

// OnRecordRead registers h to observe every WriteRecordReadEvent.
func (w *Writer) OnRecordRead(h func(*WriteRecordReadEvent)) {
	w.recordReadHandlers = append(w.recordReadHandlers, h)
}

// OnRecordWritten registers h to observe every WriteRecordWrittenEvent.
func (w *Writer) OnRecordWritten(h func(*WriteRecordWrittenEvent)) {
	w.recordWrittenHandlers = append(w.recordWrittenHandlers, h)
}

// State reports the writer's current state machine position.
func (w *Writer) State() string { return string(w.state) }

// PhysicalRecordNumber counts every record written, including the header.
func (w *Writer) PhysicalRecordNumber() int64 { return w.physicalRecordNumber }

// LogicalRecordNumber counts only successfully formatted data records.
func (w *Writer) LogicalRecordNumber() int64 { return w.logicalRecordNumber }

// WriteHeader writes schema's logical column names as one record. Unlike the
// Reader, header handling is never inferred: callers opt in by calling this
// explicitly before the first Write.
func (w *Writer) WriteHeader(schema *Schema) error {
	if w.state == stateErrored {
		return errReadingWithErrors
	}
	names := make([]string, 0, schema.LogicalCount())
	for _, c := range schema.Columns() {
		if c.Kind == Metadata {
			continue
		}
		names = append(names, c.Name)
	}
	if err := w.sink.WriteRecord(names); err != nil {
		return w.fail(newSourceIOError(err))
	}
	w.physicalRecordNumber++
	w.state = stateHeaderHandled
	return nil
}

// Write formats and writes one record from a value vector, honoring entity
// for schema selection when a Selector is configured.
func (w *Writer) Write(ctx context.Context, entity interface{}, values []interface{}) error {
	if w.state == stateErrored {
		return errReadingWithErrors
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.state == stateFresh {
		w.state = stateHeaderHandled
	}
	w.state = stateStreaming

	schema, err := w.resolveSchema(entity)
	if err != nil {
		if w.Dispatcher.fireRecordError(&RecordContext{PhysicalRecordNumber: w.physicalRecordNumber}, err) {
			return nil
		}
		return w.fail(err)
	}

	recCtx := &RecordContext{
		Schema:               schema,
		Values:               values,
		PhysicalRecordNumber: w.physicalRecordNumber + 1,
		LogicalRecordNumber:  w.logicalRecordNumber + 1,
	}

	for _, h := range w.recordReadHandlers {
		h(&WriteRecordReadEvent{Context: recCtx, Values: values})
	}

	fields, err := schema.FormatRecord(recCtx, values)
	if err != nil {
		if w.Dispatcher.fireRecordError(recCtx, err) {
			return nil
		}
		return w.fail(err)
	}

	if err := w.sink.WriteRecord(fields); err != nil {
		return w.fail(newSourceIOError(err))
	}

	w.physicalRecordNumber++
	w.logicalRecordNumber++

	for _, h := range w.recordWrittenHandlers {
		h(&WriteRecordWrittenEvent{Context: recCtx})
	}
	return nil
}

func (w *Writer) fail(err error) error {
	w.state = stateErrored
	return err
}

func (w *Writer) resolveSchema(entity interface{}) (*Schema, error) {
	if w.Selector != nil {
		return w.Selector.SelectForWrite(entity, w.physicalRecordNumber)
	}
	if w.Schema == nil {
		return nil, newStateError("resolveSchema", "no schema or selector configured")
	}
	return w.Schema, nil
}

// delimitedSink joins fields with Separator and appends RecordSeparator (or
// "\n" if auto), quoting fields that need it per the same grammar the
// DelimitedTokenizer parses.
type delimitedSink struct {
	w    io.Writer
	opts DelimitedOptions
}

func newDelimitedSink(w io.Writer, opts DelimitedOptions) *delimitedSink {
	if opts.Separator == "" {
		opts.Separator = ","
	}
	if opts.Quote == 0 {
		opts.Quote = '"'
	}
	return &delimitedSink{w: w, opts: opts}
}

func (s *delimitedSink) WriteRecord(fields []string) error {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteString(s.opts.Separator)
		}
		sb.WriteString(s.encodeField(f))
	}
	term := s.opts.RecordSeparator
	if term == "" {
		term = "\n"
	}
	sb.WriteString(term)
	_, err := io.WriteString(s.w, sb.String())
	return err
}

func (s *delimitedSink) encodeField(f string) string {
	if s.opts.Partitioned {
		return f
	}
	if !s.needsQuoting(f) {
		return f
	}
	var sb strings.Builder
	sb.WriteRune(s.opts.Quote)
	for _, ch := range f {
		if ch == s.opts.Quote {
			sb.WriteRune(s.opts.Quote)
		}
		sb.WriteRune(ch)
	}
	sb.WriteRune(s.opts.Quote)
	return sb.String()
}

func (s *delimitedSink) needsQuoting(f string) bool {
	if strings.ContainsRune(f, s.opts.Quote) || strings.Contains(f, s.opts.Separator) {
		return true
	}
	if strings.ContainsAny(f, "\r\n") {
		return true
	}
	if f != "" && (f[0] == ' ' || f[len(f)-1] == ' ') {
		return true
	}
	return false
}

// fixedWidthSink pads/truncates each field to its window and concatenates
// them, appending a terminator when configured.
type fixedWidthSink struct {
	w       io.Writer
	opts    FixedWidthOptions
	windows []Window
}

func newFixedWidthSink(w io.Writer, opts FixedWidthOptions, windows []Window) *fixedWidthSink {
	resolved := make([]Window, len(windows))
	for i, win := range windows {
		if win.FillChar == 0 {
			win.FillChar = opts.FillChar
			if win.FillChar == 0 {
				win.FillChar = ' '
			}
		}
		resolved[i] = win
	}
	return &fixedWidthSink{w: w, opts: opts, windows: resolved}
}

func (s *fixedWidthSink) WriteRecord(fields []string) error {
	if len(fields) != len(s.windows) {
		return errors.Errorf("flatrecord: write record expects %d fields, got %d", len(s.windows), len(fields))
	}
	var sb strings.Builder
	for i, f := range fields {
		sb.WriteString(padOrTruncateToWindow(f, s.windows[i]))
	}
	if s.opts.HasRecordSeparator {
		term := s.opts.RecordSeparator
		if term == "" {
			term = "\n"
		}
		sb.WriteString(term)
	}
	_, err := io.WriteString(s.w, sb.String())
	return err
}

package flatrecord

import (
	"fmt"

	"github.com/pkg/errors"
)

// maxRawTextLen bounds the raw text carried by an error so a single
// pathological record cannot blow up a log line.
const maxRawTextLen = 256

func boundedText(s string) string {
	if len(s) <= maxRawTextLen {
		return s
	}
	return s[:maxRawTextLen] + "...(truncated)"
}

// SourceIOError wraps a read or write failure from the underlying character
// source or sink. It is always fatal.
type SourceIOError struct {
	Cause error
}

func (e *SourceIOError) Error() string {
	return fmt.Sprintf("flatrecord: source I/O error: %v", e.Cause)
}

func (e *SourceIOError) Unwrap() error { return e.Cause }

func newSourceIOError(cause error) *SourceIOError {
	return &SourceIOError{Cause: errors.WithStack(cause)}
}

// SyntaxError describes a malformed record: an unterminated quote, a record
// that does not end where expected, or similar tokenizer-level failures. It
// is record-level; subscribers may mark it handled.
type SyntaxError struct {
	PhysicalRecordNumber int64
	RawText              string
	Cause                error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("flatrecord: syntax error at record %d: %v (text=%q)",
		e.PhysicalRecordNumber, e.Cause, boundedText(e.RawText))
}

func (e *SyntaxError) Unwrap() error { return e.Cause }

func newSyntaxError(recNum int64, rawText string, cause error) *SyntaxError {
	return &SyntaxError{
		PhysicalRecordNumber: recNum,
		RawText:              boundedText(rawText),
		Cause:                errors.WithStack(cause),
	}
}

// ColumnConversionError describes a single column's text-to-value or
// value-to-text failure. It is column-level; subscribers may substitute a
// value.
type ColumnConversionError struct {
	PhysicalRecordNumber int64
	ColumnName           string
	RawText              string
	Cause                error
}

func (e *ColumnConversionError) Error() string {
	return fmt.Sprintf("flatrecord: column %q conversion error at record %d: %v (text=%q)",
		e.ColumnName, e.PhysicalRecordNumber, e.Cause, boundedText(e.RawText))
}

func (e *ColumnConversionError) Unwrap() error { return e.Cause }

func newColumnConversionError(recNum int64, columnName, rawText string, cause error) *ColumnConversionError {
	return &ColumnConversionError{
		PhysicalRecordNumber: recNum,
		ColumnName:           columnName,
		RawText:              boundedText(rawText),
		Cause:                errors.WithStack(cause),
	}
}

// RecordShapeError is raised when a record's raw field count cannot satisfy
// the schema's physical column count.
type RecordShapeError struct {
	PhysicalRecordNumber int64
	Got, Want            int
}

func (e *RecordShapeError) Error() string {
	return fmt.Sprintf("flatrecord: record %d has %d fields, schema requires at least %d",
		e.PhysicalRecordNumber, e.Got, e.Want)
}

func newRecordShapeError(recNum int64, got, want int) *RecordShapeError {
	return &RecordShapeError{PhysicalRecordNumber: recNum, Got: got, Want: want}
}

// SchemaSelectionError is raised when a SchemaSelector has no matching
// predicate and no default schema configured.
type SchemaSelectionError struct {
	PhysicalRecordNumber int64
}

func (e *SchemaSelectionError) Error() string {
	return fmt.Sprintf("flatrecord: no schema selected for record %d", e.PhysicalRecordNumber)
}

func newSchemaSelectionError(recNum int64) *SchemaSelectionError {
	return &SchemaSelectionError{PhysicalRecordNumber: recNum}
}

// StateError describes a call made while the stream is in a state that does
// not permit it (e.g. GetValues before the first Read, or any call after the
// stream has entered the Errored state). It is always fatal and carries no
// event.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("flatrecord: %s: invalid in state %s", e.Op, e.State)
}

func newStateError(op, state string) *StateError {
	return &StateError{Op: op, State: state}
}

// errReadingWithErrors is returned by every operation on a stream that has
// already transitioned to Errored.
var errReadingWithErrors = &StateError{Op: "read", State: "errored"}

// recoverAsError turns a panic from a codec's type assertion (a caller
// handed a value of the wrong Go type for the column's kind) into a
// returned error instead of crashing the stream. Assign its result via
// defer recoverAsError(&err).
func recoverAsError(err *error) {
	if r := recover(); r != nil {
		*err = errors.Errorf("flatrecord: %v", r)
	}
}

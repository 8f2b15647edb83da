package flatrecord

// ColumnErrorEvent is fired for a single column's conversion failure. A
// handler may call Handle to supply a substitute value and mark the error
// handled; otherwise it escalates to a record-level error, which is fatal
// unless a RecordError handler marks it handled.
type ColumnErrorEvent struct {
	Context    *RecordContext
	ColumnName string
	RawText    string
	Cause      error

	handled    bool
	substitute interface{}
}

// Handle marks this column error handled, substituting value for the
// column's parsed result.
func (e *ColumnErrorEvent) Handle(value interface{}) {
	e.handled = true
	e.substitute = value
}

// ColumnErrorHandler observes a column-level conversion failure.
type ColumnErrorHandler func(*ColumnErrorEvent)

// RecordErrorEvent is fired for a record-level failure (bad shape, syntax
// error, schema selection failure, or an unhandled column error promoted to
// record level). A handler may call Handle to suppress it.
type RecordErrorEvent struct {
	Context *RecordContext
	Cause   error

	handled bool
}

// Handle marks this record error handled, suppressing the record.
func (e *RecordErrorEvent) Handle() { e.handled = true }

// RecordErrorHandler observes a record-level failure.
type RecordErrorHandler func(*RecordErrorEvent)

// ErrorDispatcher fans column- and record-level error events out to
// subscribers in registration order, stopping at the first handler that
// marks the event handled.
type ErrorDispatcher struct {
	columnHandlers []ColumnErrorHandler
	recordHandlers []RecordErrorHandler
}

// NewErrorDispatcher returns an ErrorDispatcher with no subscribers.
func NewErrorDispatcher() *ErrorDispatcher {
	return &ErrorDispatcher{}
}

// OnColumnError registers h to observe ColumnErrorEvents.
func (d *ErrorDispatcher) OnColumnError(h ColumnErrorHandler) {
	d.columnHandlers = append(d.columnHandlers, h)
}

// OnRecordError registers h to observe RecordErrorEvents.
func (d *ErrorDispatcher) OnRecordError(h RecordErrorHandler) {
	d.recordHandlers = append(d.recordHandlers, h)
}

// fireColumnError dispatches a column conversion failure. It returns
// (true, substitute) if some handler marked it handled, else (false, nil).
func (d *ErrorDispatcher) fireColumnError(ctx *RecordContext, columnName, rawText string, cause error) (bool, interface{}) {
	if len(d.columnHandlers) == 0 {
		return false, nil
	}
	ev := &ColumnErrorEvent{Context: ctx, ColumnName: columnName, RawText: rawText, Cause: cause}
	for _, h := range d.columnHandlers {
		h(ev)
		if ev.handled {
			return true, ev.substitute
		}
	}
	return false, nil
}

// fireRecordError dispatches a record-level failure. It returns true if some
// handler marked it handled (the record should be suppressed, not fatal).
func (d *ErrorDispatcher) fireRecordError(ctx *RecordContext, cause error) bool {
	if len(d.recordHandlers) == 0 {
		return false
	}
	ev := &RecordErrorEvent{Context: ctx, Cause: cause}
	for _, h := range d.recordHandlers {
		h(ev)
		if ev.handled {
			return true
		}
	}
	return false
}

package flatrecord

import (
	"io"
	"unicode/utf8"
)

// RetryReader is a character-level cursor over a text source with unbounded
// pushback. It guarantees that Peek and Consume never skip input silently:
// they are byte-for-byte equivalent to reading into a buffer and restoring
// it on mismatch.
type RetryReader struct {
	src io.Reader
	buf []rune
	pos int
	err error
}

// NewRetryReader wraps r. r is borrowed, never closed by RetryReader.
func NewRetryReader(r io.Reader) *RetryReader {
	return &RetryReader{src: r}
}

// fill ensures at least n runes are buffered starting at pos, reading more
// from the underlying source as needed. It returns the number of runes
// actually available (which may be less than n at EOF).
func (r *RetryReader) fill(n int) (int, error) {
	available := len(r.buf) - r.pos
	if available >= n || r.err != nil {
		if available < 0 {
			available = 0
		}
		if available > n {
			available = n
		}
		return available, r.err
	}

	// Decode incrementally from the underlying reader, one rune at a time,
	// so the cursor works over any io.Reader without assuming it supports
	// io.RuneReader.
	rr, ok := r.src.(io.RuneReader)
	for available < n {
		var ch rune
		var size int
		var err error
		if ok {
			ch, size, err = rr.ReadRune()
		} else {
			ch, size, err = readRuneFallback(r.src)
		}
		if err != nil {
			r.err = err
			break
		}
		if size > 0 {
			r.buf = append(r.buf, ch)
			available++
		}
	}
	if available > n {
		available = n
	}
	return available, r.err
}

// readRuneFallback reads exactly one UTF-8 rune from r using single-byte
// reads. It is only used when the source does not implement io.RuneReader.
func readRuneFallback(r io.Reader) (rune, int, error) {
	var buf [utf8.UTFMax]byte
	n := 0
	for n < len(buf) {
		if _, err := io.ReadFull(r, buf[n:n+1]); err != nil {
			if n == 0 {
				return 0, 0, err
			}
			break
		}
		n++
		if utf8.FullRune(buf[:n]) {
			break
		}
	}
	ch, size := utf8.DecodeRune(buf[:n])
	if ch == utf8.RuneError && size <= 1 {
		if n == 0 {
			return 0, 0, io.EOF
		}
		return 0, 0, &SourceIOError{Cause: io.ErrNoProgress}
	}
	return ch, size, nil
}

// Peek examines the next n characters without consuming them. It returns
// fewer than n runes only at EOF; err is non-nil only for a genuine read
// failure, never for a short read caused by EOF.
func (r *RetryReader) Peek(n int) ([]rune, error) {
	avail, err := r.fill(n)
	out := make([]rune, avail)
	copy(out, r.buf[r.pos:r.pos+avail])
	if err == io.EOF {
		err = nil
	}
	return out, err
}

// Consume advances past s if the upcoming characters equal s exactly,
// returning true. If they do not match, the cursor is left untouched and
// false is returned.
func (r *RetryReader) Consume(s string) (bool, error) {
	want := []rune(s)
	got, err := r.fill(len(want))
	if err != nil && err != io.EOF {
		return false, newSourceIOError(err)
	}
	if got < len(want) {
		return false, nil
	}
	for i, ch := range want {
		if r.buf[r.pos+i] != ch {
			return false, nil
		}
	}
	r.pos += len(want)
	r.compact()
	return true, nil
}

// ReadUntil advances while predicate holds for the upcoming character,
// returning the consumed span. It stops at the first character for which
// predicate is false, or at EOF.
func (r *RetryReader) ReadUntil(predicate func(rune) bool) ([]rune, error) {
	var span []rune
	for {
		avail, err := r.fill(1)
		if err != nil && err != io.EOF {
			return span, newSourceIOError(err)
		}
		if avail == 0 {
			return span, nil
		}
		ch := r.buf[r.pos]
		if !predicate(ch) {
			return span, nil
		}
		span = append(span, ch)
		r.pos++
		r.compact()
	}
}

// ReadRune consumes and returns exactly one character, or io.EOF if none
// remain.
func (r *RetryReader) ReadRune() (rune, error) {
	avail, err := r.fill(1)
	if avail == 0 {
		if err != nil && err != io.EOF {
			return 0, newSourceIOError(err)
		}
		return 0, io.EOF
	}
	ch := r.buf[r.pos]
	r.pos++
	r.compact()
	return ch, nil
}

// AtEOF reports whether no further characters exist. It may need to probe
// the underlying source to answer, so it can surface a read error.
func (r *RetryReader) AtEOF() (bool, error) {
	avail, err := r.fill(1)
	if avail > 0 {
		return false, nil
	}
	if err != nil && err != io.EOF {
		return false, newSourceIOError(err)
	}
	return true, nil
}

// compact drops already-consumed runes from the front of the buffer once
// the backlog grows large, keeping long-running streams from retaining
// every character ever seen.
func (r *RetryReader) compact() {
	const compactThreshold = 4096
	if r.pos < compactThreshold {
		return
	}
	r.buf = append(r.buf[:0], r.buf[r.pos:]...)
	r.pos = 0
}

package cmm

import (
	"fmt"
	"io"
	"log/slog"
)

// SkipData advances past the payload described by h without copying it.
// An Unbounded header cannot be skipped since its extent is only known by
// consuming the rest of the stream.
func (r *Reader) SkipData(h Header) error {
	start := r.s.off
	if err := h.Validate(); err != nil {
		return withOffset(err, start)
	}
	if h.Shape.Unbounded() {
		return formatErrf(start, ErrUnresolvableSize, "cannot skip unbounded %v", h)
	}
	n, err := h.Shape.Len()
	if err != nil {
		return withOffset(err, start)
	}
	if width, fixed := h.Tag.Width(); fixed {
		if int64(n) > r.s.remaining()/int64(width) {
			return formatErrf(start, ErrTruncatedStream, "%v payload needs %d elements of %d bytes, %d bytes remain", h, n, width, r.s.remaining())
		}
		if err := r.s.skip(int64(n) * int64(width)); err != nil {
			return r.failure(start, err, "skipping %v payload", h)
		}
		return nil
	}
	term := h.Tag.terminator()
	for i := 0; i < n; i++ {
		if err := r.s.skipUntil(term); err != nil {
			return r.failure(start, err, "skipping %v element %d of %d", h.Tag, i+1, n)
		}
	}
	return nil
}

// Skip advances past one complete record. It returns io.EOF when the stream
// ends at a record boundary.
func (r *Reader) Skip() error {
	h, err := r.ReadHeader()
	if err != nil {
		return err
	}
	return r.SkipData(h)
}

// SkipN skips n records. Running out of records wraps io.EOF.
func (r *Reader) SkipN(n int) error {
	for i := 0; i < n; i++ {
		if err := r.Skip(); err != nil {
			return fmt.Errorf("skip %d of %d: %w", i+1, n, err)
		}
	}
	return nil
}

// SeekLast positions the reader at the start of the final record, walking
// headers from the current position. An Unbounded record or a sequence block
// always runs to the end of the stream, so the walk stops at the first one
// it meets. The returned offset is the new position. It returns io.EOF if
// no record follows the current position.
func (r *Reader) SeekLast() (int64, error) {
	skipped := 0
	for {
		pos := r.s.off
		b, err := r.s.peekByte()
		if err == io.EOF {
			return pos, io.EOF
		} else if err != nil {
			return pos, r.failure(pos, err, "peeking record tag")
		}
		if b == SequenceStart {
			return r.stopAt(pos, skipped, "sequence")
		}

		h, err := r.ReadHeader()
		if err != nil {
			return pos, err
		}
		if h.Shape.Unbounded() {
			if err := r.s.seek(pos); err != nil {
				return pos, err
			}
			return r.stopAt(pos, skipped, "unbounded")
		}
		if err := r.SkipData(h); err != nil {
			return pos, err
		}
		skipped++
		if r.s.atEOF() {
			if err := r.s.seek(pos); err != nil {
				return pos, err
			}
			return r.stopAt(pos, skipped-1, "bounded")
		}
	}
}

func (r *Reader) stopAt(pos int64, skipped int, kind string) (int64, error) {
	r.logger.Debug("seek to last record",
		slog.Int64("offset", pos),
		slog.Int("skipped", skipped),
		slog.String("kind", kind))
	return pos, nil
}

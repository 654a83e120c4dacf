package cmm

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
)

// Cursor is the slot a sequence transfer applies to next. It moves forward
// one slot per transferred value and wraps to slot 0 after the last slot.
type Cursor struct {
	n   int
	pos int
}

// Pos returns the current slot index.
func (c Cursor) Pos() int {
	return c.pos
}

// Len returns the number of slots.
func (c Cursor) Len() int {
	return c.n
}

// AtRowStart reports whether the next transfer begins a new row.
func (c Cursor) AtRowStart() bool {
	return c.pos == 0
}

// Advance moves to the next slot and reports whether it wrapped.
func (c *Cursor) Advance() bool {
	c.pos++
	if c.pos >= c.n {
		c.pos = 0
		return true
	}
	return false
}

func (c *Cursor) Reset() {
	c.pos = 0
}

type seqState int

const (
	seqIdle seqState = iota
	seqCollecting
	seqReplaying
)

func (s seqState) String() string {
	switch s {
	case seqIdle:
		return "idle"
	case seqCollecting:
		return "collecting headers"
	case seqReplaying:
		return "replaying"
	default:
		return fmt.Sprintf("seqState(%d)", int(s))
	}
}

// SequenceWriter is an open sequence session on a Writer. Declare the slots,
// call EndHeaders, then write rows until Close.
type SequenceWriter struct {
	w     *Writer
	slots []Header
	cur   Cursor
	state seqState
	rows  int64
}

// Declare adds a slot. shape may start with Unbounded, in which case every
// row carries its own size for that slot.
func (s *SequenceWriter) Declare(tag Tag, shape Shape) error {
	return s.DeclareHeader(Header{Tag: tag, Shape: shape})
}

func (s *SequenceWriter) DeclareHeader(h Header) error {
	if err := s.expect(seqCollecting); err != nil {
		return err
	}
	if err := h.Validate(); err != nil {
		return err
	}
	h.Shape = h.Shape.Clone()
	s.w.buf = AppendHeader(s.w.buf[:0], h)
	if err := s.w.flush(); err != nil {
		return err
	}
	s.slots = append(s.slots, h)
	return nil
}

// EndHeaders writes the end marker and moves the session to row writing.
func (s *SequenceWriter) EndHeaders() error {
	if err := s.expect(seqCollecting); err != nil {
		return err
	}
	if len(s.slots) == 0 {
		return valueErrf(ErrShapeMismatch, "sequence declares no slots")
	}
	s.w.buf = append(s.w.buf[:0], SequenceEnd)
	if err := s.w.flush(); err != nil {
		return err
	}
	s.cur = Cursor{n: len(s.slots)}
	s.state = seqReplaying
	s.w.logger.Debug("sequence headers written", slog.Int("slots", len(s.slots)))
	return nil
}

// Slots returns the declared slot headers.
func (s *SequenceWriter) Slots() []Header {
	return append([]Header(nil), s.slots...)
}

func (s *SequenceWriter) Cursor() Cursor {
	return s.cur
}

// RowCount returns the number of complete rows written.
func (s *SequenceWriter) RowCount() int64 {
	return s.rows
}

// WriteSlot writes one value into the slot under the cursor.
func (s *SequenceWriter) WriteSlot(v Value) error {
	if err := s.expect(seqReplaying); err != nil {
		return err
	}
	slot := s.cur.Pos()
	if err := checkSlot(slot, s.slots[slot], v); err != nil {
		return err
	}
	s.w.buf = appendSlot(s.w.buf[:0], s.slots[slot], v)
	if err := s.w.flush(); err != nil {
		return err
	}
	if s.cur.Advance() {
		s.rows++
	}
	return nil
}

// WriteRow writes one value per slot. Values may be Value or any Go type
// accepted by ValueOf. The whole row is validated before any byte is written.
func (s *SequenceWriter) WriteRow(values ...any) error {
	if err := s.expect(seqReplaying); err != nil {
		return err
	}
	if !s.cur.AtRowStart() {
		return fmt.Errorf("%w: row started at slot %d", ErrSequenceState, s.cur.Pos())
	}
	if len(values) != len(s.slots) {
		return valueErrf(ErrShapeMismatch, "row has %d values, sequence has %d slots", len(values), len(s.slots))
	}
	buf := s.w.buf[:0]
	for i, x := range values {
		v, err := ValueOf(x)
		if err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
		if err := checkSlot(i, s.slots[i], v); err != nil {
			return err
		}
		buf = appendSlot(buf, s.slots[i], v)
	}
	s.w.buf = buf
	if err := s.w.flush(); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Close ends the session and returns the Writer to standalone records. A
// partially written row or an unterminated header block is reported as
// ErrSequenceState; the session is closed either way.
func (s *SequenceWriter) Close() error {
	if s.state == seqIdle {
		return nil
	}
	state, pos := s.state, s.cur.Pos()
	s.state = seqIdle
	if s.w.seq == s {
		s.w.seq = nil
	}
	s.w.logger.Debug("sequence closed", slog.Int64("rows", s.rows))
	switch {
	case state == seqCollecting:
		return fmt.Errorf("%w: closed before EndHeaders", ErrSequenceState)
	case pos != 0:
		return fmt.Errorf("%w: closed at slot %d of %d", ErrSequenceState, pos, len(s.slots))
	}
	return nil
}

func (s *SequenceWriter) expect(state seqState) error {
	if s.state != state {
		return fmt.Errorf("%w: sequence is %v, wanted %v", ErrSequenceState, s.state, state)
	}
	return nil
}

// checkSlot validates v against a slot declaration. An Unbounded first
// dimension accepts any size.
func checkSlot(i int, h Header, v Value) error {
	if v.Tag != h.Tag {
		return valueErrf(ErrTypeMismatch, "slot %d is %v, value is %v", i, h.Tag, v.Tag)
	}
	if v.Shape.Rank() != h.Shape.Rank() {
		return valueErrf(ErrShapeMismatch, "slot %d has rank %d, value has %d", i, h.Shape.Rank(), v.Shape.Rank())
	}
	for d, size := range h.Shape {
		if d == 0 && size == Unbounded {
			continue
		}
		if v.Shape[d] != size {
			return valueErrf(ErrShapeMismatch, "slot %d is %v, value is %v", i, h.Shape, v.Shape)
		}
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("slot %d: %w", i, err)
	}
	return nil
}

func appendSlot(buf []byte, h Header, v Value) []byte {
	if h.Shape.Unbounded() {
		buf = appendInt32(buf, int32(v.Shape[0]))
	}
	return append(buf, v.Data...)
}

// SequenceReader replays the rows of a sequence. Rows run to the end of the
// stream. The first error ends the session; later calls return it again.
type SequenceReader struct {
	r     *Reader
	slots []Header
	cur   Cursor
	rows  int64
	err   error
}

// ReadSequenceHeaders reads a sequence header block. The next byte must be
// the sequence start marker; it is left unconsumed otherwise. io.EOF is
// returned if the stream is already exhausted.
func (r *Reader) ReadSequenceHeaders() (*SequenceReader, error) {
	start := r.s.off
	b, err := r.s.peekByte()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, r.failure(start, err, "reading sequence marker")
	}
	if b != SequenceStart {
		return nil, formatErrf(start, ErrTypeMismatch, "found %v where a sequence start was expected", Tag(b))
	}
	if _, err := r.s.readByte(); err != nil {
		return nil, r.failure(start, err, "reading sequence marker")
	}

	var slots []Header
	for {
		b, err := r.s.peekByte()
		if err != nil {
			return nil, r.failure(r.s.off, err, "sequence header block ends after %d slots without an end marker", len(slots))
		}
		if b == SequenceEnd {
			if _, err := r.s.readByte(); err != nil {
				return nil, r.failure(r.s.off, err, "reading sequence end marker")
			}
			break
		}
		h, err := r.ReadHeader()
		if err != nil {
			return nil, err
		}
		slots = append(slots, h)
	}
	if len(slots) == 0 {
		return nil, formatErrf(start, ErrShapeMismatch, "sequence declares no slots")
	}
	r.logger.Debug("sequence headers read",
		slog.Int64("offset", start),
		slog.Int("slots", len(slots)))
	return &SequenceReader{r: r, slots: slots, cur: Cursor{n: len(slots)}}, nil
}

// Slots returns the declared slot headers.
func (s *SequenceReader) Slots() []Header {
	return append([]Header(nil), s.slots...)
}

func (s *SequenceReader) Cursor() Cursor {
	return s.cur
}

// RowCount returns the number of complete rows read.
func (s *SequenceReader) RowCount() int64 {
	return s.rows
}

// ReadSlot reads the value of the slot under the cursor. It returns io.EOF
// when the stream ends before the first slot of a row and
// ErrTruncatedStream when it ends inside a row.
func (s *SequenceReader) ReadSlot() (Value, error) {
	if s.err != nil {
		return Value{}, s.err
	}
	v, err := s.readSlot()
	if err != nil {
		s.err = err
		return Value{}, err
	}
	if s.cur.Advance() {
		s.rows++
	}
	return v, nil
}

func (s *SequenceReader) readSlot() (Value, error) {
	r := s.r
	pos := s.cur.Pos()
	if pos == 0 && r.s.atEOF() {
		return Value{}, io.EOF
	}
	start := r.s.off
	h := Header{Tag: s.slots[pos].Tag, Shape: s.slots[pos].Shape.Clone()}
	if h.Shape.Unbounded() {
		raw, err := r.s.readFull(dimWidth)
		if err != nil {
			return Value{}, r.failure(start, err, "row %d slot %d: reading inline size", s.rows, pos)
		}
		size := int32(byteOrder.Uint32(raw))
		if size < 0 {
			return Value{}, formatErrf(start, ErrShapeMismatch, "row %d slot %d: negative inline size %d", s.rows, pos, size)
		}
		h.Shape[0] = int(size)
	}
	v, err := r.ReadData(h)
	if err != nil {
		return Value{}, fmt.Errorf("row %d slot %d: %w", s.rows, pos, err)
	}
	return v, nil
}

// ReadRow reads one value per slot. It must be called at a row boundary.
func (s *SequenceReader) ReadRow() ([]Value, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.cur.AtRowStart() {
		return nil, fmt.Errorf("%w: row read started at slot %d", ErrSequenceState, s.cur.Pos())
	}
	start := s.r.s.off
	row := make([]Value, len(s.slots))
	for i := range row {
		v, err := s.ReadSlot()
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	// Rows of zero-sized slots consume nothing, so trailing bytes would
	// otherwise repeat the same empty row forever.
	if s.r.s.off == start && !s.r.s.atEOF() {
		s.err = formatErrf(start, ErrUnresolvableSize, "row %d is empty but %d bytes follow the sequence", s.rows-1, s.r.s.remaining())
		return nil, s.err
	}
	return row, nil
}

// Rows iterates rows until the end of the stream. A failure is yielded once
// with a nil row and ends the iteration.
func (s *SequenceReader) Rows() iter.Seq2[[]Value, error] {
	return func(yield func([]Value, error) bool) {
		for {
			row, err := s.ReadRow()
			if err == io.EOF {
				return
			}
			if !yield(row, err) || err != nil {
				return
			}
		}
	}
}

// Err returns the error that ended the session, if any. io.EOF is not an
// error.
func (s *SequenceReader) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

package cmm

import (
	"errors"
	"io"
	"log/slog"
)

// Options configure readers and writers.
type Options struct {
	// Logger receives debug events about sequence sessions, size resolution
	// and seeking. Defaults to discarding everything.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Reader decodes records from a seekable stream. The stream size is taken
// when the Reader is created; the stream must not grow while it is read.
type Reader struct {
	s      *stream
	closer io.Closer
	logger *slog.Logger
}

// NewReader starts reading at the current position of rs.
func NewReader(rs io.ReadSeeker, o Options) (*Reader, error) {
	s, err := newStream(rs)
	if err != nil {
		return nil, err
	}
	return &Reader{s: s, logger: o.logger()}, nil
}

// Close releases the underlying file or mapping, if the Reader owns one.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// Offset returns the current byte position.
func (r *Reader) Offset() int64 {
	return r.s.off
}

// Size returns the total stream size in bytes.
func (r *Reader) Size() int64 {
	return r.s.size
}

// Remaining returns the number of bytes between the current position and
// the end of the stream.
func (r *Reader) Remaining() int64 {
	return r.s.remaining()
}

func (r *Reader) AtEOF() bool {
	return r.s.atEOF()
}

// Seek moves to an absolute offset, typically one returned by Offset or
// SeekLast.
func (r *Reader) Seek(off int64) error {
	return r.s.seek(off)
}

// PeekTag returns the next byte without consuming it. It is a value Tag or
// one of the sequence markers. At end of stream it returns io.EOF.
func (r *Reader) PeekTag() (byte, error) {
	return r.s.peekByte()
}

// ReadHeader decodes the next header. It returns io.EOF when the stream ends
// exactly at a record boundary.
func (r *Reader) ReadHeader() (Header, error) {
	start := r.s.off
	b, err := r.s.readByte()
	if err == io.EOF {
		return Header{}, io.EOF
	} else if err != nil {
		return Header{}, r.failure(start, err, "reading tag")
	}
	tag := Tag(b)
	if !tag.Valid() {
		if b == SequenceStart || b == SequenceEnd {
			return Header{}, formatErrf(start, ErrUnknownTag, "sequence marker %q where a record header was expected", b)
		}
		return Header{}, formatErrf(start, ErrUnknownTag, "%v", tag)
	}

	raw, err := r.s.readFull(dimWidth)
	if err != nil {
		return Header{}, r.failure(start, err, "reading dimension count")
	}
	rank := int32(byteOrder.Uint32(raw))
	if rank < 0 || rank > MaxRank {
		return Header{}, formatErrf(start, ErrShapeMismatch, "invalid dimension count %d", rank)
	}

	h := Header{Tag: tag}
	if rank > 0 {
		raw, err = r.s.readFull(dimWidth * int(rank))
		if err != nil {
			return Header{}, r.failure(start, err, "reading %d dimension sizes", rank)
		}
		h.Shape = make(Shape, rank)
		for i := range h.Shape {
			h.Shape[i] = int(int32(byteOrder.Uint32(raw[i*dimWidth:])))
		}
		if err := h.Shape.Validate(); err != nil {
			return Header{}, withOffset(err, start)
		}
	}
	return h, nil
}

// ExpectHeader decodes a header and checks its tag and rank. A negative rank
// accepts any rank.
func (r *Reader) ExpectHeader(tag Tag, rank int) (Header, error) {
	start := r.s.off
	h, err := r.ReadHeader()
	if err != nil {
		return h, err
	}
	if h.Tag != tag {
		return h, formatErrf(start, ErrTypeMismatch, "record is %v, wanted %v", h.Tag, tag)
	}
	if rank >= 0 && h.Shape.Rank() != rank {
		return h, formatErrf(start, ErrShapeMismatch, "record has %d dimensions, wanted %d", h.Shape.Rank(), rank)
	}
	return h, nil
}

func (r *Reader) ReadScalarHeader(tag Tag) error {
	_, err := r.ExpectHeader(tag, 0)
	return err
}

// ReadVectorHeader returns the declared size, which may be Unbounded.
func (r *Reader) ReadVectorHeader(tag Tag) (int, error) {
	h, err := r.ExpectHeader(tag, 1)
	if err != nil {
		return 0, err
	}
	return h.Shape[0], nil
}

func (r *Reader) ReadMatrixHeader(tag Tag) (rows, cols int, err error) {
	h, err := r.ExpectHeader(tag, 2)
	if err != nil {
		return 0, 0, err
	}
	return h.Shape[0], h.Shape[1], nil
}

// ReadData reads the payload described by h. An Unbounded first dimension
// is resolved against the rest of the stream first.
func (r *Reader) ReadData(h Header) (Value, error) {
	start := r.s.off
	if err := h.Validate(); err != nil {
		return Value{}, withOffset(err, start)
	}
	shape := h.Shape.Clone()
	if shape.Unbounded() {
		var err error
		shape, err = r.resolve(h)
		if err != nil {
			return Value{}, err
		}
	}
	n, err := shape.Len()
	if err != nil {
		return Value{}, withOffset(err, start)
	}

	var data []byte
	if width, fixed := h.Tag.Width(); fixed {
		if int64(n) > r.s.remaining()/int64(width) {
			return Value{}, formatErrf(start, ErrTruncatedStream, "%v payload needs %d elements of %d bytes, %d bytes remain", Header{Tag: h.Tag, Shape: shape}, n, width, r.s.remaining())
		}
		data, err = r.s.readFull(n * width)
		if err != nil {
			return Value{}, r.failure(start, err, "reading %v payload", h.Tag)
		}
	} else {
		term := h.Tag.terminator()
		for i := 0; i < n; i++ {
			data, err = r.s.appendUntil(data, term)
			if err != nil {
				return Value{}, r.failure(start, err, "reading %v element %d of %d", h.Tag, i+1, n)
			}
		}
	}
	return Value{Tag: h.Tag, Shape: shape, Data: data}, nil
}

// Read decodes one complete record.
func (r *Reader) Read() (Value, error) {
	h, err := r.ReadHeader()
	if err != nil {
		return Value{}, err
	}
	return r.ReadData(h)
}

func ReadScalar[E Element](r *Reader) (E, error) {
	var zero E
	v, err := readExpect(r, TagOf[E](), 0)
	if err != nil {
		return zero, err
	}
	return ScalarOf[E](v)
}

func ReadVector[E Element](r *Reader) ([]E, error) {
	v, err := readExpect(r, TagOf[E](), 1)
	if err != nil {
		return nil, err
	}
	return VectorOf[E](v)
}

func ReadMatrix[E Element](r *Reader) ([][]E, error) {
	v, err := readExpect(r, TagOf[E](), 2)
	if err != nil {
		return nil, err
	}
	return MatrixOf[E](v)
}

func readExpect(r *Reader, tag Tag, rank int) (Value, error) {
	h, err := r.ExpectHeader(tag, rank)
	if err != nil {
		return Value{}, err
	}
	return r.ReadData(h)
}

// failure converts a stream error into a FormatError. Running out of bytes
// is reported as ErrTruncatedStream.
func (r *Reader) failure(off int64, err error, format string, args ...any) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		err = ErrTruncatedStream
	}
	return formatErrf(off, err, format, args...)
}

func withOffset(err error, off int64) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Off < 0 {
		c := *fe
		c.Off = off
		return &c
	}
	return err
}

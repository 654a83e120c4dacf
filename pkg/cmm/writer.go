package cmm

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Writer encodes records onto a byte stream.
//
// Every record (or sequence row) is assembled in memory and handed to the
// underlying writer in one Write call, so a value rejected by validation
// never leaves partial bytes behind.
type Writer struct {
	w      io.Writer
	closer io.Closer
	syncer interface{ Sync() error }

	buf []byte
	n   int64
	seq *SequenceWriter

	logger *slog.Logger
}

// NewWriter starts writing at the current position of w.
func NewWriter(w io.Writer, o Options) *Writer {
	return &Writer{w: w, logger: o.logger()}
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 {
	return w.n
}

// WriteHeader writes a header on its own. The payload must follow through
// WriteData; an Unbounded header is followed by as many rows as the payload
// holds and must be the last record of the stream.
func (w *Writer) WriteHeader(h Header) error {
	if err := w.idle(); err != nil {
		return err
	}
	if err := h.Validate(); err != nil {
		return err
	}
	w.buf = AppendHeader(w.buf[:0], h)
	return w.flush()
}

// WriteData writes the payload of v without a header.
func (w *Writer) WriteData(v Value) error {
	if err := w.idle(); err != nil {
		return err
	}
	if err := v.Validate(); err != nil {
		return err
	}
	w.buf = append(w.buf[:0], v.Data...)
	return w.flush()
}

// Write writes one complete record.
func (w *Writer) Write(v Value) error {
	if err := w.idle(); err != nil {
		return err
	}
	if err := v.Validate(); err != nil {
		return err
	}
	w.buf = AppendHeader(w.buf[:0], v.Header())
	w.buf = append(w.buf, v.Data...)
	return w.flush()
}

func WriteScalar[E Element](w *Writer, v E) error {
	return w.Write(Scalar(v))
}

func WriteVector[E Element](w *Writer, vals []E) error {
	return w.Write(Vector(vals))
}

// WriteMatrix rejects ragged rows before writing anything.
func WriteMatrix[E Element](w *Writer, rows [][]E) error {
	v, err := Matrix(rows)
	if err != nil {
		return err
	}
	return w.Write(v)
}

// BeginSequence writes the sequence start marker and returns the session
// used to declare slots and write rows. Standalone records are refused until
// the session is closed.
func (w *Writer) BeginSequence() (*SequenceWriter, error) {
	if err := w.idle(); err != nil {
		return nil, err
	}
	w.buf = append(w.buf[:0], SequenceStart)
	if err := w.flush(); err != nil {
		return nil, err
	}
	w.seq = &SequenceWriter{w: w, state: seqCollecting}
	w.logger.Debug("sequence started", slog.Int64("offset", w.n-1))
	return w.seq, nil
}

// Sync commits written data to stable storage when the underlying writer is
// a file.
func (w *Writer) Sync() error {
	if w.syncer == nil {
		return nil
	}
	return w.syncer.Sync()
}

// Close closes the underlying file, if the Writer owns one. An open sequence
// session is closed first; an unterminated header block or a partial row is
// reported as ErrSequenceState.
func (w *Writer) Close() error {
	var errs []error
	if w.seq != nil {
		errs = append(errs, w.seq.Close())
		w.seq = nil
	}
	if w.closer != nil {
		errs = append(errs, w.closer.Close())
		w.closer = nil
	}
	return errors.Join(errs...)
}

func (w *Writer) idle() error {
	if w.seq != nil {
		return fmt.Errorf("%w: sequence session is %v", ErrSequenceState, w.seq.state)
	}
	return nil
}

func (w *Writer) flush() error {
	p := w.buf
	for len(p) > 0 {
		n, err := w.w.Write(p)
		w.n += int64(n)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

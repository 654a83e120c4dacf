package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/samcharles93/cmm/internal/export"
	"github.com/samcharles93/cmm/internal/logger"
	"github.com/samcharles93/cmm/pkg/cmm"
)

func openReader(ctx context.Context, path string) (*cmm.Reader, error) {
	o := cmm.Options{Logger: logger.FromContext(ctx)}
	if useMmap {
		return cmm.OpenMapped(path, o)
	}
	return cmm.Open(path, o)
}

// walker emits every record from the reader's position to the end of the
// stream. Sequence blocks emit their header and then either their rows or,
// when payloads are not decoded, a row count.
type walker struct {
	r      *cmm.Reader
	enc    export.Encoder
	log    *slog.Logger
	decode bool
	limit  int

	emitted int
}

var errLimit = errors.New("limit reached")

func (w *walker) run() error {
	err := w.walk()
	if errors.Is(err, errLimit) {
		w.log.Debug("output limit reached", slog.Int("limit", w.limit))
		err = nil
	}
	if ferr := w.enc.Flush(); err == nil {
		err = ferr
	}
	return err
}

func (w *walker) walk() error {
	for {
		b, err := w.r.PeekTag()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if b == cmm.SequenceStart {
			return w.sequence()
		}
		if err := w.record(); err != nil {
			return err
		}
	}
}

func (w *walker) record() error {
	off := w.r.Offset()
	h, err := w.r.ReadHeader()
	if err != nil {
		return err
	}
	if w.decode || h.Shape.Unbounded() {
		v, err := w.r.ReadData(h)
		if err != nil {
			return err
		}
		if !w.decode {
			return w.emit(export.FromHeader(off, v.Header(), int64(len(v.Data))))
		}
		rec, err := export.FromValue(off, v)
		if err != nil {
			return err
		}
		return w.emit(rec)
	}
	start := w.r.Offset()
	if err := w.r.SkipData(h); err != nil {
		return err
	}
	return w.emit(export.FromHeader(off, h, w.r.Offset()-start))
}

func (w *walker) sequence() error {
	off := w.r.Offset()
	seq, err := w.r.ReadSequenceHeaders()
	if err != nil {
		return err
	}
	rec := export.FromSequence(off, seq.Slots())
	if w.decode {
		if err := w.emit(rec); err != nil {
			return err
		}
	}

	rowOff := w.r.Offset()
	for row, err := range seq.Rows() {
		if err != nil {
			return err
		}
		if w.decode {
			r, err := export.FromRow(rowOff, seq.RowCount()-1, row)
			if err != nil {
				return err
			}
			if err := w.emit(r); err != nil {
				return err
			}
		}
		rowOff = w.r.Offset()
	}
	if !w.decode {
		rec.Rows = seq.RowCount()
		rec.Bytes = w.r.Offset() - off
		return w.emit(rec)
	}
	return nil
}

func (w *walker) emit(r export.Record) error {
	if w.limit > 0 && w.emitted >= w.limit {
		return errLimit
	}
	w.emitted++
	return w.enc.Encode(r)
}

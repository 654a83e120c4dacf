package cmm

import (
	"errors"
	"fmt"
	"log/slog"
)

// resolve replaces an Unbounded first dimension with the number of rows left
// in the stream. The read position is unchanged. The record must be the last
// thing in the stream: leftover bytes that do not form a whole row are
// reported as ErrUnresolvableSize.
func (r *Reader) resolve(h Header) (Shape, error) {
	start := r.s.off
	rowLen, err := h.Shape.rowLen()
	if err != nil {
		return nil, withOffset(err, start)
	}

	var rows int64
	if width, fixed := h.Tag.Width(); fixed {
		rows, err = fixedRows(r.s.remaining(), int64(rowLen)*int64(width))
	} else {
		rows, err = r.textRows(h.Tag, int64(rowLen))
	}
	if err != nil {
		return nil, formatErrf(start, ErrUnresolvableSize, "%v: %v", h, err)
	}

	shape := h.Shape.Clone()
	shape[0] = int(rows)
	if err := shape.Validate(); err != nil {
		return nil, withOffset(err, start)
	}
	r.logger.Debug("resolved unbounded dimension",
		slog.Int64("offset", start),
		slog.String("header", h.String()),
		slog.String("shape", shape.String()))
	return shape, nil
}

func fixedRows(remaining, rowBytes int64) (int64, error) {
	if rowBytes == 0 {
		if remaining != 0 {
			return 0, errors.New("zero-sized rows cannot cover the remaining bytes")
		}
		return 0, nil
	}
	if remaining%rowBytes != 0 {
		return 0, fmt.Errorf("%d remaining bytes are not a whole number of %d-byte rows", remaining, rowBytes)
	}
	return remaining / rowBytes, nil
}

func (r *Reader) textRows(tag Tag, rowLen int64) (int64, error) {
	count, trailing, err := r.s.countTerminators(tag.terminator())
	if err != nil {
		return 0, err
	}
	if trailing != 0 {
		return 0, fmt.Errorf("%d bytes follow the last terminator", trailing)
	}
	total := int64(count)
	if rowLen == 0 {
		if total != 0 {
			return 0, errors.New("zero-sized rows cannot cover the remaining elements")
		}
		return 0, nil
	}
	if total%rowLen != 0 {
		return 0, fmt.Errorf("%d remaining elements are not a whole number of %d-element rows", total, rowLen)
	}
	return total / rowLen, nil
}

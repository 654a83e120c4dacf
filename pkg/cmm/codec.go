package cmm

import (
	"bytes"
	"math"
)

// appendElems encodes vals back to back with no separators. Text elements
// carry their own terminator.
func appendElems[E Element](buf []byte, vals []E) []byte {
	switch vs := any(vals).(type) {
	case []float64:
		for _, v := range vs {
			buf = byteOrder.AppendUint64(buf, math.Float64bits(v))
		}
	case []int32:
		for _, v := range vs {
			buf = byteOrder.AppendUint32(buf, uint32(v))
		}
	case []int64:
		for _, v := range vs {
			buf = byteOrder.AppendUint64(buf, uint64(v))
		}
	case []uint64:
		for _, v := range vs {
			buf = byteOrder.AppendUint64(buf, v)
		}
	case []string:
		term := Text.terminator()
		for _, v := range vs {
			buf = append(buf, v...)
			buf = append(buf, term)
		}
	case []bool:
		for _, v := range vs {
			if v {
				buf = append(buf, TrueByte)
			} else {
				buf = append(buf, FalseByte)
			}
		}
	}
	return buf
}

// decodeElems decodes n elements of type E from a payload produced by
// appendElems (or read off the stream).
func decodeElems[E Element](data []byte, n int) ([]E, error) {
	tag := TagOf[E]()
	if width, fixed := tag.Width(); fixed && len(data) != n*width {
		return nil, valueErrf(ErrShapeMismatch, "%v payload has %d bytes, %d elements need %d", tag, len(data), n, n*width)
	}

	out := make([]E, n)
	switch o := any(out).(type) {
	case []float64:
		for i := range o {
			o[i] = math.Float64frombits(byteOrder.Uint64(data[i*8:]))
		}
	case []int32:
		for i := range o {
			o[i] = int32(byteOrder.Uint32(data[i*4:]))
		}
	case []int64:
		for i := range o {
			o[i] = int64(byteOrder.Uint64(data[i*8:]))
		}
	case []uint64:
		for i := range o {
			o[i] = byteOrder.Uint64(data[i*8:])
		}
	case []string:
		term := Text.terminator()
		for i := range o {
			end := bytes.IndexByte(data, term)
			if end < 0 {
				return nil, valueErrf(ErrShapeMismatch, "text payload holds %d of %d elements", i, n)
			}
			o[i] = string(data[:end])
			data = data[end+1:]
		}
	case []bool:
		for i := range o {
			o[i] = data[i] == TrueByte
		}
	}
	return out, nil
}

// checkPayload verifies that data holds exactly n elements of tag.
func checkPayload(tag Tag, data []byte, n int) error {
	width, fixed := tag.Width()
	if fixed {
		if len(data) != n*width {
			return valueErrf(ErrShapeMismatch, "%v payload has %d bytes, %d elements need %d", tag, len(data), n, n*width)
		}
		if tag == Boolean {
			for i, b := range data {
				if b != TrueByte && b != FalseByte {
					return valueErrf(ErrShapeMismatch, "bool element %d is 0x%02x, not 't' or 'f'", i, b)
				}
			}
		}
		return nil
	}
	term := tag.terminator()
	if got := bytes.Count(data, []byte{term}); got != n {
		return valueErrf(ErrShapeMismatch, "%v payload has %d terminators, want %d", tag, got, n)
	}
	if n > 0 && data[len(data)-1] != term {
		return valueErrf(ErrShapeMismatch, "%v payload does not end with a terminator", tag)
	}
	if n == 0 && len(data) != 0 {
		return valueErrf(ErrShapeMismatch, "empty %v payload has %d bytes", tag, len(data))
	}
	return nil
}

package cmm

import (
	"errors"
	"fmt"
)

// Sentinel errors. Failures wrap one of these; test with errors.Is.
var (
	// ErrTypeMismatch means a tag differs from the one expected.
	ErrTypeMismatch = errors.New("cmm: type mismatch")
	// ErrShapeMismatch means a rank, dimension or element count is wrong.
	ErrShapeMismatch = errors.New("cmm: shape mismatch")
	// ErrUnresolvableSize means an unbounded extent cannot be derived from
	// the rest of the stream.
	ErrUnresolvableSize = errors.New("cmm: unresolvable size")
	// ErrTruncatedStream means the stream ended inside a header or payload.
	ErrTruncatedStream = errors.New("cmm: truncated stream")
	// ErrUnknownTag means a tag byte outside the registry.
	ErrUnknownTag = errors.New("cmm: unknown tag")
	// ErrSequenceState means a sequence call out of order.
	ErrSequenceState = errors.New("cmm: invalid sequence state")
)

// FormatError reports a decoding or encoding failure at a stream offset.
// Off is -1 when the failure is not tied to a position (eg a value rejected
// before anything was written).
type FormatError struct {
	Off int64
	Msg string
	Err error
}

func formatErrf(off int64, err error, format string, args ...any) error {
	return &FormatError{Off: off, Msg: fmt.Sprintf(format, args...), Err: err}
}

func valueErrf(err error, format string, args ...any) error {
	return formatErrf(-1, err, format, args...)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Error() string {
	switch {
	case e.Off < 0 && e.Err != nil:
		return fmt.Sprintf("%v: %s", e.Err, e.Msg)
	case e.Off < 0:
		return e.Msg
	case e.Err != nil:
		return fmt.Sprintf("%v at offset %d: %s", e.Err, e.Off, e.Msg)
	default:
		return fmt.Sprintf("at offset %d: %s", e.Off, e.Msg)
	}
}

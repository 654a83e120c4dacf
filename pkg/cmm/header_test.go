package cmm

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/samcharles93/cmm/internal/cmmtest"
)

func TestAppendHeaderLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		h    Header
		want string
	}{
		{ScalarHeader(Integer), "'I %0"},
		{VectorHeader(Real, 5), "'R %1 %5"},
		{VectorHeader(Text, Unbounded), "'T %1 %-1"},
		{MatrixHeader(Boolean, 2, 3), "'B %2 %2 %3"},
		{TensorHeader(Long, 2, 3, 4), "'L %3 %2 %3 %4"},
	}
	for _, tt := range tests {
		got := AppendHeader(nil, tt.h)
		cmmtest.BytesEq(t, got, cmmtest.Expand(tt.want))
		if len(got) != tt.h.EncodedLen() {
			t.Fatalf("%v encoded length mismatch: got %d want %d", tt.h, len(got), tt.h.EncodedLen())
		}
	}
}

func TestReadHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	headers := []Header{
		ScalarHeader(UnsignedLong),
		VectorHeader(Integer, 0),
		VectorHeader(Real, Unbounded),
		MatrixHeader(Text, 4, 1),
		MatrixHeader(Long, Unbounded, 6),
		TensorHeader(Boolean, 1, 2, 3),
	}
	var buf []byte
	for _, h := range headers {
		buf = AppendHeader(buf, h)
	}
	r := newTestReader(t, buf)
	for i, want := range headers {
		got, err := r.ReadHeader()
		if err != nil {
			t.Fatalf("header %d: %v", i, err)
		}
		if got.Tag != want.Tag || !got.Shape.Equal(want.Shape) {
			t.Fatalf("header %d mismatch: got %v want %v", i, got, want)
		}
	}
	if _, err := r.ReadHeader(); err != io.EOF {
		t.Fatalf("expected io.EOF at the end, got %v", err)
	}
}

func TestReadHeaderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown tag", "'X %0", ErrUnknownTag},
		{"sequence start", "'S 'R %0 'E", ErrUnknownTag},
		{"sequence end", "'E", ErrUnknownTag},
		{"short dim count", "'R 01_00", ErrTruncatedStream},
		{"short dims", "'R %2 %3", ErrTruncatedStream},
		{"negative dim count", "'R %-3", ErrShapeMismatch},
		{"too many dims", "'R %65", ErrShapeMismatch},
		{"unbounded inner dim", "'R %2 %3 %-1", ErrShapeMismatch},
		{"negative dim", "'I %1 %-2", ErrShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newTestReader(t, cmmtest.Expand(tt.data))
			_, err := r.ReadHeader()
			if !errors.Is(err, tt.want) {
				t.Fatalf("error mismatch: got %v want %v", err, tt.want)
			}
			var fe *FormatError
			if !errors.As(err, &fe) || fe.Off != 0 {
				t.Fatalf("expected a FormatError at offset 0, got %#v", err)
			}
		})
	}
}

func TestExpectHeader(t *testing.T) {
	t.Parallel()

	data := AppendHeader(nil, MatrixHeader(Real, 2, 2))

	if _, err := newTestReader(t, data).ExpectHeader(Integer, 2); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("tag error mismatch: got %v want %v", err, ErrTypeMismatch)
	}
	if _, err := newTestReader(t, data).ExpectHeader(Real, 1); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("rank error mismatch: got %v want %v", err, ErrShapeMismatch)
	}
	if _, err := newTestReader(t, data).ExpectHeader(Real, -1); err != nil {
		t.Fatalf("any rank: %v", err)
	}
	rows, cols, err := newTestReader(t, data).ReadMatrixHeader(Real)
	if err != nil {
		t.Fatalf("read matrix header: %v", err)
	}
	if rows != 2 || cols != 2 {
		t.Fatalf("matrix header mismatch: got %dx%d want 2x2", rows, cols)
	}

	n, err := newTestReader(t, AppendHeader(nil, VectorHeader(Text, Unbounded))).ReadVectorHeader(Text)
	if err != nil {
		t.Fatalf("read vector header: %v", err)
	}
	if n != Unbounded {
		t.Fatalf("vector size mismatch: got %d want %d", n, Unbounded)
	}
	if err := newTestReader(t, AppendHeader(nil, ScalarHeader(Boolean))).ReadScalarHeader(Boolean); err != nil {
		t.Fatalf("read scalar header: %v", err)
	}
}

func TestHeaderIs(t *testing.T) {
	t.Parallel()

	h := VectorHeader(Long, 3)
	if !h.Is(Long) || h.Is(UnsignedLong) {
		t.Fatalf("Is mismatch for %v", h)
	}
	if got := h.String(); got != "long[3]" {
		t.Fatalf("String mismatch: got %q", got)
	}
}

func TestFormatErrorMessage(t *testing.T) {
	t.Parallel()

	err := formatErrf(12, ErrTruncatedStream, "reading %s", "payload")
	if got, want := err.Error(), "cmm: truncated stream at offset 12: reading payload"; got != want {
		t.Fatalf("message mismatch: got %q want %q", got, want)
	}
	err = valueErrf(ErrShapeMismatch, "ragged")
	if got, want := err.Error(), "cmm: shape mismatch: ragged"; got != want {
		t.Fatalf("message mismatch: got %q want %q", got, want)
	}
	if got := withOffset(err, 7).(*FormatError).Off; got != 7 {
		t.Fatalf("offset mismatch: got %d want 7", got)
	}
}

func newTestReader(t testing.TB, data []byte) *Reader {
	t.Helper()
	r, err := NewReader(bytes.NewReader(data), Options{Logger: cmmtest.Logger(t)})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	return r
}

package cmm

import (
	"errors"
	"slices"
	"testing"
)

func TestValueOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    any
		tag   Tag
		shape Shape
	}{
		{3.5, Real, nil},
		{int32(1), Integer, nil},
		{[]int64{1, 2}, Long, Shape{2}},
		{[][]uint64{{1}, {2}, {3}}, UnsignedLong, Shape{3, 1}},
		{"x", Text, nil},
		{[]bool{}, Boolean, Shape{0}},
		{Scalar(int32(4)), Integer, nil},
	}
	for _, tt := range tests {
		v, err := ValueOf(tt.in)
		if err != nil {
			t.Fatalf("ValueOf(%v): %v", tt.in, err)
		}
		if v.Tag != tt.tag || !v.Shape.Equal(tt.shape) {
			t.Fatalf("ValueOf(%v) mismatch: got %v want %v%v", tt.in, v.Header(), tt.tag, tt.shape)
		}
		if err := v.Validate(); err != nil {
			t.Fatalf("ValueOf(%v) invalid: %v", tt.in, err)
		}
	}

	for _, in := range []any{1, float32(1), []int{1}, map[string]int{}} {
		if _, err := ValueOf(in); !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("ValueOf(%T) error mismatch: got %v", in, err)
		}
	}
	if _, err := ValueOf([][]string{{"a"}, {}}); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("ragged ValueOf error mismatch: got %v", err)
	}
}

func TestAs(t *testing.T) {
	t.Parallel()

	m := must(Matrix([][]float64{{1, 2}, {3, 4}}))
	rows, err := As[[][]float64](m)
	if err != nil {
		t.Fatalf("As matrix: %v", err)
	}
	if !slices.Equal(rows[1], []float64{3, 4}) {
		t.Fatalf("matrix mismatch: got %v", rows)
	}
	if _, err := As[[]float64](m); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("rank error mismatch: got %v", err)
	}
	if _, err := As[[][]int32](m); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("tag error mismatch: got %v", err)
	}
	if _, err := As[float32](m); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("unsupported type error mismatch: got %v", err)
	}

	v, err := As[Value](m)
	if err != nil || v.Tag != Real {
		t.Fatalf("As Value: got %v, %v", v, err)
	}
	x, err := As[any](Scalar(true))
	if err != nil {
		t.Fatalf("As any: %v", err)
	}
	if b, ok := x.(bool); !ok || !b {
		t.Fatalf("As any mismatch: got %#v", x)
	}
}

func TestInterface(t *testing.T) {
	t.Parallel()

	tensor := must(Tensor(Shape{2, 1, 2}, []uint64{1, 2, 3, 4}))
	tests := []struct {
		v    Value
		want string
	}{
		{Scalar(int32(7)), "int scalar 7"},
		{Vector([]string{"a", "b"}), "text[2] [a b]"},
		{must(Matrix([][]bool{{true}, {false}})), "bool[2x1] [[true] [false]]"},
		{tensor, "ulong[2x1x2] [1 2 3 4]"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Fatalf("String mismatch: got %q want %q", got, tt.want)
		}
	}

	if _, err := (Value{Tag: Tag('Q')}).Interface(); !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("unknown tag error mismatch: got %v", err)
	}
	bad := Value{Tag: Real, Shape: Shape{2}, Data: make([]byte, 3)}
	if _, err := bad.Interface(); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("short payload error mismatch: got %v", err)
	}
}

func TestValidatePayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    Value
		want error
	}{
		{"bool byte", Value{Tag: Boolean, Shape: Shape{2}, Data: []byte{'t', 1}}, ErrShapeMismatch},
		{"text count", Value{Tag: Text, Shape: Shape{2}, Data: []byte("a\x00")}, ErrShapeMismatch},
		{"text tail", Value{Tag: Text, Data: []byte("a\x00b")}, ErrShapeMismatch},
		{"empty text", Value{Tag: Text, Shape: Shape{0}, Data: []byte("x")}, ErrShapeMismatch},
		{"unbounded", Value{Tag: Integer, Shape: Shape{Unbounded}}, ErrUnresolvableSize},
		{"unknown tag", Value{Tag: 0}, ErrUnknownTag},
	}
	for _, tt := range tests {
		if err := tt.v.Validate(); !errors.Is(err, tt.want) {
			t.Fatalf("%s: error mismatch: got %v want %v", tt.name, err, tt.want)
		}
	}
}

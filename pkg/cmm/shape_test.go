package cmm

import (
	"errors"
	"math"
	"testing"
)

func TestShapeLen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		shape Shape
		want  int
	}{
		{nil, 1},
		{Shape{0}, 0},
		{Shape{7}, 7},
		{Shape{3, 4}, 12},
		{Shape{2, 0}, 0},
		{Shape{2, 3, 4}, 24},
	}
	for _, tt := range tests {
		got, err := tt.shape.Len()
		if err != nil {
			t.Fatalf("%v: %v", tt.shape, err)
		}
		if got != tt.want {
			t.Fatalf("%v length mismatch: got %d want %d", tt.shape, got, tt.want)
		}
	}

	if _, err := (Shape{Unbounded, 3}).Len(); !errors.Is(err, ErrUnresolvableSize) {
		t.Fatalf("unbounded length error mismatch: got %v", err)
	}
	if _, err := (Shape{math.MaxInt32, math.MaxInt32, math.MaxInt32}).Len(); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("overflow error mismatch: got %v", err)
	}
}

func TestShapeValidate(t *testing.T) {
	t.Parallel()

	valid := []Shape{nil, {0}, {Unbounded}, {Unbounded, 4}, {3, 4, 5}}
	for _, s := range valid {
		if err := s.Validate(); err != nil {
			t.Fatalf("%v should be valid: %v", s, err)
		}
	}
	invalid := []Shape{{3, Unbounded}, {-2}, {4, -7}, {math.MaxInt32 + 1}, make(Shape, MaxRank+1)}
	for _, s := range invalid {
		if err := s.Validate(); !errors.Is(err, ErrShapeMismatch) {
			t.Fatalf("%v error mismatch: got %v want %v", s, err, ErrShapeMismatch)
		}
	}
}

func TestShapeStringAndParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Shape
		str  string
	}{
		{"", nil, "scalar"},
		{"scalar", nil, "scalar"},
		{"5", Shape{5}, "[5]"},
		{"3,4", Shape{3, 4}, "[3x4]"},
		{"3x4", Shape{3, 4}, "[3x4]"},
		{"*x2", Shape{Unbounded, 2}, "[*x2]"},
		{"-1", Shape{Unbounded}, "[*]"},
		{"[2x3x4]", Shape{2, 3, 4}, "[2x3x4]"},
	}
	for _, tt := range tests {
		got, err := ParseShape(tt.in)
		if err != nil {
			t.Fatalf("ParseShape(%q): %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("ParseShape(%q) mismatch: got %v want %v", tt.in, got, tt.want)
		}
		if got.String() != tt.str {
			t.Fatalf("String mismatch: got %q want %q", got.String(), tt.str)
		}
	}
	for _, in := range []string{"a", "3,*", "1,-5"} {
		if _, err := ParseShape(in); !errors.Is(err, ErrShapeMismatch) {
			t.Fatalf("ParseShape(%q) error mismatch: got %v", in, err)
		}
	}
}

func TestShapeClone(t *testing.T) {
	t.Parallel()

	s := Shape{Unbounded, 3}
	c := s.Clone()
	c[0] = 9
	if s[0] != Unbounded {
		t.Fatalf("clone aliases the original: %v", s)
	}
	if Shape(nil).Clone() != nil {
		t.Fatalf("clone of a scalar shape should stay nil")
	}
}

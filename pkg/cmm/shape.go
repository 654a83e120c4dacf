package cmm

import (
	"math"
	"strconv"
	"strings"
)

// Shape lists dimension sizes, outermost first. A nil or empty Shape is a
// scalar. Only Shape[0] may be Unbounded.
type Shape []int

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// Unbounded reports whether the first dimension is resolved at read time.
func (s Shape) Unbounded() bool {
	return len(s) > 0 && s[0] == Unbounded
}

// Len returns the number of elements described by s.
func (s Shape) Len() (int, error) {
	if s.Unbounded() {
		return 0, valueErrf(ErrUnresolvableSize, "unbounded shape %v has no length", s)
	}
	return product(s)
}

// rowLen returns the number of elements per first-dimension step.
func (s Shape) rowLen() (int, error) {
	if len(s) == 0 {
		return 1, nil
	}
	return product(s[1:])
}

func product(dims []int) (int, error) {
	n := 1
	for _, d := range dims {
		if d < 0 {
			return 0, valueErrf(ErrShapeMismatch, "negative dimension %d", d)
		}
		if d != 0 && n > math.MaxInt/d {
			return 0, valueErrf(ErrShapeMismatch, "shape too large")
		}
		n *= d
	}
	return n, nil
}

// Validate checks the dimension rules of the format.
func (s Shape) Validate() error {
	if len(s) > MaxRank {
		return valueErrf(ErrShapeMismatch, "rank %d exceeds %d", len(s), MaxRank)
	}
	for i, d := range s {
		if d == Unbounded && i == 0 {
			continue
		}
		if d < 0 {
			return valueErrf(ErrShapeMismatch, "invalid size %d in dimension %d", d, i)
		}
		if d > math.MaxInt32 {
			return valueErrf(ErrShapeMismatch, "size %d in dimension %d does not fit int32", d, i)
		}
	}
	return nil
}

// Equal reports whether both shapes have identical dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	return append(Shape{}, s...)
}

func (s Shape) String() string {
	if len(s) == 0 {
		return "scalar"
	}
	var buf strings.Builder
	buf.WriteByte('[')
	for i, d := range s {
		if i > 0 {
			buf.WriteByte('x')
		}
		if d == Unbounded {
			buf.WriteByte('*')
		} else {
			buf.WriteString(strconv.Itoa(d))
		}
	}
	buf.WriteByte(']')
	return buf.String()
}

// ParseShape parses a comma or x separated dimension list such as "3,4",
// "*x2" or "" (scalar). "*" and "-1" both mean Unbounded.
func ParseShape(s string) (Shape, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "scalar" {
		return nil, nil
	}
	s = strings.Trim(s, "[]")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == 'x' || r == ' ' })
	shape := make(Shape, 0, len(fields))
	for _, f := range fields {
		if f == "*" {
			shape = append(shape, Unbounded)
			continue
		}
		d, err := strconv.Atoi(f)
		if err != nil {
			return nil, valueErrf(ErrShapeMismatch, "invalid dimension %q", f)
		}
		shape = append(shape, d)
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return shape, nil
}

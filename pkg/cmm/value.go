package cmm

import "fmt"

// Value is one decoded or to-be-encoded payload together with its tag and
// concrete shape. Data holds the payload exactly as it appears on the wire.
//
// Use Scalar, Vector, Matrix, Tensor or ValueOf to build values from Go data
// and ScalarOf, VectorOf, MatrixOf, Elements or As to get it back.
type Value struct {
	Tag   Tag
	Shape Shape
	Data  []byte
}

// Scalar encodes a single element.
func Scalar[E Element](v E) Value {
	return Value{Tag: TagOf[E](), Data: appendElems(nil, []E{v})}
}

// Vector encodes vals as a rank 1 value.
func Vector[E Element](vals []E) Value {
	return Value{Tag: TagOf[E](), Shape: Shape{len(vals)}, Data: appendElems(nil, vals)}
}

// Matrix encodes rows in row-major order. All rows must have the same length;
// nothing is encoded otherwise.
func Matrix[E Element](rows [][]E) (Value, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	for i, row := range rows {
		if len(row) != cols {
			return Value{}, valueErrf(ErrShapeMismatch, "matrix row %d has %d elements, row 0 has %d", i, len(row), cols)
		}
	}
	var data []byte
	for _, row := range rows {
		data = appendElems(data, row)
	}
	return Value{Tag: TagOf[E](), Shape: Shape{len(rows), cols}, Data: data}, nil
}

// Tensor encodes flat, a row-major rendition of an array of the given shape.
func Tensor[E Element](shape Shape, flat []E) (Value, error) {
	if err := shape.Validate(); err != nil {
		return Value{}, err
	}
	n, err := shape.Len()
	if err != nil {
		return Value{}, err
	}
	if n != len(flat) {
		return Value{}, valueErrf(ErrShapeMismatch, "shape %v needs %d elements, got %d", shape, n, len(flat))
	}
	return Value{Tag: TagOf[E](), Shape: shape.Clone(), Data: appendElems(nil, flat)}, nil
}

// ValueOf converts a scalar, slice or rectangular slice of slices of an
// Element type. A Value is returned as is.
func ValueOf(x any) (Value, error) {
	if v, ok := x.(Value); ok {
		return v, nil
	}
	for _, conv := range valueConverters {
		if v, ok, err := conv(x); ok {
			return v, err
		}
	}
	return Value{}, valueErrf(ErrTypeMismatch, "unsupported Go type %T", x)
}

var valueConverters = []func(any) (Value, bool, error){
	valueOfKind[float64],
	valueOfKind[int32],
	valueOfKind[int64],
	valueOfKind[uint64],
	valueOfKind[string],
	valueOfKind[bool],
}

func valueOfKind[E Element](x any) (Value, bool, error) {
	switch t := x.(type) {
	case E:
		return Scalar(t), true, nil
	case []E:
		return Vector(t), true, nil
	case [][]E:
		v, err := Matrix(t)
		return v, true, err
	}
	return Value{}, false, nil
}

func (v Value) Header() Header {
	return Header{Tag: v.Tag, Shape: v.Shape}
}

// Len returns the number of elements.
func (v Value) Len() (int, error) {
	return v.Shape.Len()
}

// Validate checks that Data holds exactly the elements Shape describes.
func (v Value) Validate() error {
	if err := v.Header().Validate(); err != nil {
		return err
	}
	n, err := v.Shape.Len()
	if err != nil {
		return err
	}
	return checkPayload(v.Tag, v.Data, n)
}

func (v Value) String() string {
	x, err := v.Interface()
	if err != nil {
		return fmt.Sprintf("%v(%d bytes, %v)", v.Header(), len(v.Data), err)
	}
	return fmt.Sprintf("%v %v", v.Header(), x)
}

func (v Value) decode(tag Tag, rank int) (int, error) {
	if v.Tag != tag {
		return 0, valueErrf(ErrTypeMismatch, "value is %v, wanted %v", v.Tag, tag)
	}
	if rank >= 0 && v.Shape.Rank() != rank {
		return 0, valueErrf(ErrShapeMismatch, "value has rank %d, wanted %d", v.Shape.Rank(), rank)
	}
	return v.Shape.Len()
}

// ScalarOf decodes a rank 0 value of element type E.
func ScalarOf[E Element](v Value) (E, error) {
	var zero E
	n, err := v.decode(TagOf[E](), 0)
	if err != nil {
		return zero, err
	}
	out, err := decodeElems[E](v.Data, n)
	if err != nil {
		return zero, err
	}
	return out[0], nil
}

// VectorOf decodes a rank 1 value of element type E.
func VectorOf[E Element](v Value) ([]E, error) {
	n, err := v.decode(TagOf[E](), 1)
	if err != nil {
		return nil, err
	}
	return decodeElems[E](v.Data, n)
}

// MatrixOf decodes a rank 2 value into rows sharing one backing array.
func MatrixOf[E Element](v Value) ([][]E, error) {
	n, err := v.decode(TagOf[E](), 2)
	if err != nil {
		return nil, err
	}
	flat, err := decodeElems[E](v.Data, n)
	if err != nil {
		return nil, err
	}
	rows, cols := v.Shape[0], v.Shape[1]
	out := make([][]E, rows)
	for i := range out {
		out[i] = flat[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return out, nil
}

// Elements returns the elements of a value of any rank in row-major order.
func Elements[E Element](v Value) ([]E, error) {
	n, err := v.decode(TagOf[E](), -1)
	if err != nil {
		return nil, err
	}
	return decodeElems[E](v.Data, n)
}

// As converts v into T, which must be an Element type E, []E or [][]E
// matching the value's rank, Value itself, or any.
func As[T any](v Value) (T, error) {
	var out T
	switch p := any(&out).(type) {
	case *Value:
		*p = v
		return out, nil
	case *any:
		x, err := v.Interface()
		*p = x
		return out, err
	}
	for _, assign := range assigners {
		if ok, err := assign(&out, v); ok {
			return out, err
		}
	}
	return out, valueErrf(ErrTypeMismatch, "cannot convert %v into %T", v.Header(), out)
}

var assigners = []func(any, Value) (bool, error){
	assignKind[float64],
	assignKind[int32],
	assignKind[int64],
	assignKind[uint64],
	assignKind[string],
	assignKind[bool],
}

func assignKind[E Element](dst any, v Value) (bool, error) {
	var err error
	switch p := dst.(type) {
	case *E:
		*p, err = ScalarOf[E](v)
	case *[]E:
		*p, err = VectorOf[E](v)
	case *[][]E:
		*p, err = MatrixOf[E](v)
	default:
		return false, nil
	}
	return true, err
}

// Interface returns the value as a Go scalar, slice or slice of slices.
// Values of rank three and above come back flattened.
func (v Value) Interface() (any, error) {
	switch v.Tag {
	case Real:
		return interfaceOf[float64](v)
	case Integer:
		return interfaceOf[int32](v)
	case Long:
		return interfaceOf[int64](v)
	case UnsignedLong:
		return interfaceOf[uint64](v)
	case Text:
		return interfaceOf[string](v)
	case Boolean:
		return interfaceOf[bool](v)
	}
	return nil, valueErrf(ErrUnknownTag, "%v", v.Tag)
}

func interfaceOf[E Element](v Value) (any, error) {
	var (
		x   any
		err error
	)
	switch v.Shape.Rank() {
	case 0:
		x, err = ScalarOf[E](v)
	case 1:
		x, err = VectorOf[E](v)
	case 2:
		x, err = MatrixOf[E](v)
	default:
		x, err = Elements[E](v)
	}
	if err != nil {
		return nil, err
	}
	return x, nil
}

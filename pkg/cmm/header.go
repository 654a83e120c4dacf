package cmm

// Header describes the tag and dimensions of the payload that follows it.
type Header struct {
	Tag   Tag
	Shape Shape
}

// ScalarHeader returns a rank 0 header.
func ScalarHeader(tag Tag) Header {
	return Header{Tag: tag}
}

// VectorHeader returns a rank 1 header of size elements.
func VectorHeader(tag Tag, size int) Header {
	return Header{Tag: tag, Shape: Shape{size}}
}

// MatrixHeader returns a rank 2 header of rows by cols.
func MatrixHeader(tag Tag, rows, cols int) Header {
	return Header{Tag: tag, Shape: Shape{rows, cols}}
}

// TensorHeader builds a header of arbitrary rank. Payloads of rank three and
// above are laid out row-major with the last index varying fastest.
func TensorHeader(tag Tag, dims ...int) Header {
	return Header{Tag: tag, Shape: Shape(dims).Clone()}
}

// Is reports whether the header describes elements of the given tag.
func (h Header) Is(tag Tag) bool {
	return h.Tag == tag
}

// EncodedLen returns the number of bytes AppendHeader produces.
func (h Header) EncodedLen() int {
	return 1 + dimWidth + dimWidth*len(h.Shape)
}

// Validate checks that the tag is known and the shape is legal.
func (h Header) Validate() error {
	if !h.Tag.Valid() {
		return valueErrf(ErrUnknownTag, "%v", h.Tag)
	}
	return h.Shape.Validate()
}

func (h Header) String() string {
	if len(h.Shape) == 0 {
		return h.Tag.String() + " scalar"
	}
	return h.Tag.String() + h.Shape.String()
}

// AppendHeader appends the encoded header to buf.
func AppendHeader(buf []byte, h Header) []byte {
	buf = append(buf, byte(h.Tag))
	buf = appendInt32(buf, int32(len(h.Shape)))
	for _, d := range h.Shape {
		buf = appendInt32(buf, int32(d))
	}
	return buf
}

func appendInt32(buf []byte, v int32) []byte {
	return byteOrder.AppendUint32(buf, uint32(v))
}

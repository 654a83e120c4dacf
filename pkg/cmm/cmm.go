// Package cmm implements a self-describing binary record format for typed,
// multi-dimensional numeric and text values.
//
// A record is a header followed by its payload:
//
//	Header   := Tag(1) DimCount(int32) DimSize(int32){DimCount}
//	Record   := Header Payload
//	Payload  := scalar | DimSize[0] × scalar | DimSize[0] × (DimSize[1] × scalar)
//
// Multi-byte integers and floats use the host byte order. Text elements are
// NUL-terminated, booleans are a single 't' or 'f' byte.
//
// The first dimension of a header may be Unbounded, in which case the reader
// resolves it from the remaining length of the stream. Such a record must be
// the last thing in the stream.
//
// A sequence interleaves several differently-typed columns:
//
//	Sequence := 'S' Header{N} 'E' Row{M}
//	Row      := Slot(0) Slot(1) ... Slot(N-1)
//	Slot     := [InlineSize(int32) if Unbounded] Payload
//
// Rows run until the end of the stream.
package cmm

import "encoding/binary"

// Unbounded marks a first dimension whose size is resolved at read time.
const Unbounded = -1

// MaxRank bounds the dimension count accepted when decoding a header.
const MaxRank = 64

// Sequence block markers. They share the tag byte position with value tags
// but never describe a value.
const (
	SequenceStart byte = 'S'
	SequenceEnd   byte = 'E'
)

// Boolean payload bytes.
const (
	TrueByte  byte = 't'
	FalseByte byte = 'f'
)

const dimWidth = 4

var byteOrder = binary.NativeEndian

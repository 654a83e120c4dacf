package cmm

import (
	"fmt"
	"strings"
)

// Tag identifies the element kind of a value.
// Keep these stable forever; they are the on-disk bytes.
type Tag byte

const (
	Real         Tag = 'R' // float64
	Integer      Tag = 'I' // int32
	Long         Tag = 'L' // int64
	UnsignedLong Tag = 'U' // uint64
	Text         Tag = 'T' // NUL-terminated bytes
	Boolean      Tag = 'B' // 't' or 'f'
)

// Element lists the Go types a Tag maps to.
type Element interface {
	float64 | int32 | int64 | uint64 | string | bool
}

type tagInfo struct {
	name  string
	width int // 0 for variable width
	// terminator ends each variable-width element.
	terminator byte
}

var tagTable = map[Tag]tagInfo{
	Real:         {name: "real", width: 8},
	Integer:      {name: "int", width: 4},
	Long:         {name: "long", width: 8},
	UnsignedLong: {name: "ulong", width: 8},
	Text:         {name: "text", terminator: 0},
	Boolean:      {name: "bool", width: 1},
}

// TagOf returns the tag for element type E.
func TagOf[E Element]() Tag {
	var zero E
	switch any(zero).(type) {
	case float64:
		return Real
	case int32:
		return Integer
	case int64:
		return Long
	case uint64:
		return UnsignedLong
	case string:
		return Text
	case bool:
		return Boolean
	}
	panic("unreachable")
}

// Valid reports whether t is a registered value tag.
func (t Tag) Valid() bool {
	_, ok := tagTable[t]
	return ok
}

// Width returns the encoded width of one element. fixed is false for
// variable-width kinds, whose elements end with a terminator byte.
func (t Tag) Width() (width int, fixed bool) {
	info, ok := tagTable[t]
	if !ok {
		return 0, false
	}
	return info.width, info.width > 0
}

func (t Tag) terminator() byte {
	return tagTable[t].terminator
}

func (t Tag) String() string {
	if info, ok := tagTable[t]; ok {
		return info.name
	}
	if t >= 0x20 && t < 0x7f {
		return fmt.Sprintf("tag(%q)", byte(t))
	}
	return fmt.Sprintf("tag(0x%02x)", byte(t))
}

// ParseTag accepts a tag name ("real", "int", ...) or its raw letter ("R").
func ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		if t := Tag(s[0]); t.Valid() {
			return t, nil
		}
	}
	name := strings.ToLower(s)
	for t, info := range tagTable {
		if info.name == name {
			return t, nil
		}
	}
	switch name {
	case "float64", "double":
		return Real, nil
	case "int32", "integer":
		return Integer, nil
	case "int64":
		return Long, nil
	case "uint64":
		return UnsignedLong, nil
	case "string":
		return Text, nil
	case "boolean":
		return Boolean, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTag, s)
}

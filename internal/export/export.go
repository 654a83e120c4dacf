// Package export renders decoded records for people and other programs.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/samcharles93/cmm/pkg/cmm"
)

// Format names an output encoding.
type Format string

const (
	Text    Format = "text"
	JSON    Format = "json"
	MsgPack Format = "msgpack"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Text, nil
	case Text, JSON, MsgPack:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or msgpack)", s)
	}
}

// Kind distinguishes standalone records from sequence parts.
type Kind string

const (
	KindRecord   Kind = "record"
	KindSequence Kind = "sequence"
	KindRow      Kind = "row"
)

// Record is one rendered item. Value is nil when only the header was read.
type Record struct {
	Offset int64  `json:"offset" msgpack:"offset"`
	Kind   Kind   `json:"kind" msgpack:"kind"`
	Row    int64  `json:"row,omitempty" msgpack:"row,omitempty"`
	Tag    string `json:"tag,omitempty" msgpack:"tag,omitempty"`
	Shape  []int  `json:"shape,omitempty" msgpack:"shape,omitempty"`
	Bytes  int64  `json:"bytes" msgpack:"bytes"`
	Value  any    `json:"value,omitempty" msgpack:"value,omitempty"`
	Slots  []Slot `json:"slots,omitempty" msgpack:"slots,omitempty"`
	Rows   int64  `json:"rows,omitempty" msgpack:"rows,omitempty"`
}

// Slot describes one declared column of a sequence.
type Slot struct {
	Tag   string `json:"tag" msgpack:"tag"`
	Shape []int  `json:"shape" msgpack:"shape"`
}

// FromHeader describes a record without its payload.
func FromHeader(off int64, h cmm.Header, payload int64) Record {
	return Record{
		Offset: off,
		Kind:   KindRecord,
		Tag:    h.Tag.String(),
		Shape:  shape(h.Shape),
		Bytes:  payload,
	}
}

// FromValue describes a decoded record.
func FromValue(off int64, v cmm.Value) (Record, error) {
	x, err := v.Interface()
	if err != nil {
		return Record{}, err
	}
	rec := FromHeader(off, v.Header(), int64(len(v.Data)))
	rec.Value = x
	return rec, nil
}

// FromSequence describes a sequence header block.
func FromSequence(off int64, slots []cmm.Header) Record {
	rec := Record{Offset: off, Kind: KindSequence}
	for _, h := range slots {
		rec.Slots = append(rec.Slots, Slot{Tag: h.Tag.String(), Shape: shape(h.Shape)})
	}
	return rec
}

// FromRow describes one sequence row; Value holds one entry per slot.
func FromRow(off, row int64, vals []cmm.Value) (Record, error) {
	rec := Record{Offset: off, Kind: KindRow, Row: row}
	xs := make([]any, len(vals))
	for i, v := range vals {
		x, err := v.Interface()
		if err != nil {
			return Record{}, fmt.Errorf("slot %d: %w", i, err)
		}
		xs[i] = x
		rec.Bytes += int64(len(v.Data))
	}
	rec.Value = xs
	return rec, nil
}

func shape(s cmm.Shape) []int {
	if len(s) == 0 {
		return nil
	}
	return append([]int(nil), s...)
}

// Encoder writes records one after another.
type Encoder interface {
	Encode(Record) error
	Flush() error
}

// NewEncoder returns an encoder for f. JSON is written as one object per
// line; msgpack as a stream of maps.
func NewEncoder(w io.Writer, f Format) (Encoder, error) {
	bw := bufio.NewWriter(w)
	switch f {
	case Text, "":
		return &textEncoder{w: bw}, nil
	case JSON:
		return &jsonEncoder{w: bw, enc: json.NewEncoder(bw)}, nil
	case MsgPack:
		enc := msgpack.NewEncoder(bw)
		enc.UseCompactInts(true)
		return &msgpackEncoder{w: bw, enc: enc}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", f)
	}
}

type textEncoder struct {
	w *bufio.Writer
}

func (e *textEncoder) Encode(r Record) error {
	fmt.Fprintf(e.w, "0x%08x  ", r.Offset)
	switch r.Kind {
	case KindSequence:
		fmt.Fprintf(e.w, "sequence of %d slots:", len(r.Slots))
		for _, s := range r.Slots {
			fmt.Fprintf(e.w, " %s", headerString(s.Tag, s.Shape))
		}
		if r.Rows > 0 {
			fmt.Fprintf(e.w, " (%d rows, %d bytes)", r.Rows, r.Bytes)
		}
	case KindRow:
		fmt.Fprintf(e.w, "row %-6d %v", r.Row, r.Value)
	default:
		fmt.Fprintf(e.w, "%-16s %8d bytes", headerString(r.Tag, r.Shape), r.Bytes)
		if r.Value != nil {
			fmt.Fprintf(e.w, "  %v", r.Value)
		}
	}
	_, err := e.w.WriteString("\n")
	return err
}

func (e *textEncoder) Flush() error {
	return e.w.Flush()
}

func headerString(tag string, dims []int) string {
	if len(dims) == 0 {
		return tag + " scalar"
	}
	return tag + cmm.Shape(dims).String()
}

type jsonEncoder struct {
	w   *bufio.Writer
	enc *json.Encoder
}

func (e *jsonEncoder) Encode(r Record) error {
	r.Value = jsonSafe(r.Value)
	return e.enc.Encode(r)
}

func (e *jsonEncoder) Flush() error {
	return e.w.Flush()
}

// jsonSafe replaces non-finite floats, which JSON cannot represent, with
// their string form.
func jsonSafe(x any) any {
	switch v := x.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Sprint(v)
		}
		return v
	case []float64:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = jsonSafe(f)
		}
		return out
	case [][]float64:
		out := make([]any, len(v))
		for i, row := range v {
			out[i] = jsonSafe(row)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, y := range v {
			out[i] = jsonSafe(y)
		}
		return out
	default:
		return x
	}
}

type msgpackEncoder struct {
	w   *bufio.Writer
	enc *msgpack.Encoder
}

func (e *msgpackEncoder) Encode(r Record) error {
	return e.enc.Encode(&r)
}

func (e *msgpackEncoder) Flush() error {
	return e.w.Flush()
}

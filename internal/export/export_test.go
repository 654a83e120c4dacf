package export

import (
	"bytes"
	"math"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/samcharles93/cmm/pkg/cmm"
)

func mustRecord(t *testing.T, off int64, v cmm.Value) Record {
	t.Helper()
	r, err := FromValue(off, v)
	if err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	return r
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"": Text, "TEXT": Text, "json": JSON, "msgpack": MsgPack} {
		got, err := ParseFormat(in)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseFormat(%q) mismatch: got %q want %q", in, got, want)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatalf("expected an error for csv")
	}
}

func TestTextEncoder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, Text)
	if err != nil {
		t.Fatalf("new encoder: %v", err)
	}
	recs := []Record{
		mustRecord(t, 0, cmm.Vector([]int32{1, 2, 3})),
		FromHeader(21, cmm.VectorHeader(cmm.Real, 1000), 8000),
		FromSequence(8030, []cmm.Header{cmm.ScalarHeader(cmm.Integer), cmm.VectorHeader(cmm.Text, cmm.Unbounded)}),
	}
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("line count mismatch: got %d want 3:\n%s", len(lines), buf.String())
	}
	for i, want := range []string{"int[3]", "real[1000]", "sequence of 2 slots: int scalar text[*]"} {
		if !strings.Contains(lines[i], want) {
			t.Fatalf("line %d missing %q: %s", i, want, lines[i])
		}
	}
	if !strings.HasPrefix(lines[1], "0x00000015") {
		t.Fatalf("offset column mismatch: %s", lines[1])
	}
	if !strings.HasSuffix(lines[0], "[1 2 3]") {
		t.Fatalf("value column mismatch: %s", lines[0])
	}
}

func TestJSONEncoder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, JSON)
	if err != nil {
		t.Fatalf("new encoder: %v", err)
	}
	m, err := cmm.Matrix([][]float64{{1, math.Inf(1)}, {math.NaN(), 4}})
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	row, err := FromRow(40, 2, []cmm.Value{cmm.Scalar(true), cmm.Scalar("x")})
	if err != nil {
		t.Fatalf("FromRow: %v", err)
	}
	for _, r := range []Record{mustRecord(t, 9, m), row} {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("line count mismatch: got %d", len(lines))
	}
	var first struct {
		Offset int64  `json:"offset"`
		Tag    string `json:"tag"`
		Shape  []int  `json:"shape"`
		Value  [][]any
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.Offset != 9 || first.Tag != "real" || len(first.Shape) != 2 {
		t.Fatalf("record mismatch: %+v", first)
	}
	if first.Value[0][1] != "+Inf" || first.Value[1][0] != "NaN" {
		t.Fatalf("non-finite values mismatch: %v", first.Value)
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if second["kind"] != "row" || second["row"] != float64(2) {
		t.Fatalf("row mismatch: %v", second)
	}
	vals, _ := second["value"].([]any)
	if len(vals) != 2 || vals[0] != true || vals[1] != "x" {
		t.Fatalf("row values mismatch: %v", second["value"])
	}
}

func TestMsgPackEncoder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, MsgPack)
	if err != nil {
		t.Fatalf("new encoder: %v", err)
	}
	if err := enc.Encode(mustRecord(t, 3, cmm.Vector([]uint64{5, 1 << 40}))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Encode(mustRecord(t, 40, cmm.Scalar("hello"))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	dec := msgpack.NewDecoder(&buf)
	var got Record
	if err := dec.Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Offset != 3 || got.Tag != "ulong" || got.Bytes != 16 {
		t.Fatalf("record mismatch: %+v", got)
	}
	vals, ok := got.Value.([]any)
	if !ok || len(vals) != 2 {
		t.Fatalf("value mismatch: %#v", got.Value)
	}
	if err := dec.Decode(&got); err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if got.Value != "hello" {
		t.Fatalf("second value mismatch: %#v", got.Value)
	}
}

func TestFromValueRejectsBadPayload(t *testing.T) {
	t.Parallel()

	if _, err := FromValue(0, cmm.Value{Tag: cmm.Long, Shape: cmm.Shape{1}, Data: []byte{1}}); err == nil {
		t.Fatalf("expected an error for a short payload")
	}
}

// Package cmmtest builds and compares record bytes in tests.
package cmmtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"testing"
)

// Expand builds a byte string from whitespace-separated elements:
//
//	52 0a_0b   hex bytes, '_' separates
//	'abc       ASCII text
//	%12 %-1    int32 in host byte order
//	@12        int64 in host byte order
//	~1.5       float64 in host byte order
//	x/comment  text after '/' is ignored
//	00*3       repeat the element three times
func Expand(specs ...string) []byte {
	var b []byte
	for _, spec := range specs {
		for _, elem := range strings.Fields(spec) {
			base, _, _ := strings.Cut(elem, "/")
			if base == "" {
				continue
			}

			rep := 1
			if i := strings.LastIndexByte(base, '*'); i > 0 {
				n, err := strconv.Atoi(base[i+1:])
				if err != nil {
					panic(fmt.Sprintf("invalid repeat count %q in element %q", base[i+1:], elem))
				}
				base, rep = base[:i], n
			}

			one, err := appendElem(nil, base)
			if err != nil {
				panic(fmt.Errorf("%w in element %q", err, elem))
			}
			for range rep {
				b = append(b, one...)
			}
		}
	}
	return b
}

func appendElem(data []byte, s string) ([]byte, error) {
	if v, ok := strings.CutPrefix(s, "%"); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, err
		}
		return binary.NativeEndian.AppendUint32(data, uint32(int32(n))), nil
	} else if v, ok := strings.CutPrefix(s, "@"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		return binary.NativeEndian.AppendUint64(data, uint64(n)), nil
	} else if v, ok := strings.CutPrefix(s, "~"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		return binary.NativeEndian.AppendUint64(data, math.Float64bits(f)), nil
	} else if alpha, ok := strings.CutPrefix(s, "'"); ok {
		return append(data, alpha...), nil
	}
	return appendHex(data, s)
}

func appendHex(data []byte, hex string) ([]byte, error) {
	const none byte = 0xFF

	prev := none
	for _, b := range []byte(hex) {
		var half byte
		switch {
		case b == '_':
			if prev != none {
				data = append(data, prev)
				prev = none
			}
			continue
		case b >= '0' && b <= '9':
			half = b - '0'
		case b >= 'a' && b <= 'f':
			half = b - 'a' + 10
		case b >= 'A' && b <= 'F':
			half = b - 'A' + 10
		default:
			return nil, fmt.Errorf("invalid char '%c'", b)
		}
		if prev == none {
			prev = half
		} else {
			data = append(data, prev<<4|half)
			prev = none
		}
	}
	if prev != none {
		data = append(data, prev)
	}
	return data, nil
}

// HexDump renders b eight bytes per line, marking highlightOff with '>'.
func HexDump(b []byte, highlightOff int) string {
	var buf strings.Builder
	for off := 0; ; off += 8 {
		fmt.Fprintf(&buf, "%08x", off)
		if off >= len(b) {
			buf.WriteByte('\n')
			break
		}
		buf.WriteByte(' ')
		for i := range 8 {
			switch {
			case off+i >= len(b):
				buf.WriteString("   ")
			case off+i == highlightOff:
				fmt.Fprintf(&buf, ">%02x", b[off+i])
			default:
				fmt.Fprintf(&buf, " %02x", b[off+i])
			}
		}
		buf.WriteString("  |")
		for i := 0; i < 8 && off+i < len(b); i++ {
			if v := b[off+i]; v >= 32 && v <= 126 {
				buf.WriteByte(v)
			} else {
				buf.WriteByte('.')
			}
		}
		buf.WriteString("|\n")
		if off+8 >= len(b) {
			break
		}
	}
	return buf.String()
}

// BytesEq reports a hexdump of both sides when a and e differ.
func BytesEq(t testing.TB, a, e []byte) bool {
	t.Helper()
	if bytes.Equal(a, e) {
		return true
	}
	off := min(len(a), len(e))
	for i := range off {
		if a[i] != e[i] {
			off = i
			break
		}
	}
	t.Errorf("** got:\n%v\nwanted:\n%v\nfirst difference offset: 0x%x (%d)", HexDump(a, off), HexDump(e, off), off, off)
	return false
}

// Logger returns a debug-level logger that writes through t.Log.
func Logger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(&logWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type logWriter struct{ t testing.TB }

func (w *logWriter) Write(buf []byte) (int, error) {
	w.t.Log(strings.TrimSuffix(string(buf), "\n"))
	return len(buf), nil
}

package cmm

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Open opens a file for reading.
func Open(path string, o Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f, o)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// OpenMapped maps a file read-only and reads from memory. It falls back to
// Open when the platform or file cannot be mapped.
func OpenMapped(path string, o Options) (*Reader, error) {
	m, err := mapFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, err
		}
		o.logger().Debug("mmap unavailable, reading through the file",
			slog.String("path", path),
			slog.Any("err", err))
		return Open(path, o)
	}
	r, err := NewReader(bytes.NewReader(m.data), o)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	r.closer = m
	return r, nil
}

// Create truncates or creates a file for writing.
func Create(path string, o Options) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return fileWriter(f, o), nil
}

// Append opens a file for writing after its last record, creating it if
// needed.
func Append(path string, o Options) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return fileWriter(f, o), nil
}

func fileWriter(f *os.File, o Options) *Writer {
	w := NewWriter(f, o)
	w.closer = f
	w.syncer = f
	return w
}

// mapping is a read-only file mapping.
type mapping struct {
	data   []byte
	unmap  func([]byte) error
	closed bool
}

func (m *mapping) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if m.unmap == nil || len(m.data) == 0 {
		return nil
	}
	if err := m.unmap(m.data); err != nil {
		return fmt.Errorf("cmm: unmap: %w", err)
	}
	return nil
}

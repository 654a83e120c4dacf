package cmm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// stream is a buffered, position-tracking view over a seekable byte source
// of fixed size.
type stream struct {
	rs   io.ReadSeeker
	br   *bufio.Reader
	off  int64
	size int64
}

func newStream(rs io.ReadSeeker) (*stream, error) {
	off, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(off, io.SeekStart); err != nil {
		return nil, err
	}
	return &stream{
		rs:   rs,
		br:   bufio.NewReader(rs),
		off:  off,
		size: size,
	}, nil
}

func (s *stream) remaining() int64 {
	return s.size - s.off
}

func (s *stream) atEOF() bool {
	return s.off >= s.size
}

func (s *stream) seek(off int64) error {
	if off < 0 || off > s.size {
		return fmt.Errorf("seek to %d outside stream of %d bytes", off, s.size)
	}
	if off == s.off {
		return nil
	}
	if _, err := s.rs.Seek(off, io.SeekStart); err != nil {
		return err
	}
	s.br.Reset(s.rs)
	s.off = off
	return nil
}

// skip advances n bytes, discarding buffered data when possible.
func (s *stream) skip(n int64) error {
	if n > s.remaining() {
		return io.ErrUnexpectedEOF
	}
	if n <= int64(s.br.Buffered()) {
		d, err := s.br.Discard(int(n))
		s.off += int64(d)
		return err
	}
	return s.seek(s.off + n)
}

func (s *stream) readByte() (byte, error) {
	if s.atEOF() {
		return 0, io.EOF
	}
	b, err := s.br.ReadByte()
	if err != nil {
		return 0, unexpected(err)
	}
	s.off++
	return b, nil
}

func (s *stream) peekByte() (byte, error) {
	if s.atEOF() {
		return 0, io.EOF
	}
	b, err := s.br.Peek(1)
	if err != nil {
		return 0, unexpected(err)
	}
	return b[0], nil
}

// readFull reads exactly n bytes. Nothing is consumed when fewer than n bytes
// remain.
func (s *stream) readFull(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid read length %d", n)
	}
	if int64(n) > s.remaining() {
		return nil, io.ErrUnexpectedEOF
	}
	buf := make([]byte, n)
	m, err := io.ReadFull(s.br, buf)
	s.off += int64(m)
	if err != nil {
		return nil, unexpected(err)
	}
	return buf, nil
}

// appendUntil appends bytes up to and including term.
func (s *stream) appendUntil(buf []byte, term byte) ([]byte, error) {
	for {
		chunk, err := s.br.ReadSlice(term)
		s.off += int64(len(chunk))
		buf = append(buf, chunk...)
		switch {
		case err == nil:
			return buf, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return buf, unexpected(err)
		}
	}
}

// skipUntil advances past the next term byte without keeping the data.
func (s *stream) skipUntil(term byte) error {
	for {
		chunk, err := s.br.ReadSlice(term)
		s.off += int64(len(chunk))
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return unexpected(err)
		}
	}
}

// countTerminators scans to the end of the stream and restores the position.
// trailing is the number of bytes after the last terminator.
func (s *stream) countTerminators(term byte) (count int, trailing int64, err error) {
	start := s.off
	lastEnd := start
	for !s.atEOF() {
		err = s.skipUntil(term)
		if errors.Is(err, io.ErrUnexpectedEOF) {
			break
		} else if err != nil {
			return 0, 0, err
		}
		count++
		lastEnd = s.off
	}
	trailing = s.off - lastEnd
	if err := s.seek(start); err != nil {
		return 0, 0, err
	}
	return count, trailing, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

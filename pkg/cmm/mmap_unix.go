//go:build unix

package cmm

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(path string) (*mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 > int64(int(^uint(0)>>1)) {
		return nil, errors.New("file too large to map")
	}
	if size64 == 0 {
		// mmap rejects empty ranges.
		return &mapping{}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size64), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &mapping{data: data, unmap: unix.Munmap}, nil
}

//go:build linux

package store

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// preallocate reserves size zeroed bytes with fallocate, falling back to an
// explicit zero fill on filesystems that do not support it.
func preallocate(f *os.File, size int64) error {
	if size == 0 {
		return nil
	}
	err := unix.Fallocate(int(f.Fd()), 0, 0, size)
	if errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.ENOSYS) {
		return zeroFill(f, size)
	}
	return err
}

// datasync flushes file data without forcing a metadata update.
func datasync(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}

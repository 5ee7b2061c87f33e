package store

import (
	"os"

	apperrors "github.com/agbru/fanwrite/internal/errors"
)

// zeroBlock is the write size used when zero-filling without fallocate.
const zeroBlock = 64 * 1024

// Create creates (or truncates) the destination at path and pre-sizes it to
// size zero bytes, durably, before any worker writes. A failed run therefore
// leaves zeros, never stale bytes, in unwritten ranges.
func Create(path string, size int64) error {
	if size < 0 {
		return apperrors.NewConfigError("negative destination size %d", size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return apperrors.WrapError(err, "create destination")
	}
	if err := preallocate(f, size); err != nil {
		f.Close()
		return apperrors.WrapError(err, "pre-size destination to %d bytes", size)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return apperrors.WrapError(err, "sync destination")
	}
	return f.Close()
}

// zeroFill writes size zero bytes from the start of f.
func zeroFill(f *os.File, size int64) error {
	block := make([]byte, min(size, zeroBlock))
	var off int64
	for off < size {
		n := min(int64(len(block)), size-off)
		if _, err := writeFullAt(f, block[:n], off); err != nil {
			return err
		}
		off += n
	}
	return nil
}

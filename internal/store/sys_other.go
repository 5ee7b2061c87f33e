//go:build !linux

package store

import "os"

func preallocate(f *os.File, size int64) error {
	return zeroFill(f, size)
}

func datasync(f *os.File) error {
	return f.Sync()
}

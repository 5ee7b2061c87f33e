package orchestration

import (
	"bytes"
	"fmt"
	"io"
	"os"

	apperrors "github.com/agbru/fanwrite/internal/errors"
)

// ExpectedFunc returns the exact bytes of a source unit.
type ExpectedFunc func(sourceID int) ([]byte, error)

// Verify reads every allocation of a valid batch back from the destination
// and compares it with the expected bytes of its source unit.
func Verify(res BatchResult, expected ExpectedFunc) error {
	if !res.Valid {
		return apperrors.WrapError(res.Err, "cannot verify an invalid batch")
	}
	f, err := os.Open(res.Path)
	if err != nil {
		return apperrors.WrapError(err, "open destination for verification")
	}
	defer f.Close()

	var got []byte
	for _, w := range res.Workers {
		want, err := expected(w.SourceID)
		if err != nil {
			return err
		}
		a := w.Allocation
		if int64(len(want)) != a.Size {
			return fmt.Errorf("source %d: expected %d bytes, allocation holds %d", w.SourceID, len(want), a.Size)
		}
		got = append(got[:0], make([]byte, a.Size)...)
		if _, err := f.ReadAt(got, a.Offset); err != nil && err != io.EOF {
			return apperrors.WrapError(err, "read back %v", a)
		}
		if i := mismatchAt(got, want); i >= 0 {
			return fmt.Errorf("source %d: destination differs at offset %d", w.SourceID, a.Offset+int64(i))
		}
	}
	return nil
}

// mismatchAt returns the first index where a and b differ, or -1.
func mismatchAt(a, b []byte) int {
	if bytes.Equal(a, b) {
		return -1
	}
	for i := range min(len(a), len(b)) {
		if a[i] != b[i] {
			return i
		}
	}
	return min(len(a), len(b))
}

package store

import (
	"io"
	"os"

	"github.com/agbru/fanwrite/internal/alloc"
	apperrors "github.com/agbru/fanwrite/internal/errors"
)

// disjointHandle is a worker's private handle. *os.File satisfies it.
type disjointHandle interface {
	io.WriterAt
	Close() error
}

// Disjoint implements the disjoint-handle discipline. Each Open returns a
// writer with its own handle, restricted to its allocation; writers use
// positioned writes only and never share a cursor, so no lock is taken.
type Disjoint struct {
	path string
	size int64

	// openHandle is replaced in tests to inject short writes.
	openHandle func(path string) (disjointHandle, error)
}

// OpenDisjoint prepares the destination at path for per-worker handles.
func OpenDisjoint(path string) (*Disjoint, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.WrapError(err, "stat destination")
	}
	return &Disjoint{path: path, size: st.Size(), openHandle: openWriteOnly}, nil
}

func openWriteOnly(path string) (disjointHandle, error) {
	return os.OpenFile(path, os.O_WRONLY, 0)
}

// Open opens a new independent handle restricted to a.
func (d *Disjoint) Open(a alloc.Allocation) (RangeWriter, error) {
	if a.Offset < 0 || a.End() > d.size {
		return nil, apperrors.AllocationOverflowError{SourceID: a.SourceID, Offset: a.Offset, Size: a.Size, Capacity: d.size}
	}
	h, err := d.openHandle(d.path)
	if err != nil {
		return nil, apperrors.WrapError(err, "open handle for source %d", a.SourceID)
	}
	return &disjointWriter{h: h, a: a}, nil
}

// Sync is a no-op: every writer synced its own handle in Flush.
func (d *Disjoint) Sync() error { return nil }

func (d *Disjoint) Close() error           { return nil }
func (d *Disjoint) Discipline() Discipline { return DisjointHandle }
func (d *Disjoint) Path() string           { return d.path }
func (d *Disjoint) Size() int64            { return d.size }

type disjointWriter struct {
	h disjointHandle
	a alloc.Allocation
}

func (w *disjointWriter) Write(off int64, p []byte) (int64, error) {
	if err := checkRange(w.a, off, len(p)); err != nil {
		return off, err
	}
	n, err := writeFullAt(w.h, p, off)
	return off + int64(n), err
}

func (w *disjointWriter) Flush() error {
	if f, ok := w.h.(*os.File); ok {
		return datasync(f)
	}
	if s, ok := w.h.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}

func (w *disjointWriter) Close() error                 { return w.h.Close() }
func (w *disjointWriter) Allocation() alloc.Allocation { return w.a }

package store

import (
	"io"
	"os"
	"sync"

	"github.com/agbru/fanwrite/internal/alloc"
	apperrors "github.com/agbru/fanwrite/internal/errors"
)

// sharedHandle is the single handle all workers go through. *os.File
// satisfies it.
type sharedHandle interface {
	io.WriteSeeker
	Sync() error
	Close() error
}

// Shared implements the shared-handle discipline: one handle, one mutex.
// Repositioning the handle and transferring the chunk happen inside the same
// critical section, so no other worker can move the cursor in between.
type Shared struct {
	path string
	size int64

	mu sync.Mutex
	h  sharedHandle

	// afterSeek runs inside the critical section between repositioning and
	// transfer. Tests use it to hold a worker there.
	afterSeek func(off int64)
}

// OpenShared opens the destination at path with a single read-write handle.
func OpenShared(path string) (*Shared, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, apperrors.WrapError(err, "open destination")
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, apperrors.WrapError(err, "stat destination")
	}
	return newShared(path, st.Size(), f), nil
}

func newShared(path string, size int64, h sharedHandle) *Shared {
	return &Shared{path: path, size: size, h: h}
}

// Open returns a view of the shared handle restricted to a. The view holds no
// handle of its own.
func (s *Shared) Open(a alloc.Allocation) (RangeWriter, error) {
	if a.Offset < 0 || a.End() > s.size {
		return nil, apperrors.AllocationOverflowError{SourceID: a.SourceID, Offset: a.Offset, Size: a.Size, Capacity: s.size}
	}
	return &sharedView{s: s, a: a}, nil
}

// writeAt is the positioned write primitive of this discipline.
func (s *Shared) writeAt(off int64, p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.h.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	if s.afterSeek != nil {
		s.afterSeek(off)
	}
	return writeFull(s.h, p)
}

// Sync flushes the destination once for all workers.
func (s *Shared) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Sync()
}

func (s *Shared) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Close()
}

func (s *Shared) Discipline() Discipline { return SharedHandle }
func (s *Shared) Path() string           { return s.path }
func (s *Shared) Size() int64            { return s.size }

type sharedView struct {
	s *Shared
	a alloc.Allocation
}

func (v *sharedView) Write(off int64, p []byte) (int64, error) {
	if err := checkRange(v.a, off, len(p)); err != nil {
		return off, err
	}
	n, err := v.s.writeAt(off, p)
	return off + int64(n), err
}

// Flush is a no-op: under this discipline the orchestrator syncs the store.
func (v *sharedView) Flush() error { return nil }

func (v *sharedView) Close() error                 { return nil }
func (v *sharedView) Allocation() alloc.Allocation { return v.a }

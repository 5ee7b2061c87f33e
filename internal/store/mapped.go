package store

import (
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"

	"github.com/agbru/fanwrite/internal/alloc"
	apperrors "github.com/agbru/fanwrite/internal/errors"
)

// Mapped applies the disjoint discipline to one read-write mapping of the
// destination. Workers copy into their own sub-slice of the mapping and take
// no lock; the mapping is flushed once in Sync.
type Mapped struct {
	path string
	file *os.File
	data mmap.MMap

	closeOnce sync.Once
	closeErr  error
}

// OpenMapped maps the whole destination at path read-write.
func OpenMapped(path string) (*Mapped, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, apperrors.WrapError(err, "open destination")
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, apperrors.WrapError(err, "stat destination")
	}

	m := &Mapped{path: path, file: f}
	if st.Size() > 0 {
		m.data, err = mmap.MapRegion(f, int(st.Size()), mmap.RDWR, 0, 0)
		if err != nil {
			f.Close()
			return nil, apperrors.WrapError(err, "map destination")
		}
	}
	return m, nil
}

// Open returns a view of the mapping restricted to a.
func (m *Mapped) Open(a alloc.Allocation) (RangeWriter, error) {
	if a.Offset < 0 || a.End() > int64(len(m.data)) {
		return nil, apperrors.AllocationOverflowError{SourceID: a.SourceID, Offset: a.Offset, Size: a.Size, Capacity: int64(len(m.data))}
	}
	return &mappedView{region: m.data[a.Offset:a.End():a.End()], a: a}, nil
}

// Sync flushes dirty pages of the mapping to the file.
func (m *Mapped) Sync() error {
	if m.data == nil {
		return m.file.Sync()
	}
	return m.data.Flush()
}

// Close unmaps and closes the destination. It is safe to call twice.
func (m *Mapped) Close() error {
	m.closeOnce.Do(func() {
		var errs []error
		if m.data != nil {
			errs = append(errs, m.data.Unmap())
		}
		errs = append(errs, m.file.Close())
		m.data = nil
		for _, err := range errs {
			if err != nil && m.closeErr == nil {
				m.closeErr = err
			}
		}
	})
	return m.closeErr
}

func (m *Mapped) Discipline() Discipline { return DisjointHandle }
func (m *Mapped) Path() string           { return m.path }
func (m *Mapped) Size() int64            { return int64(len(m.data)) }

type mappedView struct {
	region []byte
	a      alloc.Allocation
}

func (v *mappedView) Write(off int64, p []byte) (int64, error) {
	if err := checkRange(v.a, off, len(p)); err != nil {
		return off, err
	}
	n := copy(v.region[off-v.a.Offset:], p)
	return off + int64(n), nil
}

// Flush is a no-op: pages are flushed for the whole mapping in Mapped.Sync.
func (v *mappedView) Flush() error                 { return nil }
func (v *mappedView) Close() error                 { return nil }
func (v *mappedView) Allocation() alloc.Allocation { return v.a }

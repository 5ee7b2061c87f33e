//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/agbru/fanwrite/internal/alloc"
	apperrors "github.com/agbru/fanwrite/internal/errors"
)

// Discipline is the synchronization scheme used for the whole run. A Store is
// bound to exactly one discipline for its lifetime, so the two cannot be mixed.
type Discipline int

const (
	// DisjointHandle gives every worker its own handle restricted to its own
	// allocation. Writes need no locking; each worker syncs its own handle.
	DisjointHandle Discipline = iota
	// SharedHandle routes every worker through one handle. Each positioned
	// write is a single critical section; the store is synced once at the end.
	SharedHandle
)

func (d Discipline) String() string {
	switch d {
	case DisjointHandle:
		return "disjoint"
	case SharedHandle:
		return "shared"
	}
	return fmt.Sprintf("Discipline(%d)", int(d))
}

// ParseDiscipline parses "shared" or "disjoint" (case-insensitive).
func ParseDiscipline(s string) (Discipline, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disjoint", "disjoint-handle", "":
		return DisjointHandle, nil
	case "shared", "shared-handle":
		return SharedHandle, nil
	}
	return 0, apperrors.NewConfigError("unknown writer discipline %q (want shared or disjoint)", s)
}

// Backend selects how the destination bytes are reached.
type Backend int

const (
	// FileBackend writes through file handles.
	FileBackend Backend = iota
	// MappedBackend copies into a shared read-write memory mapping. It only
	// supports the disjoint discipline.
	MappedBackend
)

func (b Backend) String() string {
	switch b {
	case FileBackend:
		return "file"
	case MappedBackend:
		return "mmap"
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

// ParseBackend parses "file" or "mmap" (case-insensitive).
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "file", "":
		return FileBackend, nil
	case "mmap", "mapped":
		return MappedBackend, nil
	}
	return 0, apperrors.NewConfigError("unknown storage backend %q (want file or mmap)", s)
}

// RangeWriter is a worker's access to its own allocation of the destination.
type RangeWriter interface {
	// Write transfers all of p to the destination at off as one indivisible
	// positioned write and returns the advanced cursor off+len(p). On error
	// the returned cursor reflects the bytes that did land.
	Write(off int64, p []byte) (int64, error)
	// Flush makes the bytes written so far durable where the discipline
	// assigns durability to the worker.
	Flush() error
	// Close releases the worker's handle.
	Close() error
	// Allocation returns the range this writer is restricted to.
	Allocation() alloc.Allocation
}

// Store is an open, pre-sized destination.
type Store interface {
	// Open returns a writer restricted to a.
	Open(a alloc.Allocation) (RangeWriter, error)
	// Sync makes the whole destination durable.
	Sync() error
	// Close releases the store. Writers must be closed first.
	Close() error
	Discipline() Discipline
	Path() string
	Size() int64
}

// Open opens the destination at path, which must already have been created
// with Create, under the given discipline and backend.
func Open(path string, d Discipline, b Backend) (Store, error) {
	switch {
	case b == MappedBackend && d != DisjointHandle:
		return nil, apperrors.NewConfigError("the mmap backend requires the disjoint discipline")
	case b == MappedBackend:
		return OpenMapped(path)
	case d == SharedHandle:
		return OpenShared(path)
	case d == DisjointHandle:
		return OpenDisjoint(path)
	}
	return nil, apperrors.NewConfigError("unsupported store %v/%v", d, b)
}

// checkRange rejects writes that leave a's range.
func checkRange(a alloc.Allocation, off int64, n int) error {
	if a.Contains(off, int64(n)) {
		return nil
	}
	return apperrors.RangeViolationError{
		SourceID: a.SourceID, RangeStart: a.Offset, RangeEnd: a.End(), Offset: off, Length: int64(n),
	}
}

// writeFullAt writes p at off, looping over short writes. A write that moves
// no bytes is reported as ShortTransferError.
func writeFullAt(w io.WriterAt, p []byte, off int64) (int, error) {
	done := 0
	for done < len(p) {
		n, err := w.WriteAt(p[done:], off+int64(done))
		done += n
		if err != nil && !errors.Is(err, io.ErrShortWrite) {
			return done, err
		}
		if n == 0 {
			return done, apperrors.ShortTransferError{Op: "write", Want: len(p), Got: done, Cause: io.ErrShortWrite}
		}
	}
	return done, nil
}

// writeFull is writeFullAt for a handle whose cursor is already positioned.
func writeFull(w io.Writer, p []byte) (int, error) {
	done := 0
	for done < len(p) {
		n, err := w.Write(p[done:])
		done += n
		if err != nil && !errors.Is(err, io.ErrShortWrite) {
			return done, err
		}
		if n == 0 {
			return done, apperrors.ShortTransferError{Op: "write", Want: len(p), Got: done, Cause: io.ErrShortWrite}
		}
	}
	return done, nil
}

// OnFailure says what happens to a destination whose batch failed.
type OnFailure int

const (
	// RemoveInvalid deletes the destination.
	RemoveInvalid OnFailure = iota
	// MarkInvalid renames the destination to <path>.invalid.
	MarkInvalid
)

func (o OnFailure) String() string {
	if o == MarkInvalid {
		return "mark"
	}
	return "remove"
}

// ParseOnFailure parses "remove" or "mark".
func ParseOnFailure(s string) (OnFailure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remove", "delete", "":
		return RemoveInvalid, nil
	case "mark", "rename":
		return MarkInvalid, nil
	}
	return 0, apperrors.NewConfigError("unknown on-failure mode %q (want remove or mark)", s)
}

// InvalidSuffix is appended to destinations marked invalid.
const InvalidSuffix = ".invalid"

// Invalidate makes a failed destination unusable so that no consumer mistakes
// zero-filled gaps for data. It returns the path the bytes ended up at, or ""
// when they were removed.
func Invalidate(path string, mode OnFailure) (string, error) {
	switch mode {
	case MarkInvalid:
		target := path + InvalidSuffix
		if err := os.Rename(path, target); err != nil {
			return "", apperrors.WrapError(err, "mark %s invalid", path)
		}
		return target, nil
	default:
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return "", apperrors.WrapError(err, "remove invalid %s", path)
		}
		return "", nil
	}
}

package alloc

import (
	"fmt"
	"strings"
	"sync/atomic"

	apperrors "github.com/agbru/fanwrite/internal/errors"
)

// Policy selects how destination ranges are handed out.
type Policy int

const (
	// StaticIndexed places unit i at i × unitSize. Layout follows source-id
	// order and is identical across runs.
	StaticIndexed Policy = iota
	// DynamicCounter places units in the order workers claim space. Every run
	// is a valid partition but the id → offset mapping varies between runs.
	DynamicCounter
)

// String returns the flag spelling of the policy.
func (p Policy) String() string {
	switch p {
	case StaticIndexed:
		return "static"
	case DynamicCounter:
		return "dynamic"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Layout describes the byte order of units in a destination built under p.
func (p Policy) Layout() string {
	if p == DynamicCounter {
		return "arrival-order"
	}
	return "index-order"
}

// ParsePolicy parses "static" or "dynamic" (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static", "static-indexed", "":
		return StaticIndexed, nil
	case "dynamic", "dynamic-counter":
		return DynamicCounter, nil
	}
	return 0, apperrors.NewConfigError("unknown allocator policy %q (want static or dynamic)", s)
}

// Allocation is the range [Offset, Offset+Size) of the destination reserved
// for one source unit. It never changes once returned.
type Allocation struct {
	SourceID int
	Offset   int64
	Size     int64
}

// End returns the exclusive end of the range.
func (a Allocation) End() int64 { return a.Offset + a.Size }

// Contains reports whether [off, off+n) lies inside the allocation.
func (a Allocation) Contains(off, n int64) bool {
	return n >= 0 && off >= a.Offset && off+n <= a.End()
}

func (a Allocation) String() string {
	return fmt.Sprintf("source %d [%d, %d)", a.SourceID, a.Offset, a.End())
}

// Allocator hands out pairwise-disjoint ranges of a destination of fixed
// capacity. Implementations are safe for concurrent use.
type Allocator interface {
	Allocate(sourceID int, size int64) (Allocation, error)
	Policy() Policy
	Capacity() int64
}

// Static implements the StaticIndexed policy. It holds no mutable state.
type Static struct {
	unitSize int64
	units    int
}

// NewStatic returns a static allocator for units of identical size.
func NewStatic(unitSize int64, units int) *Static {
	return &Static{unitSize: unitSize, units: units}
}

// Allocate returns [id × unitSize, (id+1) × unitSize).
func (s *Static) Allocate(sourceID int, size int64) (Allocation, error) {
	a := Allocation{SourceID: sourceID, Offset: int64(sourceID) * s.unitSize, Size: size}
	if sourceID < 0 || sourceID >= s.units || size != s.unitSize {
		return Allocation{}, apperrors.AllocationOverflowError{
			SourceID: sourceID, Offset: a.Offset, Size: size, Capacity: s.Capacity(),
		}
	}
	return a, nil
}

func (s *Static) Policy() Policy  { return StaticIndexed }
func (s *Static) Capacity() int64 { return s.unitSize * int64(s.units) }

// Dynamic implements the DynamicCounter policy: a single running total
// advanced with fetch-and-add.
type Dynamic struct {
	capacity int64
	next     atomic.Int64
}

// NewDynamic returns a dynamic allocator over [0, capacity).
func NewDynamic(capacity int64) *Dynamic {
	return &Dynamic{capacity: capacity}
}

// Allocate claims the next size bytes. A claim that ends past capacity fails
// with AllocationOverflowError; the counter is left advanced so every later
// claim fails too.
func (d *Dynamic) Allocate(sourceID int, size int64) (Allocation, error) {
	if size < 0 {
		return Allocation{}, apperrors.AllocationOverflowError{SourceID: sourceID, Size: size, Capacity: d.capacity}
	}
	end := d.next.Add(size)
	off := end - size
	if end > d.capacity || end < off {
		return Allocation{}, apperrors.AllocationOverflowError{
			SourceID: sourceID, Offset: off, Size: size, Capacity: d.capacity,
		}
	}
	return Allocation{SourceID: sourceID, Offset: off, Size: size}, nil
}

func (d *Dynamic) Policy() Policy  { return DynamicCounter }
func (d *Dynamic) Capacity() int64 { return d.capacity }

// New builds the allocator for policy over units of unitSize bytes.
func New(policy Policy, unitSize int64, units int) (Allocator, error) {
	switch policy {
	case StaticIndexed:
		return NewStatic(unitSize, units), nil
	case DynamicCounter:
		return NewDynamic(unitSize * int64(units)), nil
	}
	return nil, apperrors.NewConfigError("unknown allocator policy %v", policy)
}

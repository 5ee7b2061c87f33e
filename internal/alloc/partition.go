package alloc

import (
	"cmp"
	"fmt"
	"slices"
	"sync/atomic"
)

// HighWater tracks the largest value observed across goroutines. The
// orchestrator feeds it the end of every completed write; after a successful
// run it must equal the destination size.
type HighWater struct {
	v atomic.Int64
}

// Observe records v if it is larger than the stored maximum. A lost
// compare-and-swap is retried against the fresh value until v is stored or
// the stored value is already >= v.
func (h *HighWater) Observe(v int64) {
	for {
		cur := h.v.Load()
		if cur >= v {
			return
		}
		if h.v.CompareAndSwap(cur, v) {
			return
		}
	}
}

// Load returns the current maximum.
func (h *HighWater) Load() int64 { return h.v.Load() }

// VerifyPartition checks that allocs exactly tile [0, total): sorted by
// offset, each range starts where the previous one ended and the last ends
// at total.
func VerifyPartition(allocs []Allocation, total int64) error {
	sorted := slices.Clone(allocs)
	// Empty ranges sort before a non-empty range at the same offset.
	slices.SortFunc(sorted, func(a, b Allocation) int {
		if c := cmp.Compare(a.Offset, b.Offset); c != 0 {
			return c
		}
		return cmp.Compare(a.Size, b.Size)
	})

	var cursor int64
	for _, a := range sorted {
		if a.Size < 0 {
			return fmt.Errorf("partition: %v has negative size", a)
		}
		switch {
		case a.Offset > cursor:
			return fmt.Errorf("partition: gap [%d, %d) before %v", cursor, a.Offset, a)
		case a.Offset < cursor:
			return fmt.Errorf("partition: %v overlaps previous range ending at %d", a, cursor)
		}
		cursor = a.End()
	}
	if cursor != total {
		return fmt.Errorf("partition: ranges cover [0, %d), want [0, %d)", cursor, total)
	}
	return nil
}

package metrics

import "runtime"

// MemorySnapshot is a point-in-time reading of the runtime allocator.
type MemorySnapshot struct {
	HeapAlloc    uint64 // live heap bytes
	TotalAlloc   uint64 // cumulative heap bytes allocated
	Sys          uint64 // bytes obtained from the OS
	NumGC        uint32
	PauseTotalNs uint64
}

// MemoryCollector reads runtime memory statistics around a batch.
type MemoryCollector struct {
	start MemorySnapshot
}

// NewMemoryCollector creates a collector and records the starting snapshot.
func NewMemoryCollector() *MemoryCollector {
	mc := &MemoryCollector{}
	mc.start = mc.Snapshot()
	return mc
}

// Snapshot reads current memory statistics.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapAlloc:    m.HeapAlloc,
		TotalAlloc:   m.TotalAlloc,
		Sys:          m.Sys,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
	}
}

// Since returns the current snapshot with its cumulative counters expressed
// relative to the snapshot taken by NewMemoryCollector. HeapAlloc and Sys stay
// absolute.
func (mc *MemoryCollector) Since() MemorySnapshot {
	now := mc.Snapshot()
	now.TotalAlloc -= mc.start.TotalAlloc
	now.NumGC -= mc.start.NumGC
	now.PauseTotalNs -= mc.start.PauseTotalNs
	return now
}

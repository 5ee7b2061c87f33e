// Package alloc assigns each source unit a non-overlapping byte range of the
// destination.
//
// Two policies are provided. Static places unit i at i × unitSize and needs
// no coordination; the resulting layout is deterministic. Dynamic keeps one
// shared running total advanced atomically, so ranges are handed out in the
// order workers ask for them. Both guarantee that a complete run tiles
// [0, capacity) with no gaps and no overlaps; VerifyPartition checks this.
package alloc

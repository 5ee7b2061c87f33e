// Package source generates the fixed-size input units that are merged into
// the destination.
// Generation happens once, before the writer phase, and outside its
// concurrency domain.
package source

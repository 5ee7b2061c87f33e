// Package store owns the destination file. Create pre-sizes it with zeros and
// Open binds it to one write discipline for the whole run:
//
//   - SharedHandle: a single handle behind a mutex. Repositioning and the
//     complete transfer of a chunk form one critical section.
//   - DisjointHandle: an independent handle per worker, restricted to that
//     worker's allocation and written with positioned writes only.
//
// The mmap backend is the disjoint discipline over one shared mapping.
// Invalidate removes or renames a destination whose batch failed.
package store

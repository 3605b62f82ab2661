// Package memory implements the emulated console's physical memory pool.
//
// The pool (FCRAM) is a single host byte buffer partitioned into named
// regions (application, system, base). Each region tracks its free space
// as an ordered set of intervals and supports two allocation disciplines:
//   - LinearAllocate: contiguous blocks carved from the top of the region,
//     the way the guest's linear heap grows.
//   - HeapAllocate: first-fit over free intervals, which may satisfy a
//     request with several disjoint intervals when the region is fragmented.
//
// Offsets handed out by a region are absolute offsets into FCRAM, so a
// caller can turn any interval into a host slice via Physical.Slice.
package memory

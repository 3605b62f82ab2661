// Package vm implements a per-process virtual address space as an ordered
// table of virtual memory areas (VMAs).
//
// The table always covers the full 32-bit guest range with non-overlapping
// VMAs; unmapped space is represented by Free VMAs rather than gaps. Range
// operations (state changes, mapping, unmapping) split boundary VMAs as
// needed and re-merge free neighbors, so a map/unmap cycle leaves the
// table as it was.
//
// State-change operations are all-or-nothing: the whole range is verified
// against the expected state and minimum permission before any VMA is
// touched.
package vm

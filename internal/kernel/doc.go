// Package kernel implements the emulated guest kernel's memory-sharing
// objects.
//
// A System owns the physical memory pool and the guest processes; its
// factory methods construct SharedMemory objects, which are then mapped
// into and unmapped from process address spaces by the syscall layer.
//
// Recoverable mapping failures are returned as the sentinel errors in
// errors.go, which the syscall layer translates into guest result codes.
// Physical allocation exhaustion and post-check backing inconsistencies
// are invariant violations and panic.
package kernel

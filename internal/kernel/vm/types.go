package vm

// MemoryState tags what a virtual range is being used for, mirroring the
// guest kernel's MemoryState values for the states this subsystem touches.
type MemoryState uint8

const (
	// Free space, available for mapping.
	Free MemoryState = iota
	// Private memory owned by the process (its heap).
	Private
	// Shared memory mapped from a kernel shared-memory object.
	Shared
	// Locked memory: private memory whose backing has been re-exposed
	// through a shared-memory object and may not be touched until the
	// object dies.
	Locked
)

func (s MemoryState) String() string {
	switch s {
	case Free:
		return "free"
	case Private:
		return "private"
	case Shared:
		return "shared"
	case Locked:
		return "locked"
	}
	return "unknown"
}

// Permission is the raw access bit-set understood by the address space.
type Permission uint8

const (
	PermNone    Permission = 0
	PermRead    Permission = 1
	PermWrite   Permission = 2
	PermExecute Permission = 4

	PermReadWrite        = PermRead | PermWrite
	PermReadExecute      = PermRead | PermExecute
	PermReadWriteExecute = PermRead | PermWrite | PermExecute
)

func (p Permission) String() string {
	buf := []byte("---")
	if p&PermRead != 0 {
		buf[0] = 'r'
	}
	if p&PermWrite != 0 {
		buf[1] = 'w'
	}
	if p&PermExecute != 0 {
		buf[2] = 'x'
	}
	return string(buf)
}

// Block is one contiguous run of host bytes backing part of a virtual
// range; its length is the run's byte length.
type Block []byte

// VMA is one entry of the address-space table: a [Base, End) virtual
// range with uniform state, permission, and backing.
type VMA struct {
	Base    uint64
	End     uint64
	State   MemoryState
	Perm    Permission
	backing Block
}

// Size returns the VMA's length in bytes.
func (v VMA) Size() uint64 { return v.End - v.Base }

// VRef is a handle to a just-mapped VMA, valid until the next structural
// change of the table. It names the VMA by its base address.
type VRef uint32

package kernel

import "github.com/lunarhle/lunar/kernel/internal/kernel/vm"

// MemoryPermission is the permission encoding used by the sharing
// syscalls. The low bits are the raw access bits; DontCare is the
// negotiation marker meaning "no constraint".
type MemoryPermission uint32

const (
	PermNone             MemoryPermission = 0
	PermRead             MemoryPermission = 1
	PermWrite            MemoryPermission = 2
	PermReadWrite        MemoryPermission = 3
	PermExecute          MemoryPermission = 4
	PermReadExecute      MemoryPermission = 5
	PermWriteExecute     MemoryPermission = 6
	PermReadWriteExecute MemoryPermission = 7
	PermDontCare         MemoryPermission = 0x10000000
)

func (p MemoryPermission) String() string {
	if p == PermDontCare {
		return "dontcare"
	}
	return vm.Permission(p & PermReadWriteExecute).String()
}

// ConvertPermissions masks a negotiation-facing permission down to the
// raw read/write/execute bits understood by the address space. DontCare
// and any reserved bits are dropped.
func ConvertPermissions(p MemoryPermission) vm.Permission {
	return vm.Permission(p & PermReadWriteExecute)
}

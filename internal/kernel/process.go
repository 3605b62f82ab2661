package kernel

import (
	"github.com/lunarhle/lunar/kernel/internal/kernel/memory"
	"github.com/lunarhle/lunar/kernel/internal/kernel/vm"
)

// Process is a guest process as far as the memory subsystem is
// concerned: an address space plus usage accounting. Handle tables and
// scheduling live elsewhere.
type Process struct {
	PID  uint32
	Name string

	// MemoryUsed tracks linear-heap bytes charged to this process,
	// including anonymous shared-memory backing it created.
	MemoryUsed uint32

	AddressSpace *vm.AddressSpace
}

// CreateProcess registers a new process with an empty address space.
func (k *System) CreateProcess(name string) *Process {
	k.mu.Lock()
	defer k.mu.Unlock()
	p := &Process{
		PID:          k.nextPID,
		Name:         name,
		AddressSpace: vm.NewAddressSpace(),
	}
	k.nextPID++
	k.processes[p.PID] = p
	return p
}

// Process looks up a registered process by PID.
func (k *System) Process(pid uint32) (*Process, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	p, ok := k.processes[pid]
	return p, ok
}

// Processes returns all registered processes in PID order.
func (k *System) Processes() []*Process {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]*Process, 0, len(k.processes))
	for pid := uint32(0); len(out) < len(k.processes); pid++ {
		if p, ok := k.processes[pid]; ok {
			out = append(out, p)
		}
	}
	return out
}

// MapPrivateHeap gives p a private read-write mapping of freshly
// allocated physical memory at addr. This is the process-heap setup a
// reused-backing shared memory object is later created over.
func (k *System) MapPrivateHeap(p *Process, addr, size uint32, region memory.RegionName) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	offset, ok := k.physical.Region(region).LinearAllocate(size)
	if !ok {
		panic("kernel: out of memory allocating process heap")
	}
	k.physical.ZeroFill(offset, size)
	ref, err := p.AddressSpace.MapBackingMemory(addr, k.physical.Slice(offset, size), vm.Private)
	if err != nil {
		k.physical.Region(region).Free(offset, size)
		return err
	}
	if err := p.AddressSpace.Reprotect(ref, vm.PermReadWrite); err != nil {
		return err
	}
	p.MemoryUsed += size
	return nil
}

package vm

import (
	"errors"
	"fmt"
	"sort"
)

const addressSpaceEnd uint64 = 1 << 32

var (
	// ErrOutOfRange reports a range extending past the 32-bit space.
	ErrOutOfRange = errors.New("vm: range exceeds address space")
	// ErrBadState reports a range not uniformly in the expected
	// state/permission for a state-change operation.
	ErrBadState = errors.New("vm: range not in expected state")
	// ErrNoBacking reports a backing-block query over unmapped space.
	ErrNoBacking = errors.New("vm: range has no physical backing")
	// ErrNotFree reports a mapping target that is already occupied.
	ErrNotFree = errors.New("vm: target range is not free")
	// ErrBadRef reports a VRef that no longer names a VMA.
	ErrBadRef = errors.New("vm: stale vma reference")
)

// AddressSpace is one process's virtual memory map.
//
// It is not safe for concurrent use; the embedding kernel serializes
// access across emulated cores.
type AddressSpace struct {
	vmas []VMA // sorted by Base, covering [0, 1<<32)
}

// NewAddressSpace returns an address space that is entirely free.
func NewAddressSpace() *AddressSpace {
	return &AddressSpace{
		vmas: []VMA{{Base: 0, End: addressSpaceEnd, State: Free, Perm: PermNone}},
	}
}

// find returns the index of the VMA containing addr.
func (as *AddressSpace) find(addr uint64) int {
	return sort.Search(len(as.vmas), func(i int) bool { return as.vmas[i].End > addr })
}

// FindVMA returns a copy of the VMA containing addr.
func (as *AddressSpace) FindVMA(addr uint32) VMA {
	return as.vmas[as.find(uint64(addr))]
}

// Mappings returns a copy of the whole VMA table.
func (as *AddressSpace) Mappings() []VMA {
	out := make([]VMA, len(as.vmas))
	copy(out, as.vmas)
	return out
}

// splitAt ensures addr is a VMA boundary, splitting the containing VMA
// when it is not. Backing is divided between the halves.
func (as *AddressSpace) splitAt(addr uint64) {
	if addr >= addressSpaceEnd {
		return
	}
	i := as.find(addr)
	v := as.vmas[i]
	if v.Base == addr {
		return
	}
	left, right := v, v
	left.End = addr
	right.Base = addr
	if v.backing != nil {
		left.backing = v.backing[:addr-v.Base]
		right.backing = v.backing[addr-v.Base:]
	}
	as.vmas = append(as.vmas[:i], append([]VMA{left, right}, as.vmas[i+1:]...)...)
}

// mergeFree coalesces adjacent free VMAs.
func (as *AddressSpace) mergeFree() {
	out := as.vmas[:1]
	for _, v := range as.vmas[1:] {
		last := &out[len(out)-1]
		if last.State == Free && v.State == Free {
			last.End = v.End
			continue
		}
		out = append(out, v)
	}
	as.vmas = out
}

// checkRange verifies every byte of [addr, end) is in state with at
// least minPerm.
func (as *AddressSpace) checkRange(addr, end uint64, state MemoryState, minPerm Permission) error {
	for i := as.find(addr); i < len(as.vmas) && as.vmas[i].Base < end; i++ {
		v := as.vmas[i]
		if v.State != state || v.Perm&minPerm != minPerm {
			return fmt.Errorf("%w: %#x..%#x is %s/%s, want %s/%s+",
				ErrBadState, v.Base, v.End, v.State, v.Perm, state, minPerm)
		}
	}
	return nil
}

// ChangeMemoryState retags [addr, addr+size) from (fromState, at least
// fromPerm) to (toState, toPerm). The whole range is verified before any
// VMA is modified, so a failure leaves the table untouched.
func (as *AddressSpace) ChangeMemoryState(addr, size uint32, fromState MemoryState, fromPerm Permission, toState MemoryState, toPerm Permission) error {
	if size == 0 {
		return nil
	}
	start, end := uint64(addr), uint64(addr)+uint64(size)
	if end > addressSpaceEnd {
		return ErrOutOfRange
	}
	if err := as.checkRange(start, end, fromState, fromPerm); err != nil {
		return err
	}
	as.splitAt(start)
	as.splitAt(end)
	for i := as.find(start); i < len(as.vmas) && as.vmas[i].Base < end; i++ {
		as.vmas[i].State = toState
		as.vmas[i].Perm = toPerm
	}
	as.mergeFree()
	return nil
}

// BackingBlocksForRange returns the host segments backing [addr,
// addr+size), in ascending virtual order. The concatenated segment
// lengths equal size.
func (as *AddressSpace) BackingBlocksForRange(addr, size uint32) ([]Block, error) {
	start, end := uint64(addr), uint64(addr)+uint64(size)
	if end > addressSpaceEnd {
		return nil, ErrOutOfRange
	}
	var blocks []Block
	for i := as.find(start); i < len(as.vmas) && as.vmas[i].Base < end; i++ {
		v := as.vmas[i]
		if v.backing == nil {
			return nil, fmt.Errorf("%w: %#x..%#x", ErrNoBacking, v.Base, v.End)
		}
		lo, hi := start, end
		if v.Base > lo {
			lo = v.Base
		}
		if v.End < hi {
			hi = v.End
		}
		blocks = append(blocks, v.backing[lo-v.Base:hi-v.Base])
	}
	return blocks, nil
}

// MapBackingMemory maps the host segment backing at addr with the given
// state and no access. The target range must lie inside a single free
// VMA. Returns a reference usable with Reprotect.
func (as *AddressSpace) MapBackingMemory(addr uint32, backing Block, state MemoryState) (VRef, error) {
	start := uint64(addr)
	end := start + uint64(len(backing))
	if end > addressSpaceEnd {
		return 0, ErrOutOfRange
	}
	if v := as.vmas[as.find(start)]; v.State != Free || v.End < end {
		return 0, fmt.Errorf("%w: %#x..%#x", ErrNotFree, start, end)
	}
	as.splitAt(start)
	as.splitAt(end)
	i := as.find(start)
	as.vmas[i].State = state
	as.vmas[i].Perm = PermNone
	as.vmas[i].backing = backing
	return VRef(addr), nil
}

// Reprotect sets the raw permission of the VMA named by ref.
func (as *AddressSpace) Reprotect(ref VRef, perm Permission) error {
	i := as.find(uint64(ref))
	if as.vmas[i].Base != uint64(ref) {
		return ErrBadRef
	}
	as.vmas[i].Perm = perm
	return nil
}

// UnmapRange reverts [addr, addr+size) to free space, dropping whatever
// was there. No ownership check is performed; the caller is trusted (see
// the shared-memory object's Unmap contract).
func (as *AddressSpace) UnmapRange(addr, size uint32) error {
	if size == 0 {
		return nil
	}
	start, end := uint64(addr), uint64(addr)+uint64(size)
	if end > addressSpaceEnd {
		return ErrOutOfRange
	}
	as.splitAt(start)
	as.splitAt(end)
	for i := as.find(start); i < len(as.vmas) && as.vmas[i].Base < end; i++ {
		as.vmas[i].State = Free
		as.vmas[i].Perm = PermNone
		as.vmas[i].backing = nil
	}
	as.mergeFree()
	return nil
}

package kernel

import (
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/lunarhle/lunar/kernel/internal/kernel/memory"
	"github.com/lunarhle/lunar/kernel/internal/kernel/vm"
)

// backingKind discriminates how a shared-memory object obtained its
// physical backing. The kinds are mutually exclusive: an object either
// owns fresh physical intervals or aliases an existing process mapping,
// never both.
type backingKind uint8

const (
	// kindAnonymous: fresh linear allocation, owned by the object.
	kindAnonymous backingKind = iota
	// kindReused: an existing private mapping of the owner process,
	// re-exposed under sharing permissions. Owns no physical memory.
	kindReused
	// kindAppletHeap: fresh heap allocation on behalf of a system
	// applet, owned by the object, possibly fragmented. No owner
	// process.
	kindAppletHeap
)

func (k backingKind) String() string {
	switch k {
	case kindAnonymous:
		return "anonymous"
	case kindReused:
		return "reused"
	case kindAppletHeap:
		return "applet-heap"
	}
	return "unknown"
}

// SharedMemory is the kernel object representing a block of physical
// memory that can be mapped, with independently negotiated permissions,
// into one or more process address spaces.
//
// The object is immutable after construction except for its embedding in
// process address spaces. Ownership is reference-counted: the creator's
// handle table and every process the block is mapped into hold a
// reference, and the final Release tears the object down.
type SharedMemory struct {
	kernel *System
	id     uint32
	refs   atomic.Int32

	// owner is a non-owning back-reference to the creating process,
	// used for role comparison, usage accounting, and undoing the
	// reused-backing state flip on teardown. nil for applet objects.
	owner *Process

	size       uint32
	perms      MemoryPermission
	otherPerms MemoryPermission
	name       string

	kind backingKind
	// baseAddress is 0 for anonymous backing; otherwise the virtual
	// address the backing already lives at (reused) or the fixed heap
	// address an applet block reports (applet-heap).
	baseAddress uint32
	// linearHeapPhysOffset feeds the legacy default mapping address for
	// anonymous blocks.
	linearHeapPhysOffset uint32
	region               memory.RegionName

	// backingBlocks are the host segments realizing the block, in
	// order; their lengths sum to size.
	backingBlocks []vm.Block
	// holdingMemory are the physical intervals this object exclusively
	// owns and must free on teardown. Empty on the reused path.
	holdingMemory []memory.Interval
}

// CreateSharedMemory constructs a shared-memory object for owner.
//
// With address == 0 the backing is a fresh zero-filled linear allocation
// from the given region; exhaustion of the region is an unrecoverable
// condition and panics. With address != 0 the owner's existing private
// mapping at [address, address+size) becomes the backing: the range is
// atomically retagged private→locked, and a failure of that state change
// aborts creation with the address space's error.
func (k *System) CreateSharedMemory(owner *Process, size uint32, perms, otherPerms MemoryPermission, address uint32, region memory.RegionName, name string) (*SharedMemory, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	s := &SharedMemory{
		kernel:      k,
		owner:       owner,
		size:        size,
		perms:       perms,
		otherPerms:  otherPerms,
		name:        name,
		region:      region,
		baseAddress: address,
	}

	if address == 0 {
		offset, ok := k.physical.Region(region).LinearAllocate(size)
		if !ok {
			panic(fmt.Sprintf("kernel: not enough space in region %s to allocate shared memory", region))
		}
		k.physical.ZeroFill(offset, size)
		s.kind = kindAnonymous
		s.backingBlocks = []vm.Block{k.physical.Slice(offset, size)}
		s.holdingMemory = []memory.Interval{{Start: offset, End: offset + size}}
		s.linearHeapPhysOffset = offset
		if owner != nil {
			owner.MemoryUsed += size
		}
	} else {
		// The memory is already available and mapped in the owner.
		err := owner.AddressSpace.ChangeMemoryState(address, size,
			vm.Private, vm.PermReadWrite, vm.Locked, ConvertPermissions(perms))
		if err != nil {
			return nil, err
		}
		blocks, err := owner.AddressSpace.BackingBlocksForRange(address, size)
		if err != nil {
			// Cannot happen after the state change above verified the
			// whole range.
			panic(fmt.Sprintf("kernel: no backing for verified range: %v", err))
		}
		s.kind = kindReused
		s.backingBlocks = blocks
	}

	s.id = k.newObjectID()
	s.refs.Store(1)
	k.sharedMems[s.id] = s
	k.updateRegionMetrics()
	if k.metrics != nil {
		k.metrics.SharedMemoryCreated.Inc()
		k.metrics.SharedMemoryLive.Inc()
	}
	return s, nil
}

// CreateSharedMemoryForApplet constructs a shared-memory object on
// behalf of a system applet. The backing is heap-allocated from the
// system region and may be fragmented across several intervals; each is
// zero-filled. The object has no owner process and reports the fixed
// heap address plus offset as its base. Allocation failure panics.
func (k *System) CreateSharedMemoryForApplet(offset, size uint32, perms, otherPerms MemoryPermission, name string) *SharedMemory {
	k.mu.Lock()
	defer k.mu.Unlock()

	region := k.physical.Region(memory.RegionSystem)
	intervals := region.HeapAllocate(size)
	if intervals == nil {
		panic("kernel: not enough space in system region to allocate applet shared memory")
	}

	s := &SharedMemory{
		kernel:        k,
		owner:         nil,
		size:          size,
		perms:         perms,
		otherPerms:    otherPerms,
		name:          name,
		region:        memory.RegionSystem,
		kind:          kindAppletHeap,
		baseAddress:   memory.HeapBase + offset,
		holdingMemory: intervals,
	}
	for _, iv := range intervals {
		k.physical.ZeroFill(iv.Start, iv.Len())
		s.backingBlocks = append(s.backingBlocks, k.physical.Slice(iv.Start, iv.Len()))
	}

	s.id = k.newObjectID()
	s.refs.Store(1)
	k.sharedMems[s.id] = s
	k.updateRegionMetrics()
	if k.metrics != nil {
		k.metrics.SharedMemoryCreated.Inc()
		k.metrics.SharedMemoryLive.Inc()
	}
	return s
}

// Map maps the block into target's address space.
//
// All validation happens before any mutation; on any error no segment
// has been mapped. address == 0 asks for the default placement, which
// for anonymous blocks is the legacy linear-heap-relative address of the
// backing.
func (s *SharedMemory) Map(target *Process, address uint32, perms, otherPerms MemoryPermission) (err error) {
	defer func() { s.kernel.recordMemoryOp("map", err) }()

	effectiveOther := s.otherPerms
	if target == s.owner {
		effectiveOther = s.perms
	}

	// Automatically allocated blocks can only be mapped with
	// other permissions DontCare.
	if s.baseAddress == 0 && otherPerms != PermDontCare {
		return ErrInvalidCombination
	}

	// The mapper must not request more than the creator authorized for
	// its role.
	if uint32(perms)&^uint32(effectiveOther) != 0 {
		s.logMapError(address, "requested permissions exceed granted set")
		return ErrInvalidCombination
	}

	// Blocks with pre-existing backing require an explicit other
	// permission.
	if s.baseAddress != 0 && otherPerms == PermDontCare {
		s.logMapError(address, "other permission required for pre-backed block")
		return ErrInvalidCombination
	}

	// The creator's own access must be a subset of what the mapper
	// grants back.
	if otherPerms != PermDontCare && uint32(s.perms)&^uint32(otherPerms) != 0 {
		s.logMapError(address, "creator permissions exceed granted other permissions")
		return ErrWrongPermission
	}

	if address != 0 {
		if address < memory.HeapBase || address+s.size >= memory.SharedMemoryEnd {
			s.logMapError(address, "address outside shared memory window")
			return ErrInvalidAddress
		}
	}

	targetAddress := address
	if s.baseAddress == 0 && targetAddress == 0 {
		// Anonymous blocks land at their linear-heap-relative address
		// even on firmware with the newer shared region, so that the
		// system font stays where titles expect it.
		targetAddress = s.linearHeapPhysOffset + memory.LinearHeapBase
	}

	vma := target.AddressSpace.FindVMA(targetAddress)
	if vma.State != vm.Free || vma.End < uint64(targetAddress)+uint64(s.size) {
		s.logMapError(address, "target range already occupied")
		return ErrInvalidAddressState
	}

	intervalTarget := targetAddress
	for _, block := range s.backingBlocks {
		ref, mapErr := target.AddressSpace.MapBackingMemory(intervalTarget, block, vm.Shared)
		if mapErr != nil {
			// Placement was verified against a single free VMA above.
			panic(fmt.Sprintf("kernel: mapping verified range failed: %v", mapErr))
		}
		if repErr := target.AddressSpace.Reprotect(ref, ConvertPermissions(perms)); repErr != nil {
			panic(fmt.Sprintf("kernel: reprotect of fresh mapping failed: %v", repErr))
		}
		intervalTarget += uint32(len(block))
	}
	return nil
}

// Unmap removes size bytes at address from target's address space.
//
// Known limitation, kept on purpose: no verification is made that the
// range actually belongs to this object. The syscall layer has already
// validated the handle, and guest-visible result codes depend on the
// absence of a check here.
func (s *SharedMemory) Unmap(target *Process, address uint32) (err error) {
	defer func() { s.kernel.recordMemoryOp("unmap", err) }()
	return target.AddressSpace.UnmapRange(address, s.size)
}

// GetPointer returns the host bytes of the block starting at offset.
//
// The view is correct only when the backing is a single segment. For
// fragmented blocks (applet-created objects in particular) it still
// returns a view into the first segment and logs a warning; new callers
// should use Segments instead.
func (s *SharedMemory) GetPointer(offset uint32) []byte {
	if len(s.backingBlocks) != 1 {
		s.kernel.log.Warn("unsafe GetPointer on discontinuous shared memory",
			zap.Uint32("id", s.id), zap.String("name", s.name))
	}
	return s.backingBlocks[0][offset:]
}

// Segments returns the backing segments in order. Safe for fragmented
// blocks.
func (s *SharedMemory) Segments() []vm.Block {
	out := make([]vm.Block, len(s.backingBlocks))
	copy(out, s.backingBlocks)
	return out
}

// Retain adds a reference on behalf of a new holder.
func (s *SharedMemory) Retain() { s.refs.Add(1) }

// Release drops a reference; the final release destroys the object,
// freeing owned physical intervals and, for reused backing with a live
// owner, reverting the owner's range to private read-write — the exact
// inverse of the state flip done at creation.
func (s *SharedMemory) Release() {
	switch n := s.refs.Add(-1); {
	case n > 0:
		return
	case n < 0:
		panic("kernel: shared memory released after destruction")
	}
	s.destroy()
}

func (s *SharedMemory) destroy() {
	k := s.kernel
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, iv := range s.holdingMemory {
		k.physical.Region(s.region).Free(iv.Start, iv.Len())
	}
	if s.owner != nil {
		switch s.kind {
		case kindAnonymous:
			s.owner.MemoryUsed -= s.size
		case kindReused:
			err := s.owner.AddressSpace.ChangeMemoryState(s.baseAddress, s.size,
				vm.Locked, vm.PermNone, vm.Private, vm.PermReadWrite)
			if err != nil {
				k.log.Error("failed to restore owner range on shared memory teardown",
					zap.Uint32("id", s.id), zap.String("name", s.name), zap.Error(err))
			}
		}
	}
	delete(k.sharedMems, s.id)
	k.updateRegionMetrics()
	if k.metrics != nil {
		k.metrics.SharedMemoryLive.Dec()
	}
}

func (s *SharedMemory) logMapError(address uint32, reason string) {
	s.kernel.log.Error("cannot map shared memory",
		zap.Uint32("id", s.id),
		zap.String("address", fmt.Sprintf("%#08x", address)),
		zap.String("name", s.name),
		zap.String("reason", reason),
	)
}

// recordMemoryOp counts a map/unmap outcome. err == nil counts as ok.
func (k *System) recordMemoryOp(op string, err error) {
	if k.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidCombination):
		result = "invalid_combination"
	case errors.Is(err, ErrWrongPermission):
		result = "wrong_permission"
	case errors.Is(err, ErrInvalidAddress):
		result = "invalid_address"
	case errors.Is(err, ErrInvalidAddressState):
		result = "invalid_address_state"
	default:
		result = "error"
	}
	k.metrics.RecordMemoryOp(op, result)
}

// ID returns the kernel object id.
func (s *SharedMemory) ID() uint32 { return s.id }

// Name returns the debugging label.
func (s *SharedMemory) Name() string { return s.name }

// Size returns the block length in bytes.
func (s *SharedMemory) Size() uint32 { return s.size }

// BaseAddress returns 0 for anonymous backing, otherwise the fixed base.
func (s *SharedMemory) BaseAddress() uint32 { return s.baseAddress }

// Permissions returns the creator's permission mask.
func (s *SharedMemory) Permissions() MemoryPermission { return s.perms }

// OtherPermissions returns the mask granted to non-creator processes.
func (s *SharedMemory) OtherPermissions() MemoryPermission { return s.otherPerms }

// BackingKind describes how the block is backed: "anonymous", "reused",
// or "applet-heap".
func (s *SharedMemory) BackingKind() string { return s.kind.String() }

// Owner returns the creating process, or nil for applet objects.
func (s *SharedMemory) Owner() *Process { return s.owner }

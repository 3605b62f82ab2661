package memory

// Guest virtual address layout. The shared-memory window sits between the
// heap and the linear heap; anonymous shared blocks are still placed at
// their linear-heap-relative address on every firmware for shared font
// compatibility.
const (
	HeapBase         uint32 = 0x08000000
	HeapEnd          uint32 = 0x10000000
	SharedMemoryBase uint32 = 0x10000000
	SharedMemoryEnd  uint32 = 0x14000000
	LinearHeapBase   uint32 = 0x14000000
	LinearHeapEnd    uint32 = 0x1C000000
)

// DefaultFcramSize is the stock console's 128 MiB of physical memory.
const DefaultFcramSize uint32 = 0x08000000

// RegionName identifies one of the fixed physical memory partitions.
type RegionName string

const (
	RegionApplication RegionName = "application"
	RegionSystem      RegionName = "system"
	RegionBase        RegionName = "base"
)

// Layout describes how FCRAM is split between the named regions.
type Layout struct {
	FcramSize       uint32
	ApplicationSize uint32
	SystemSize      uint32
	BaseSize        uint32
}

// DefaultLayout returns the stock memory mode: 64 MiB application,
// 44 MiB system, 20 MiB base.
func DefaultLayout() Layout {
	return Layout{
		FcramSize:       DefaultFcramSize,
		ApplicationSize: 0x04000000,
		SystemSize:      0x02C00000,
		BaseSize:        0x01400000,
	}
}

// Valid reports whether the region sizes exactly partition FCRAM.
func (l Layout) Valid() bool {
	return l.FcramSize > 0 &&
		l.ApplicationSize+l.SystemSize+l.BaseSize == l.FcramSize
}

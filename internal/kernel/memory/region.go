package memory

import "fmt"

// Region is one named partition of FCRAM with its own free list.
type Region struct {
	Name RegionName
	Base uint32
	Size uint32

	used uint32
	free intervalSet
}

func newRegion(name RegionName, base, size uint32) *Region {
	r := &Region{Name: name, Base: base, Size: size}
	r.free.add(Interval{base, base + size})
	return r
}

// Used returns the number of allocated bytes in the region.
func (r *Region) Used() uint32 { return r.used }

// FreeBytes returns the number of unallocated bytes in the region.
func (r *Region) FreeBytes() uint32 { return r.Size - r.used }

// LinearAllocate carves a contiguous block from the highest free interval
// that can hold it. Returns the block's physical offset, or false when no
// single free interval is large enough.
func (r *Region) LinearAllocate(size uint32) (uint32, bool) {
	for i := len(r.free.ivs) - 1; i >= 0; i-- {
		iv := r.free.ivs[i]
		if iv.Len() >= size {
			alloc := Interval{iv.End - size, iv.End}
			r.free.remove(alloc)
			r.used += size
			return alloc.Start, true
		}
	}
	return 0, false
}

// HeapAllocate gathers size bytes from the free list, highest intervals
// first, splitting the request across intervals as needed. Returns the
// allocated intervals in ascending offset order, or nil when the region
// does not hold size free bytes in total.
func (r *Region) HeapAllocate(size uint32) []Interval {
	if size == 0 {
		return nil
	}
	var result []Interval
	rest := size
	for i := len(r.free.ivs) - 1; i >= 0 && rest > 0; i-- {
		iv := r.free.ivs[i]
		if iv.Len() >= rest {
			iv = Interval{iv.End - rest, iv.End}
		}
		rest -= iv.Len()
		result = append(result, iv)
	}
	if rest != 0 {
		return nil
	}
	for _, iv := range result {
		r.free.remove(iv)
	}
	r.used += size
	// Highest-first gathering produced descending intervals.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// Free returns an allocated interval to the free list.
func (r *Region) Free(offset, size uint32) {
	r.free.add(Interval{offset, offset + size})
	r.used -= size
}

// Physical owns the FCRAM buffer and its region partition.
type Physical struct {
	fcram   []byte
	regions map[RegionName]*Region
	order   []RegionName
}

// NewPhysical allocates the FCRAM buffer and partitions it per the layout,
// application region first, then system, then base.
func NewPhysical(layout Layout) (*Physical, error) {
	if !layout.Valid() {
		return nil, fmt.Errorf("memory: region sizes %#x+%#x+%#x do not partition fcram of %#x bytes",
			layout.ApplicationSize, layout.SystemSize, layout.BaseSize, layout.FcramSize)
	}
	p := &Physical{
		fcram:   make([]byte, layout.FcramSize),
		regions: make(map[RegionName]*Region),
		order:   []RegionName{RegionApplication, RegionSystem, RegionBase},
	}
	base := uint32(0)
	for _, part := range []struct {
		name RegionName
		size uint32
	}{
		{RegionApplication, layout.ApplicationSize},
		{RegionSystem, layout.SystemSize},
		{RegionBase, layout.BaseSize},
	} {
		p.regions[part.name] = newRegion(part.name, base, part.size)
		base += part.size
	}
	return p, nil
}

// Region returns the named partition. Unknown names are a caller bug.
func (p *Physical) Region(name RegionName) *Region {
	r, ok := p.regions[name]
	if !ok {
		panic(fmt.Sprintf("memory: unknown region %q", name))
	}
	return r
}

// Regions returns the partitions in physical order.
func (p *Physical) Regions() []*Region {
	out := make([]*Region, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.regions[name])
	}
	return out
}

// Slice returns the host view of [offset, offset+size) in FCRAM.
func (p *Physical) Slice(offset, size uint32) []byte {
	return p.fcram[offset : offset+size : offset+size]
}

// ZeroFill clears [offset, offset+size) in FCRAM.
func (p *Physical) ZeroFill(offset, size uint32) {
	clear(p.fcram[offset : offset+size])
}

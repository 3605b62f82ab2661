package memory

import "testing"

func testPhysical(t *testing.T) *Physical {
	t.Helper()
	p, err := NewPhysical(Layout{
		FcramSize:       0x30000,
		ApplicationSize: 0x10000,
		SystemSize:      0x10000,
		BaseSize:        0x10000,
	})
	if err != nil {
		t.Fatalf("NewPhysical failed: %v", err)
	}
	return p
}

func TestLinearAllocateFromTop(t *testing.T) {
	p := testPhysical(t)
	r := p.Region(RegionApplication)

	offset, ok := r.LinearAllocate(0x1000)
	if !ok {
		t.Fatal("LinearAllocate failed")
	}
	if offset != 0xF000 {
		t.Errorf("Expected allocation at top of region (0xF000), got %#x", offset)
	}
	if r.Used() != 0x1000 {
		t.Errorf("Expected 0x1000 used, got %#x", r.Used())
	}

	offset2, ok := r.LinearAllocate(0x1000)
	if !ok {
		t.Fatal("second LinearAllocate failed")
	}
	if offset2 != 0xE000 {
		t.Errorf("Expected second allocation below the first, got %#x", offset2)
	}
}

func TestLinearAllocateExhausted(t *testing.T) {
	p := testPhysical(t)
	r := p.Region(RegionSystem)

	if _, ok := r.LinearAllocate(0x20000); ok {
		t.Error("allocation larger than region should fail")
	}
	if _, ok := r.LinearAllocate(0x10000); !ok {
		t.Fatal("full-region allocation should succeed")
	}
	if _, ok := r.LinearAllocate(1); ok {
		t.Error("allocation from exhausted region should fail")
	}
}

func TestLinearAllocateSkipsSmallIntervals(t *testing.T) {
	p := testPhysical(t)
	r := p.Region(RegionApplication)

	// Carve the region into [0, 0xE000) and [0xF000, 0x10000) free.
	a, _ := r.LinearAllocate(0x1000) // 0xF000
	b, _ := r.LinearAllocate(0x1000) // 0xE000
	r.Free(a, 0x1000)

	// A 0x2000 request does not fit the top interval.
	offset, ok := r.LinearAllocate(0x2000)
	if !ok {
		t.Fatal("LinearAllocate failed")
	}
	if offset != 0xC000 {
		t.Errorf("Expected allocation at %#x, got %#x", 0xC000, offset)
	}
	_ = b
}

func TestHeapAllocateFragmented(t *testing.T) {
	p := testPhysical(t)
	r := p.Region(RegionApplication)

	a, _ := r.LinearAllocate(0x1000) // 0xF000
	if _, ok := r.LinearAllocate(0x1000); !ok {
		t.Fatal("setup allocation failed")
	}
	r.Free(a, 0x1000) // free list: [0, 0xE000) and [0xF000, 0x10000)

	intervals := r.HeapAllocate(0x2800)
	if len(intervals) != 2 {
		t.Fatalf("Expected 2 intervals, got %d", len(intervals))
	}
	var total uint32
	for i, iv := range intervals {
		total += iv.Len()
		if i > 0 && intervals[i-1].End > iv.Start {
			t.Error("intervals not in ascending order")
		}
	}
	if total != 0x2800 {
		t.Errorf("Expected 0x2800 bytes total, got %#x", total)
	}
	if intervals[1] != (Interval{0xF000, 0x10000}) {
		t.Errorf("Expected top interval [0xF000,0x10000), got %+v", intervals[1])
	}
}

func TestHeapAllocateUnsatisfiable(t *testing.T) {
	p := testPhysical(t)
	r := p.Region(RegionBase)

	used := r.Used()
	if got := r.HeapAllocate(0x10001); got != nil {
		t.Fatalf("oversized heap allocation should fail, got %v", got)
	}
	if r.Used() != used {
		t.Error("failed allocation must not change accounting")
	}
}

func TestFreeMergesNeighbors(t *testing.T) {
	p := testPhysical(t)
	r := p.Region(RegionApplication)

	a, _ := r.LinearAllocate(0x4000)
	b, _ := r.LinearAllocate(0x4000)
	r.Free(a, 0x4000)
	r.Free(b, 0x4000)

	if r.Used() != 0 {
		t.Errorf("Expected empty region, got %#x used", r.Used())
	}
	if _, ok := r.LinearAllocate(0x10000); !ok {
		t.Error("full-region allocation should succeed after frees merged")
	}
}

func TestDoubleFreePanics(t *testing.T) {
	p := testPhysical(t)
	r := p.Region(RegionApplication)

	offset, _ := r.LinearAllocate(0x1000)
	r.Free(offset, 0x1000)

	defer func() {
		if recover() == nil {
			t.Error("double free should panic")
		}
	}()
	r.Free(offset, 0x1000)
}

func TestSliceAndZeroFill(t *testing.T) {
	p := testPhysical(t)

	s := p.Slice(0x100, 0x10)
	for i := range s {
		s[i] = 0xAA
	}
	p.ZeroFill(0x100, 0x10)
	for i, b := range p.Slice(0x100, 0x10) {
		if b != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}
}

func TestInvalidLayoutRejected(t *testing.T) {
	_, err := NewPhysical(Layout{
		FcramSize:       0x30000,
		ApplicationSize: 0x10000,
		SystemSize:      0x10000,
		BaseSize:        0x8000,
	})
	if err == nil {
		t.Error("layout that does not partition fcram should be rejected")
	}
}

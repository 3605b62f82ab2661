package kernel

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lunarhle/lunar/kernel/internal/infrastructure/logging"
	"github.com/lunarhle/lunar/kernel/internal/infrastructure/monitoring"
	"github.com/lunarhle/lunar/kernel/internal/kernel/memory"
)

// System owns the emulated physical memory and the guest processes, and
// is the factory for kernel memory objects.
//
// System entry points are serialized with a single coarse lock on behalf
// of the emulated cores; the objects they hand out (SharedMemory,
// Process address spaces) rely on that serialization and are not
// internally reentrant-safe.
type System struct {
	mu sync.Mutex

	physical *memory.Physical
	log      *logging.Logger
	metrics  *monitoring.Metrics

	nextPID      uint32
	nextObjectID uint32
	processes    map[uint32]*Process
	sharedMems   map[uint32]*SharedMemory
}

// NewSystem builds a kernel with the given physical memory layout.
// metrics may be nil.
func NewSystem(layout memory.Layout, log *logging.Logger, metrics *monitoring.Metrics) (*System, error) {
	phys, err := memory.NewPhysical(layout)
	if err != nil {
		return nil, err
	}
	k := &System{
		physical:   phys,
		log:        log,
		metrics:    metrics,
		nextPID:    1,
		processes:  make(map[uint32]*Process),
		sharedMems: make(map[uint32]*SharedMemory),
	}
	log.Info("kernel memory system initialized",
		zap.Uint32("fcram_size", layout.FcramSize),
		zap.Uint32("application", layout.ApplicationSize),
		zap.Uint32("system", layout.SystemSize),
		zap.Uint32("base", layout.BaseSize),
	)
	return k, nil
}

// Physical returns the physical memory pool.
func (k *System) Physical() *memory.Physical { return k.physical }

// SharedMemories returns the live shared-memory objects in id order.
func (k *System) SharedMemories() []*SharedMemory {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]*SharedMemory, 0, len(k.sharedMems))
	for id := uint32(1); len(out) < len(k.sharedMems); id++ {
		if s, ok := k.sharedMems[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// newObjectID mints a kernel object id. Callers hold k.mu.
func (k *System) newObjectID() uint32 {
	k.nextObjectID++
	return k.nextObjectID
}

// updateRegionMetrics pushes region usage to the metrics collector.
// Callers hold k.mu.
func (k *System) updateRegionMetrics() {
	if k.metrics == nil {
		return
	}
	for _, r := range k.physical.Regions() {
		k.metrics.SetRegionUsed(string(r.Name), float64(r.Used()))
	}
}

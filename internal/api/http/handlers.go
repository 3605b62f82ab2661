package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lunarhle/lunar/kernel/internal/infrastructure/logging"
	"github.com/lunarhle/lunar/kernel/internal/kernel"
)

// Handlers exposes read-only kernel memory state to debugger frontends.
type Handlers struct {
	kernel  *kernel.System
	log     *logging.Logger
	session string
	started time.Time
}

// NewHandlers creates the inspection API handlers. Each server run gets
// a fresh session id so frontends can detect emulator restarts.
func NewHandlers(k *kernel.System, log *logging.Logger) *Handlers {
	return &Handlers{
		kernel:  k,
		log:     log,
		session: uuid.New().String(),
		started: time.Now(),
	}
}

// RegionInfo describes one physical memory region.
type RegionInfo struct {
	Name string `json:"name"`
	Base string `json:"base"`
	Size uint32 `json:"size"`
	Used uint32 `json:"used"`
	Free uint32 `json:"free"`
}

// SharedMemoryInfo describes one live shared-memory object.
type SharedMemoryInfo struct {
	ID          uint32  `json:"id"`
	Name        string  `json:"name"`
	Size        uint32  `json:"size"`
	Permissions string  `json:"permissions"`
	OtherPerms  string  `json:"other_permissions"`
	BackingKind string  `json:"backing_kind"`
	BaseAddress string  `json:"base_address"`
	Segments    int     `json:"segments"`
	OwnerPID    *uint32 `json:"owner_pid,omitempty"`
}

// MappingInfo describes one VMA of a process address space.
type MappingInfo struct {
	Base       string `json:"base"`
	End        string `json:"end"`
	State      string `json:"state"`
	Permission string `json:"permission"`
}

// ProcessInfo describes one process and, in snapshots, its mappings.
type ProcessInfo struct {
	PID        uint32        `json:"pid"`
	Name       string        `json:"name"`
	MemoryUsed uint32        `json:"memory_used"`
	Mappings   []MappingInfo `json:"mappings,omitempty"`
}

// Snapshot is the full dump served by the snapshot endpoint.
type Snapshot struct {
	Session       string             `json:"session"`
	UptimeSeconds float64            `json:"uptime_seconds"`
	Regions       []RegionInfo       `json:"regions"`
	Processes     []ProcessInfo      `json:"processes"`
	SharedMemory  []SharedMemoryInfo `json:"shared_memory"`
}

func hexAddr[T uint32 | uint64](v T) string {
	return fmt.Sprintf("%#08x", uint64(v))
}

// Health reports liveness and the emulation session id.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"session": h.session,
		"uptime":  time.Since(h.started).Seconds(),
	})
}

// Regions lists the physical memory regions and their usage.
func (h *Handlers) Regions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"regions": h.regionInfos(),
	})
}

// SharedMemories lists the live shared-memory objects.
func (h *Handlers) SharedMemories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"shared_memory": h.sharedMemoryInfos(),
	})
}

// ProcessMappings returns the VMA table of one process.
func (h *Handlers) ProcessMappings(c *gin.Context) {
	pid64, err := strconv.ParseUint(c.Param("pid"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid pid"})
		return
	}
	p, ok := h.kernel.Process(uint32(pid64))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no such process"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"pid":      p.PID,
		"name":     p.Name,
		"mappings": mappingInfos(p),
	})
}

// Snapshot serves the full kernel memory state. The payload grows with
// the VMA tables, so it is encoded with sonic rather than the default
// JSON path.
func (h *Handlers) Snapshot(c *gin.Context) {
	snap := Snapshot{
		Session:       h.session,
		UptimeSeconds: time.Since(h.started).Seconds(),
		Regions:       h.regionInfos(),
		SharedMemory:  h.sharedMemoryInfos(),
	}
	for _, p := range h.kernel.Processes() {
		snap.Processes = append(snap.Processes, ProcessInfo{
			PID:        p.PID,
			Name:       p.Name,
			MemoryUsed: p.MemoryUsed,
			Mappings:   mappingInfos(p),
		})
	}
	data, err := sonic.Marshal(snap)
	if err != nil {
		h.log.Error("failed to encode snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (h *Handlers) regionInfos() []RegionInfo {
	var out []RegionInfo
	for _, r := range h.kernel.Physical().Regions() {
		out = append(out, RegionInfo{
			Name: string(r.Name),
			Base: hexAddr(r.Base),
			Size: r.Size,
			Used: r.Used(),
			Free: r.FreeBytes(),
		})
	}
	return out
}

func (h *Handlers) sharedMemoryInfos() []SharedMemoryInfo {
	var out []SharedMemoryInfo
	for _, s := range h.kernel.SharedMemories() {
		info := SharedMemoryInfo{
			ID:          s.ID(),
			Name:        s.Name(),
			Size:        s.Size(),
			Permissions: s.Permissions().String(),
			OtherPerms:  s.OtherPermissions().String(),
			BackingKind: s.BackingKind(),
			BaseAddress: hexAddr(s.BaseAddress()),
			Segments:    len(s.Segments()),
		}
		if owner := s.Owner(); owner != nil {
			pid := owner.PID
			info.OwnerPID = &pid
		}
		out = append(out, info)
	}
	return out
}

func mappingInfos(p *kernel.Process) []MappingInfo {
	var out []MappingInfo
	for _, v := range p.AddressSpace.Mappings() {
		out = append(out, MappingInfo{
			Base:       hexAddr(v.Base),
			End:        hexAddr(v.End),
			State:      v.State.String(),
			Permission: v.Perm.String(),
		})
	}
	return out
}

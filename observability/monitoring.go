package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/shirou/gopsutil/process"
)

// PipelineStats aggregates counters from every stage of the stock bot
// pipeline. Counters are atomic: producers and consumers in different
// goroutines bump them without coordination.
type PipelineStats struct {
	CommandsEnqueued  atomic.Uint64
	CommandsConsumed  atomic.Uint64
	CommandsDropped   atomic.Uint64
	QuoteFailures     atomic.Uint64
	RepliesPublished  atomic.Uint64
	RepliesConsumed   atomic.Uint64
	RepliesDropped    atomic.Uint64
	MessagesPersisted atomic.Uint64
	Notifications     atomic.Uint64
	PushDropped       atomic.Uint64
}

// Snapshot is the stats payload served to operators.
type Snapshot struct {
	CommandsEnqueued  uint64 `json:"commands_enqueued"`
	CommandsConsumed  uint64 `json:"commands_consumed"`
	CommandsDropped   uint64 `json:"commands_dropped"`
	QuoteFailures     uint64 `json:"quote_failures"`
	RepliesPublished  uint64 `json:"replies_published"`
	RepliesConsumed   uint64 `json:"replies_consumed"`
	RepliesDropped    uint64 `json:"replies_dropped"`
	MessagesPersisted uint64 `json:"messages_persisted"`
	Notifications     uint64 `json:"notifications"`
	PushDropped       uint64 `json:"push_dropped"`

	Goroutines int     `json:"goroutines"`
	AllocMemMb uint64  `json:"alloc_mem_mb"`
	NumGC      uint32  `json:"num_gc"`
	RssBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	PidStatus  string  `json:"pid_status"`
}

type Monitoring struct {
	log   *slog.Logger
	stats *PipelineStats
	proc  *process.Process
}

func NewMonitoring(log *slog.Logger, stats *PipelineStats) *Monitoring {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Self process handle unavailable, system stats disabled", "err", err)
	}
	return &Monitoring{log: log, stats: stats, proc: p}
}

// Snapshot collects pipeline counters together with process-level metrics.
// System metric failures degrade to zero values rather than failing the
// stats endpoint.
func (m *Monitoring) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	snap := Snapshot{
		CommandsEnqueued:  m.stats.CommandsEnqueued.Load(),
		CommandsConsumed:  m.stats.CommandsConsumed.Load(),
		CommandsDropped:   m.stats.CommandsDropped.Load(),
		QuoteFailures:     m.stats.QuoteFailures.Load(),
		RepliesPublished:  m.stats.RepliesPublished.Load(),
		RepliesConsumed:   m.stats.RepliesConsumed.Load(),
		RepliesDropped:    m.stats.RepliesDropped.Load(),
		MessagesPersisted: m.stats.MessagesPersisted.Load(),
		Notifications:     m.stats.Notifications.Load(),
		PushDropped:       m.stats.PushDropped.Load(),
		Goroutines:        runtime.NumGoroutine(),
		AllocMemMb:        mem.Alloc / 1024 / 1024,
		NumGC:             mem.NumGC,
	}

	if m.proc != nil {
		if memInfo, err := m.proc.MemoryInfo(); err == nil {
			snap.RssBytes = memInfo.RSS
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			snap.CPUPercent = cpu
		}
		if status, err := m.proc.Status(); err == nil {
			snap.PidStatus = status
		}
	}
	return snap
}

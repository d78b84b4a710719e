package workers

import (
	"context"
	"log/slog"
	"time"

	"finchat/observability"
)

// StatsReporter periodically logs a counters snapshot. The worker binary
// has no HTTP surface, so the log line is its stats channel.
type StatsReporter struct {
	monitoring *observability.Monitoring
	interval   time.Duration
	log        *slog.Logger
}

func NewStatsReporter(monitoring *observability.Monitoring, interval time.Duration, log *slog.Logger) *StatsReporter {
	return &StatsReporter{monitoring: monitoring, interval: interval, log: log}
}

func (w *StatsReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap := w.monitoring.Snapshot()
			w.log.Info("Pipeline stats",
				"commands_consumed", snap.CommandsConsumed,
				"commands_dropped", snap.CommandsDropped,
				"quote_failures", snap.QuoteFailures,
				"replies_published", snap.RepliesPublished,
				"goroutines", snap.Goroutines,
				"alloc_mem_mb", snap.AllocMemMb,
			)
		}
	}
}

package syncer

import (
	"sync/atomic"
	"time"
)

// Stats accumulates coordinator outcomes across runs.
type Stats struct {
	totalRuns       int64
	totalReplayed   int64
	totalFailed     int64
	totalSkipped    int64
	totalDurationNs int64
	lastRunNs       int64
	lastResetNs     int64
}

func NewStats() *Stats {
	return &Stats{
		lastResetNs: time.Now().UnixNano(),
	}
}

func (m *Stats) RecordRun(r Report) {
	atomic.AddInt64(&m.totalRuns, 1)
	atomic.AddInt64(&m.totalReplayed, int64(r.Replayed()))
	atomic.AddInt64(&m.totalFailed, int64(r.Failed()))
	atomic.AddInt64(&m.totalSkipped, int64(r.Skipped()))
	atomic.AddInt64(&m.totalDurationNs, int64(r.Duration))
	atomic.StoreInt64(&m.lastRunNs, r.StartedAt.UnixNano())
}

func (m *Stats) GetStats() map[string]interface{} {
	runs := atomic.LoadInt64(&m.totalRuns)
	durationNs := atomic.LoadInt64(&m.totalDurationNs)
	lastRunNs := atomic.LoadInt64(&m.lastRunNs)
	lastResetNs := atomic.LoadInt64(&m.lastResetNs)

	avgDuration := time.Duration(0)
	if runs > 0 {
		avgDuration = time.Duration(durationNs / runs)
	}

	var lastRun interface{}
	if lastRunNs > 0 {
		lastRun = time.Unix(0, lastRunNs).UTC().Format(time.RFC3339)
	}

	return map[string]interface{}{
		"total_runs":      runs,
		"total_replayed":  atomic.LoadInt64(&m.totalReplayed),
		"total_failed":    atomic.LoadInt64(&m.totalFailed),
		"total_skipped":   atomic.LoadInt64(&m.totalSkipped),
		"avg_duration_ms": avgDuration.Milliseconds(),
		"last_run":        lastRun,
		"uptime_seconds":  time.Since(time.Unix(0, lastResetNs)).Seconds(),
	}
}

func (m *Stats) Reset() {
	atomic.StoreInt64(&m.totalRuns, 0)
	atomic.StoreInt64(&m.totalReplayed, 0)
	atomic.StoreInt64(&m.totalFailed, 0)
	atomic.StoreInt64(&m.totalSkipped, 0)
	atomic.StoreInt64(&m.totalDurationNs, 0)
	atomic.StoreInt64(&m.lastRunNs, 0)
	atomic.StoreInt64(&m.lastResetNs, time.Now().UnixNano())
}

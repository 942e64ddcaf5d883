package remote

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Stats tracks request outcomes against the ledger API. ConsecutiveFails
// drives the circuit breaker.
type Stats struct {
	TotalRequests    atomic.Int64
	SuccessfulReqs   atomic.Int64
	RejectedReqs     atomic.Int64
	FailedReqs       atomic.Int64
	TotalLatencyMs   atomic.Int64
	LastLatencyMs    atomic.Int64
	ConsecutiveFails atomic.Int32
	LastErrorTime    atomic.Int64
	LastSuccessTime  atomic.Int64

	mu             sync.RWMutex
	latencyHistory []int64
	maxHistorySize int
}

func NewStats() *Stats {
	return &Stats{
		latencyHistory: make([]int64, 0, 100),
		maxHistorySize: 100,
	}
}

// RecordSuccess counts an answered request. Rejections are answers too: the
// server is reachable.
func (m *Stats) RecordSuccess(latencyMs int64, rejected bool) {
	m.TotalRequests.Add(1)
	if rejected {
		m.RejectedReqs.Add(1)
	} else {
		m.SuccessfulReqs.Add(1)
	}
	m.TotalLatencyMs.Add(latencyMs)
	m.LastLatencyMs.Store(latencyMs)
	m.ConsecutiveFails.Store(0)
	m.LastSuccessTime.Store(time.Now().Unix())

	m.mu.Lock()
	if len(m.latencyHistory) >= m.maxHistorySize {
		m.latencyHistory = m.latencyHistory[1:]
	}
	m.latencyHistory = append(m.latencyHistory, latencyMs)
	m.mu.Unlock()
}

func (m *Stats) RecordFailure() {
	m.TotalRequests.Add(1)
	m.FailedReqs.Add(1)
	m.ConsecutiveFails.Add(1)
	m.LastErrorTime.Store(time.Now().Unix())
}

func (m *Stats) AvgLatencyMs() int64 {
	answered := m.SuccessfulReqs.Load() + m.RejectedReqs.Load()
	if answered == 0 {
		return 0
	}
	return m.TotalLatencyMs.Load() / answered
}

// Availability is the share of requests that reached the server.
func (m *Stats) Availability() float64 {
	total := m.TotalRequests.Load()
	if total == 0 {
		return 1.0
	}
	return float64(total-m.FailedReqs.Load()) / float64(total)
}

func (m *Stats) P95LatencyMs() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.latencyHistory) == 0 {
		return 0
	}

	sorted := make([]int64, len(m.latencyHistory))
	copy(sorted, m.latencyHistory)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	p95Index := int(float64(len(sorted)) * 0.95)
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}
	return sorted[p95Index]
}

type Snapshot struct {
	TotalRequests    int64   `json:"total_requests"`
	SuccessfulReqs   int64   `json:"successful_requests"`
	RejectedReqs     int64   `json:"rejected_requests"`
	FailedReqs       int64   `json:"failed_requests"`
	Availability     float64 `json:"availability"`
	AvgLatencyMs     int64   `json:"avg_latency_ms"`
	P95LatencyMs     int64   `json:"p95_latency_ms"`
	ConsecutiveFails int32   `json:"consecutive_fails"`
	CircuitOpen      bool    `json:"circuit_open"`
}

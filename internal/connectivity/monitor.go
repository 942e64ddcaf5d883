// Package connectivity watches the ledger server and reports when the device
// comes back online.
package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimasrn/denitracker/pkg/logger"
)

type State int32

const (
	StateUnknown State = iota
	StateOnline
	StateOffline
)

func (s State) String() string {
	switch s {
	case StateOnline:
		return "online"
	case StateOffline:
		return "offline"
	}
	return "unknown"
}

type Prober interface {
	Health(ctx context.Context) error
}

// Monitor probes on a ticker and calls the online listeners once per
// offline->online transition. The first successful probe after start is not
// a transition: the device was never known to be offline.
type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration

	state     atomic.Int32
	lastCheck atomic.Int64

	mu       sync.RWMutex
	onOnline []func()
	onChange []func(State)

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewMonitor(p Prober, interval, timeout time.Duration) *Monitor {
	return &Monitor{
		prober:   p,
		interval: interval,
		timeout:  timeout,
		stopCh:   make(chan struct{}),
	}
}

// OnOnline registers fn for the "became online" event. Listeners run on the
// monitor goroutine and must not block.
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

// OnChange registers fn for every state change, including the first probe.
func (m *Monitor) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

func (m *Monitor) State() State {
	return State(m.state.Load())
}

func (m *Monitor) Online() bool {
	return m.State() == StateOnline
}

// LastCheck is the time of the latest probe, zero before the first one.
func (m *Monitor) LastCheck() time.Time {
	ns := m.lastCheck.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Check probes once and returns the new state.
func (m *Monitor) Check(ctx context.Context) State {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	next := StateOnline
	if err := m.prober.Health(ctx); err != nil {
		logger.Debug("Ledger probe failed", "error", err)
		next = StateOffline
	}
	m.lastCheck.Store(time.Now().UnixNano())

	old := State(m.state.Swap(int32(next)))
	if old != next {
		logger.Info("Connectivity changed", "old_state", old.String(), "new_state", next.String())
		m.emit(old, next)
	}
	return next
}

func (m *Monitor) emit(old, next State) {
	m.mu.RLock()
	changed := append([]func(State){}, m.onChange...)
	var online []func()
	if old == StateOffline && next == StateOnline {
		online = append(online, m.onOnline...)
	}
	m.mu.RUnlock()

	for _, fn := range changed {
		fn(next)
	}
	for _, fn := range online {
		fn()
	}
}

// Start probes immediately, then on every tick until Stop.
func (m *Monitor) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.Check(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Check(ctx)
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			}
		}
	}()
}

func (m *Monitor) Stop() {
	m.once.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

// Package syncer replays writes that were queued on the device while the
// ledger server was unreachable.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/pkg/logger"
	"github.com/nimasrn/denitracker/pkg/prom"
)

var ErrSyncInProgress = errors.New("sync already in progress")

type Queues struct {
	Customers    EditableQueue[model.Customer]
	Items        EditableQueue[model.Item]
	Transactions TransactionQueue
	// Depth counts every queued write; optional.
	Depth func(ctx context.Context) (int64, error)
}

type Remotes struct {
	Customers    EditableRemote[model.Customer, model.CustomerPatch]
	Items        EditableRemote[model.Item, model.ItemPatch]
	Transactions TransactionRemote
}

// Coordinator runs one replay at a time. Customers go first and items second
// so that transactions referencing them carry server ids by the time they
// are sent.
type Coordinator struct {
	replayers []replayer
	depth     func(ctx context.Context) (int64, error)
	stats     *Stats
	now       func() time.Time

	// guard holds a token while a run is active.
	guard chan struct{}

	mu       sync.RWMutex
	last     *Report
	afterRun []func(ctx context.Context, r Report)
}

func NewCoordinator(q Queues, r Remotes) *Coordinator {
	return &Coordinator{
		replayers: []replayer{
			&editableReplayer[model.Customer, model.CustomerPatch]{name: "customer", local: q.Customers, remote: r.Customers},
			&editableReplayer[model.Item, model.ItemPatch]{name: "item", local: q.Items, remote: r.Items},
			&transactionReplayer{local: q.Transactions, remote: r.Transactions},
		},
		depth: q.Depth,
		stats: NewStats(),
		now:   time.Now,
		guard: make(chan struct{}, 1),
	}
}

// AfterRun registers fn to be called after every completed run, e.g. to
// republish entity stores whose rows were remapped.
func (c *Coordinator) AfterRun(fn func(ctx context.Context, r Report)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterRun = append(c.afterRun, fn)
}

func (c *Coordinator) Running() bool {
	return len(c.guard) > 0
}

// Run replays every queued write. Per-record failures are logged and counted
// in the report; they never abort the run. The only error is
// ErrSyncInProgress when another run holds the guard.
func (c *Coordinator) Run(ctx context.Context) (Report, error) {
	select {
	case c.guard <- struct{}{}:
	default:
		return Report{}, ErrSyncInProgress
	}
	defer func() { <-c.guard }()
	return c.run(ctx), nil
}

// RunWhenIdle waits for an active run to release the guard and then runs.
// It only fails when ctx ends first.
func (c *Coordinator) RunWhenIdle(ctx context.Context) (Report, error) {
	select {
	case c.guard <- struct{}{}:
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
	defer func() { <-c.guard }()
	return c.run(ctx), nil
}

func (c *Coordinator) run(ctx context.Context) Report {
	report := newReport(c.now())
	logger.Info("Sync started")

	for _, r := range c.replayers {
		if ctx.Err() != nil {
			logger.Warn("Sync cancelled", "error", ctx.Err())
			break
		}
		r.replay(ctx, report.tally(r.entity()), prom.IncSyncReplay)
	}

	report.Duration = time.Since(report.StartedAt)
	c.stats.RecordRun(report)
	prom.AddSyncRunDuration(report.Duration.Seconds())
	c.updateDepth(ctx)

	c.mu.Lock()
	c.last = &report
	hooks := append([]func(context.Context, Report){}, c.afterRun...)
	c.mu.Unlock()

	logger.Info("Sync finished",
		"replayed", report.Replayed(),
		"failed", report.Failed(),
		"skipped", report.Skipped(),
		"duration", report.Duration.String(),
	)

	for _, fn := range hooks {
		fn(ctx, report)
	}
	return report
}

func (c *Coordinator) updateDepth(ctx context.Context) {
	if c.depth == nil {
		return
	}
	n, err := c.depth(ctx)
	if err != nil {
		logger.Error("Failed to count queued writes", "error", err)
		return
	}
	prom.SetSyncQueueDepth(n)
}

// QueueDepth counts writes still waiting for the server.
func (c *Coordinator) QueueDepth(ctx context.Context) (int64, error) {
	if c.depth == nil {
		return 0, nil
	}
	return c.depth(ctx)
}

// LastReport is the outcome of the most recent completed run.
func (c *Coordinator) LastReport() (Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return Report{}, false
	}
	return *c.last, true
}

func (c *Coordinator) Stats() map[string]interface{} {
	return c.stats.GetStats()
}

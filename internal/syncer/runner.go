package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/denitracker/pkg/logger"
	"github.com/nimasrn/denitracker/pkg/worker"
)

// Runner executes coordinator runs on a single background worker so that
// a trigger never blocks its caller. Triggers arriving while one is already
// waiting are folded into it; a trigger that meets a manual run waits for
// it to finish and then runs.
type Runner struct {
	coordinator *Coordinator
	workers     *worker.WorkerManager
	timeout     time.Duration
}

func NewRunner(c *Coordinator, timeout time.Duration) *Runner {
	r := &Runner{
		coordinator: c,
		workers:     worker.NewWorkerManager(1, 1, nil),
		timeout:     timeout,
	}
	r.workers.SetWorker(r.handle)
	r.workers.SetErrorHandler(func(err error) {
		logger.Error("Sync worker crashed", "error", err)
	})
	return r
}

// Start blocks until Stop is called.
func (r *Runner) Start() error {
	return r.workers.Start()
}

func (r *Runner) Stop() {
	r.workers.Exit()
}

// Trigger asks for a run and reports whether it was scheduled. A false
// return means a run is already waiting and will cover this request.
func (r *Runner) Trigger(reason string) bool {
	if r.workers.TryEnqueue(reason) {
		logger.Debug("Sync scheduled", "reason", reason)
		return true
	}
	logger.Debug("Sync already scheduled", "reason", reason)
	return false
}

// Pending reports whether a triggered run is waiting for the worker.
func (r *Runner) Pending() bool {
	return r.workers.Counters().Waiting > 0
}

// Crashes counts runs that panicked.
func (r *Runner) Crashes() int64 {
	return r.workers.Counters().Panicked
}

func (r *Runner) handle(_ int, job interface{}) {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	_, err := r.coordinator.Run(ctx)
	if errors.Is(err, ErrSyncInProgress) {
		// writes queued during the active run still need this trigger
		logger.Debug("Sync waits for the active run", "reason", job)
		_, err = r.coordinator.RunWhenIdle(ctx)
	}
	if err != nil {
		logger.Warn("Sync run failed", "reason", job, "error", err)
	}
}

package worker

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"github.com/nimasrn/denitracker/pkg/logger"
)

var ErrTerminated = errors.New("workers terminated")

type WorkerHandler = func(workerIndex int, job interface{})

// Counters is a point-in-time view of a pool's job accounting.
type Counters struct {
	Waiting   int64
	Completed int64
	Panicked  int64
}

// WorkerManager fans jobs from one buffered channel out to a fixed set of
// goroutines. Workers run until Exit; the job channel is left open because a
// caller may share it.
type WorkerManager struct {
	jobs       chan interface{}
	size       int
	do         WorkerHandler
	errHandler func(err error)

	done     chan struct{}
	exitOnce sync.Once
	wg       sync.WaitGroup

	completed atomic.Int64
	panicked  atomic.Int64
}

func NewWorkerManager(bufferSize, numberOfWorkers int, jobChannel chan interface{}) *WorkerManager {
	if jobChannel == nil {
		jobChannel = make(chan interface{}, bufferSize)
	}
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	return &WorkerManager{
		jobs: jobChannel,
		size: numberOfWorkers,
		done: make(chan struct{}),
		errHandler: func(err error) {
			logger.Error("worker job failed", "error", err)
		},
	}
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// SetErrorHandler receives panics recovered from the worker handler.
func (w *WorkerManager) SetErrorHandler(h func(err error)) {
	w.errHandler = h
}

// Enqueue blocks while the buffer is full. It gives up once the pool exits.
func (w *WorkerManager) Enqueue(val interface{}) bool {
	select {
	case w.jobs <- val:
		return true
	case <-w.done:
		return false
	}
}

// TryEnqueue reports whether the job fit in the buffer without waiting.
func (w *WorkerManager) TryEnqueue(val interface{}) bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case w.jobs <- val:
		return true
	default:
		return false
	}
}

func (w *WorkerManager) Counters() Counters {
	return Counters{
		Waiting:   int64(len(w.jobs)),
		Completed: w.completed.Load(),
		Panicked:  w.panicked.Load(),
	}
}

// Start runs the pool and blocks until Exit.
func (w *WorkerManager) Start() error {
	w.wg.Add(w.size)
	for i := 0; i < w.size; i++ {
		go w.loop(i)
	}
	w.wg.Wait()
	return ErrTerminated
}

func (w *WorkerManager) loop(index int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case job := <-w.jobs:
			w.run(index, job)
		}
	}
}

func (w *WorkerManager) run(index int, job interface{}) {
	defer func() {
		if r := recover(); r != nil {
			w.panicked.Add(1)
			w.errHandler(fmt.Errorf("worker %d panicked: %v", index, r))
		}
	}()
	w.do(index, job)
	w.completed.Add(1)
}

// ExitOnSignal stops the pool when any of sigs arrives.
func (w *WorkerManager) ExitOnSignal(sigs ...os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		select {
		case s := <-ch:
			logger.Info("worker pool stopping on signal", "signal", s.String())
			w.Exit()
		case <-w.done:
		}
	}()
}

// Exit stops every worker after its current job. Safe to call repeatedly.
func (w *WorkerManager) Exit() {
	w.exitOnce.Do(func() {
		logger.Debug("worker pool exiting", "workers", w.size)
		close(w.done)
	})
}

// Package entitystore owns the in-memory view of each entity collection and
// decides, per write, what goes to the server and what goes to the device.
package entitystore

import (
	"context"
	"slices"
	"sync"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/internal/remote"
	"github.com/nimasrn/denitracker/pkg/logger"
)

type Record[T any] interface {
	Key() int64
	WithKey(int64) T
	Queued(model.PendingOp) T
	Confirmed() T
	IsPending() bool
}

// Collection is the local mirror of one entity.
type Collection[T Record[T]] interface {
	ToArray(ctx context.Context) ([]T, error)
	Add(ctx context.Context, rec T) (T, error)
	Put(ctx context.Context, rec T) error
	Reconcile(ctx context.Context, remote []T) error
}

// Endpoint is the server side of one entity.
type Endpoint[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, rec T) (T, error)
}

type LoadPolicy int

const (
	// RemoteFirst lists from the server and falls back to the mirror.
	RemoteFirst LoadPolicy = iota
	// LocalFirst publishes the mirror at once, then merges the server list.
	LocalFirst
)

type WritePolicy int

const (
	// WriteRemote tries the server first and mirrors the answer locally.
	WriteRemote WritePolicy = iota
	// WriteLocal only queues locally; the sync coordinator delivers.
	WriteLocal
)

type Options[T any] struct {
	Name  string
	Load  LoadPolicy
	Write WritePolicy
	// Defer reports records the server cannot accept yet, e.g. ones that
	// reference a placeholder id. They are queued without a remote attempt.
	Defer func(T) bool
}

// Store holds the collection the UI reads. The slice is replaced, never
// edited in place, so a reader sees either the old or the new state.
type Store[T Record[T]] struct {
	opts   Options[T]
	local  Collection[T]
	remote Endpoint[T]
	ids    *PlaceholderIDs

	// publish pairs every local write with its in-memory update, and every
	// mirror read with the set that follows it, so a refresh cannot
	// publish a read that misses a write.
	publish sync.Mutex

	mu    sync.RWMutex
	items []T
}

func NewStore[T Record[T]](local Collection[T], remote Endpoint[T], ids *PlaceholderIDs, opts Options[T]) *Store[T] {
	return &Store[T]{
		opts:   opts,
		local:  local,
		remote: remote,
		ids:    ids,
		items:  []T{},
	}
}

func (s *Store[T]) Name() string {
	return s.opts.Name
}

// All returns a snapshot of the collection.
func (s *Store[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *Store[T]) Find(id int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.items {
		if rec.Key() == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

func (s *Store[T]) set(items []T) {
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// upsert replaces the record keyed id (or appends rec).
func (s *Store[T]) upsert(id int64, rec T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]T, 0, len(s.items)+1)
	replaced := false
	for _, cur := range s.items {
		if cur.Key() == id {
			next = append(next, rec)
			replaced = true
			continue
		}
		next = append(next, cur)
	}
	if !replaced {
		next = append(next, rec)
	}
	s.items = next
}

func (s *Store[T]) remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.DeleteFunc(slices.Clone(s.items), func(rec T) bool { return rec.Key() == id })
}

func (s *Store[T]) localErr(op string, err error) error {
	logger.Error("Local store failure", "entity", s.opts.Name, "op", op, "error", err)
	return &LocalStoreError{Entity: s.opts.Name, Op: op, Err: err}
}

// Refresh republishes the local mirror, e.g. after a sync run rewrote it.
func (s *Store[T]) Refresh(ctx context.Context) error {
	s.publish.Lock()
	defer s.publish.Unlock()
	return s.refresh(ctx)
}

func (s *Store[T]) refresh(ctx context.Context) error {
	rows, err := s.local.ToArray(ctx)
	if err != nil {
		return s.localErr("read", err)
	}
	s.set(rows)
	return nil
}

// Load fills the collection. Failing to reach the server is not an error:
// the mirror is served as is.
func (s *Store[T]) Load(ctx context.Context) error {
	if s.opts.Load == LocalFirst {
		if err := s.Refresh(ctx); err != nil {
			return err
		}
	}

	rows, err := s.remote.List(ctx)
	if err != nil {
		logger.Debug("Remote list failed, serving local mirror", "entity", s.opts.Name, "error", err)
		if s.opts.Load == LocalFirst {
			return nil
		}
		return s.Refresh(ctx)
	}

	for i := range rows {
		rows[i] = rows[i].Confirmed()
	}
	s.publish.Lock()
	defer s.publish.Unlock()
	if err := s.local.Reconcile(ctx, rows); err != nil {
		return s.localErr("reconcile", err)
	}
	return s.refresh(ctx)
}

// Create writes rec to the server and mirrors the answer. When the server
// cannot be reached the record is stored under a placeholder key, queued,
// and returned without error. A rejection is queued too but returned.
func (s *Store[T]) Create(ctx context.Context, rec T) (T, error) {
	if s.opts.Write == WriteLocal || (s.opts.Defer != nil && s.opts.Defer(rec)) {
		return s.queueCreate(ctx, rec)
	}

	saved, err := s.remote.Create(ctx, rec)
	if err == nil {
		return s.mirror(ctx, "create", saved.Key(), saved.Confirmed())
	}

	queued, lerr := s.queueCreate(ctx, rec)
	if lerr != nil {
		return queued, lerr
	}
	return queued, s.remoteFailure("create", err)
}

// mirror stores a record the server accepted and publishes it under id.
func (s *Store[T]) mirror(ctx context.Context, op string, id int64, saved T) (T, error) {
	s.publish.Lock()
	defer s.publish.Unlock()
	if err := s.local.Put(ctx, saved); err != nil {
		var zero T
		return zero, s.localErr(op, err)
	}
	s.upsert(id, saved)
	return saved, nil
}

func (s *Store[T]) queueCreate(ctx context.Context, rec T) (T, error) {
	rec = rec.WithKey(s.ids.Next()).Queued(model.PendingCreate)
	s.publish.Lock()
	defer s.publish.Unlock()
	added, err := s.local.Add(ctx, rec)
	if err != nil {
		var zero T
		return zero, s.localErr("create", err)
	}
	s.upsert(added.Key(), added)
	return added, nil
}

// remoteFailure absorbs unreachable and passes everything else up.
func (s *Store[T]) remoteFailure(op string, err error) error {
	if remote.IsUnreachable(err) {
		logger.Debug("Remote unreachable, write queued", "entity", s.opts.Name, "op", op)
		return nil
	}
	logger.Warn("Remote rejected write, kept locally", "entity", s.opts.Name, "op", op, "error", err)
	return err
}

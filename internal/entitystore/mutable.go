package entitystore

import (
	"context"
	"errors"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/internal/remote"
)

type MutableCollection[T Record[T]] interface {
	Collection[T]
	Get(ctx context.Context, id int64) (T, error)
	// Resolve is Get that also follows a remapped placeholder.
	Resolve(ctx context.Context, id int64) (T, error)
	Delete(ctx context.Context, id int64) error
	// Discard deletes offline and remembers the delete for replay.
	Discard(ctx context.Context, id int64) error
}

type MutableEndpoint[T any, P any] interface {
	Endpoint[T]
	Update(ctx context.Context, id int64, patch P) (T, error)
	Delete(ctx context.Context, id int64) error
}

type Patch[T any] interface {
	Validate() error
	Apply(T) T
}

// Editable records can express their whole state as a patch, which is how
// a queued update is replayed.
type Editable[T any, P any] interface {
	Record[T]
	Patch() P
}

// MutableStore adds update and delete with the same dual-write rules as
// Create.
type MutableStore[T Editable[T, P], P Patch[T]] struct {
	*Store[T]
	local  MutableCollection[T]
	remote MutableEndpoint[T, P]
}

func NewMutableStore[T Editable[T, P], P Patch[T]](local MutableCollection[T], remote MutableEndpoint[T, P], ids *PlaceholderIDs, opts Options[T]) *MutableStore[T, P] {
	return &MutableStore[T, P]{
		Store:  NewStore[T](local, remote, ids, opts),
		local:  local,
		remote: remote,
	}
}

func (s *MutableStore[T, P]) current(ctx context.Context, id int64) (T, error) {
	rec, err := s.local.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return rec, ErrNotFound
		}
		return rec, s.localErr("read", err)
	}
	return rec, nil
}

// Resolve reads the record from the mirror. A placeholder id a sync run has
// already swapped for a server id still finds the record.
func (s *MutableStore[T, P]) Resolve(ctx context.Context, id int64) (T, error) {
	rec, err := s.local.Resolve(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return rec, ErrNotFound
		}
		return rec, s.localErr("read", err)
	}
	return rec, nil
}

func (s *MutableStore[T, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	var zero T
	if err := patch.Validate(); err != nil {
		return zero, err
	}
	cur, err := s.current(ctx, id)
	if err != nil {
		return zero, err
	}

	// the server has never seen a placeholder row; its queued create will
	// carry the new fields
	if model.IsPlaceholder(id) || s.opts.Write == WriteLocal {
		return s.queueUpdate(ctx, cur, patch)
	}

	// an edit still queued from an earlier offline session goes out with
	// this one
	send := patch
	if cur.IsPending() {
		send = patch.Apply(cur).Patch()
	}

	saved, err := s.remote.Update(ctx, id, send)
	if err == nil {
		return s.mirror(ctx, "update", id, saved.Confirmed())
	}

	queued, lerr := s.queueUpdate(ctx, cur, patch)
	if lerr != nil {
		return queued, lerr
	}
	return queued, s.remoteFailure("update", err)
}

func (s *MutableStore[T, P]) queueUpdate(ctx context.Context, cur T, patch P) (T, error) {
	next := patch.Apply(cur).Queued(model.PendingUpdate)
	s.publish.Lock()
	defer s.publish.Unlock()
	if err := s.local.Put(ctx, next); err != nil {
		var zero T
		return zero, s.localErr("update", err)
	}
	s.upsert(next.Key(), next)
	return next, nil
}

// Delete removes the record. Offline, server-known rows are tombstoned and
// the delete is replayed by the sync coordinator.
func (s *MutableStore[T, P]) Delete(ctx context.Context, id int64) error {
	if _, err := s.current(ctx, id); err != nil {
		return err
	}

	if model.IsPlaceholder(id) || s.opts.Write == WriteLocal {
		return s.discard(ctx, id)
	}

	err := s.remote.Delete(ctx, id)
	if err == nil || remote.IsNotFound(err) {
		s.publish.Lock()
		defer s.publish.Unlock()
		if err := s.local.Delete(ctx, id); err != nil {
			return s.localErr("delete", err)
		}
		s.remove(id)
		return nil
	}

	if lerr := s.discard(ctx, id); lerr != nil {
		return lerr
	}
	return s.remoteFailure("delete", err)
}

func (s *MutableStore[T, P]) discard(ctx context.Context, id int64) error {
	s.publish.Lock()
	defer s.publish.Unlock()
	if err := s.local.Discard(ctx, id); err != nil {
		return s.localErr("delete", err)
	}
	s.remove(id)
	return nil
}

package syncer

import (
	"context"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/internal/remote"
	"github.com/nimasrn/denitracker/pkg/logger"
)

type editable[T any, P any] interface {
	Key() int64
	Confirmed() T
	Patch() P
}

// EditableQueue is the local side of a collection with queued creates,
// updates and deletes.
type EditableQueue[T any] interface {
	Pending(ctx context.Context) ([]T, error)
	Tombstones(ctx context.Context) ([]int64, error)
	Put(ctx context.Context, rec T) error
	Remap(ctx context.Context, oldID int64, rec T) error
	Forget(ctx context.Context, id int64) error
}

type EditableRemote[T any, P any] interface {
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id int64, patch P) (T, error)
	Delete(ctx context.Context, id int64) error
}

type TransactionQueue interface {
	// Rebind moves queued rows off placeholders that were remapped since
	// they were written.
	Rebind(ctx context.Context) (int64, error)
	Unsynced(ctx context.Context) ([]model.Transaction, error)
	MarkSynced(ctx context.Context, id int64) error
}

type TransactionRemote interface {
	Create(ctx context.Context, t model.Transaction) (model.Transaction, error)
}

type replayer interface {
	entity() string
	replay(ctx context.Context, tally *Tally, observe func(entity, outcome string))
}

type editableReplayer[T editable[T, P], P any] struct {
	name   string
	local  EditableQueue[T]
	remote EditableRemote[T, P]
}

func (r *editableReplayer[T, P]) entity() string { return r.name }

// replay sends queued creates and updates oldest first, then queued deletes.
// A create that went through gets its placeholder key swapped for the server
// key together with every row that references it.
func (r *editableReplayer[T, P]) replay(ctx context.Context, tally *Tally, observe func(string, string)) {
	pending, err := r.local.Pending(ctx)
	if err != nil {
		logger.Error("Failed to read queued writes", "entity", r.name, "error", err)
		return
	}

	for _, rec := range pending {
		if ctx.Err() != nil {
			return
		}
		id := rec.Key()

		if model.IsPlaceholder(id) {
			saved, err := r.remote.Create(ctx, rec)
			if err != nil {
				r.failed(tally, observe, "create", id, err)
				continue
			}
			if err := r.local.Remap(ctx, id, saved.Confirmed()); err != nil {
				logger.Error("Failed to remap placeholder id", "entity", r.name, "placeholder", id, "server_id", saved.Key(), "error", err)
				r.count(tally, observe, OutcomeFailed)
				continue
			}
			logger.Debug("Replayed create", "entity", r.name, "placeholder", id, "server_id", saved.Key())
			r.count(tally, observe, OutcomeReplayed)
			continue
		}

		saved, err := r.remote.Update(ctx, id, rec.Patch())
		if err != nil {
			r.failed(tally, observe, "update", id, err)
			continue
		}
		if err := r.local.Put(ctx, saved.Confirmed()); err != nil {
			logger.Error("Failed to confirm replayed update", "entity", r.name, "id", id, "error", err)
			r.count(tally, observe, OutcomeFailed)
			continue
		}
		r.count(tally, observe, OutcomeReplayed)
	}

	deleted, err := r.local.Tombstones(ctx)
	if err != nil {
		logger.Error("Failed to read queued deletes", "entity", r.name, "error", err)
		return
	}
	for _, id := range deleted {
		if ctx.Err() != nil {
			return
		}
		if err := r.remote.Delete(ctx, id); err != nil && !remote.IsNotFound(err) {
			r.failed(tally, observe, "delete", id, err)
			continue
		}
		if err := r.local.Forget(ctx, id); err != nil {
			logger.Error("Failed to clear tombstone", "entity", r.name, "id", id, "error", err)
			r.count(tally, observe, OutcomeFailed)
			continue
		}
		r.count(tally, observe, OutcomeReplayed)
	}
}

func (r *editableReplayer[T, P]) failed(tally *Tally, observe func(string, string), op string, id int64, err error) {
	logger.Warn("Replay failed, left queued", "entity", r.name, "op", op, "id", id, "error", err)
	r.count(tally, observe, OutcomeFailed)
}

func (r *editableReplayer[T, P]) count(tally *Tally, observe func(string, string), outcome string) {
	switch outcome {
	case OutcomeReplayed:
		tally.Replayed++
	case OutcomeFailed:
		tally.Failed++
	case OutcomeSkipped:
		tally.Skipped++
	}
	observe(r.name, outcome)
}

type transactionReplayer struct {
	local  TransactionQueue
	remote TransactionRemote
}

func (r *transactionReplayer) entity() string { return "transaction" }

// replay re-creates unsynced transactions in insertion order. Success flips
// synced and nothing else; a failure leaves the row for the next run.
func (r *transactionReplayer) replay(ctx context.Context, tally *Tally, observe func(string, string)) {
	if n, err := r.local.Rebind(ctx); err != nil {
		logger.Error("Failed to rebind remapped placeholders", "error", err)
	} else if n > 0 {
		logger.Debug("Rebound transactions to server ids", "rows", n)
	}

	queue, err := r.local.Unsynced(ctx)
	if err != nil {
		logger.Error("Failed to read unsynced transactions", "error", err)
		return
	}

	for _, t := range queue {
		if ctx.Err() != nil {
			return
		}
		if t.ReferencesPlaceholder() {
			logger.Debug("Transaction waits for its customer or item", "id", t.ID, "customer_id", t.CustomerID)
			tally.Skipped++
			observe("transaction", OutcomeSkipped)
			continue
		}

		if _, err := r.remote.Create(ctx, t); err != nil {
			logger.Warn("Replay failed, left queued", "entity", "transaction", "id", t.ID, "client_ref", t.ClientRef, "error", err)
			tally.Failed++
			observe("transaction", OutcomeFailed)
			continue
		}
		if err := r.local.MarkSynced(ctx, t.ID); err != nil {
			// the server has it; the next run replays it under the same
			// idempotency key
			logger.Error("Failed to mark transaction synced", "id", t.ID, "error", err)
			tally.Failed++
			observe("transaction", OutcomeFailed)
			continue
		}
		tally.Replayed++
		observe("transaction", OutcomeReplayed)
	}
}

package syncer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nimasrn/denitracker/internal/localstore"
	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/internal/remote"
	"github.com/nimasrn/denitracker/pkg/localdb"
	"github.com/stretchr/testify/require"
)

var errOffline = errors.Join(remote.ErrUnreachable, errors.New("dial tcp: connection refused"))

func setupLocal(t *testing.T) *localstore.Store {
	t.Helper()
	db, err := localdb.Open(localdb.Config{Path: filepath.Join(t.TempDir(), "local.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, localdb.Migrate(db))
	return localstore.New(db)
}

type keyed[T any, P any] interface {
	editable[T, P]
	WithKey(int64) T
}

// fakeResource records calls in order and assigns server ids from 100.
type fakeResource[T keyed[T, P], P any] struct {
	mu     sync.Mutex
	nextID int64
	fail   map[string]error
	calls  []string
	apply  func(id int64, p P) T
}

func newFakeResource[T keyed[T, P], P any](apply func(id int64, p P) T) *fakeResource[T, P] {
	return &fakeResource[T, P]{nextID: 100, fail: map[string]error{}, apply: apply}
}

func (f *fakeResource[T, P]) Create(ctx context.Context, rec T) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	var zero T
	if err := f.fail["create"]; err != nil {
		return zero, err
	}
	f.nextID++
	return rec.WithKey(f.nextID), nil
}

func (f *fakeResource[T, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update")
	var zero T
	if err := f.fail["update"]; err != nil {
		return zero, err
	}
	return f.apply(id, patch), nil
}

func (f *fakeResource[T, P]) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete")
	return f.fail["delete"]
}

// fakeTransactions fails the create of any transaction whose client_ref is
// listed in fail.
type fakeTransactions struct {
	mu    sync.Mutex
	fail  map[string]error
	order []string
}

func (f *fakeTransactions) Create(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, t.ClientRef)
	if err := f.fail[t.ClientRef]; err != nil {
		return model.Transaction{}, err
	}
	t.Synced = true
	return t, nil
}

func newCoordinator(ls *localstore.Store, customers *fakeResource[model.Customer, model.CustomerPatch], items *fakeResource[model.Item, model.ItemPatch], txs *fakeTransactions) *Coordinator {
	return NewCoordinator(Queues{
		Customers:    ls.Customers,
		Items:        ls.Items,
		Transactions: ls.Transactions,
		Depth:        ls.QueueDepth,
	}, Remotes{
		Customers:    customers,
		Items:        items,
		Transactions: txs,
	})
}

func customerResource() *fakeResource[model.Customer, model.CustomerPatch] {
	return newFakeResource(func(id int64, p model.CustomerPatch) model.Customer {
		return p.Apply(model.Customer{ID: id})
	})
}

func itemResource() *fakeResource[model.Item, model.ItemPatch] {
	return newFakeResource(func(id int64, p model.ItemPatch) model.Item {
		return p.Apply(model.Item{ID: id})
	})
}

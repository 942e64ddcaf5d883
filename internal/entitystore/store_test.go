package entitystore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedCollection holds the first ToArray after it read the mirror until
// release is closed.
type gatedCollection struct {
	Collection[model.Transaction]
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (g *gatedCollection) ToArray(ctx context.Context) ([]model.Transaction, error) {
	rows, err := g.Collection.ToArray(ctx)
	g.once.Do(func() {
		close(g.read)
		<-g.release
	})
	return rows, err
}

type createResult struct {
	tx  model.Transaction
	err error
}

func TestStore_RefreshKeepsConcurrentCreate(t *testing.T) {
	ls := setupLocal(t)
	ctx := context.Background()
	gate := &gatedCollection{
		Collection: ls.Transactions,
		read:       make(chan struct{}),
		release:    make(chan struct{}),
	}
	store := NewTransactionStore(gate, &fakeTransactions{}, NewPlaceholderIDs(0), knownCustomers, priceMap{}, WriteLocal)

	refreshed := make(chan error, 1)
	go func() { refreshed <- store.Refresh(ctx) }()
	<-gate.read

	created := make(chan createResult, 1)
	go func() {
		tx, err := store.AddPayment(ctx, 1, decimal.NewFromInt(10))
		created <- createResult{tx, err}
	}()

	select {
	case <-created:
		t.Fatal("create published while a refresh was between read and set")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	require.NoError(t, <-refreshed)
	res := <-created
	require.NoError(t, res.err)

	_, ok := store.Find(res.tx.ID)
	assert.True(t, ok, "the create survives the refresh")

	rows, err := ls.Transactions.ToArray(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, rows, store.All())
}

func TestStore_ConcurrentWritesAndRefreshStayMirrored(t *testing.T) {
	ls := setupLocal(t)
	ctx := context.Background()
	store := NewTransactionStore(ls.Transactions, &fakeTransactions{}, NewPlaceholderIDs(0), knownCustomers, priceMap{}, WriteLocal)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := store.AddPayment(ctx, 1, decimal.NewFromInt(1))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Refresh(ctx))
		}()
	}
	wg.Wait()

	assert.Len(t, store.All(), 10)
	rows, err := ls.Transactions.ToArray(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, rows, store.All())
}

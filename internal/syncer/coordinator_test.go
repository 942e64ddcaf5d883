package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nimasrn/denitracker/internal/localstore"
	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/internal/remote"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queueTx(t *testing.T, ctx context.Context, add func(context.Context, model.Transaction) (model.Transaction, error), tx model.Transaction) model.Transaction {
	t.Helper()
	out, err := add(ctx, tx)
	require.NoError(t, err)
	return out
}

func TestCoordinator_ReplaysTransactionsInOrder(t *testing.T) {
	ctx := context.Background()
	ls := setupLocal(t)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	a := queueTx(t, ctx, ls.Transactions.Add, model.Transaction{
		ID: -3, ClientRef: "A", CustomerID: 7, Type: model.TransactionDebt, TotalAmount: decimal.NewFromInt(100), Date: at,
		Items: []model.TransactionItem{{ItemID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(50)}},
	})
	b := queueTx(t, ctx, ls.Transactions.Add, model.Transaction{
		ID: -2, ClientRef: "B", CustomerID: 7, Type: model.TransactionPayment, TotalAmount: decimal.NewFromInt(40), Date: at,
	})
	c := queueTx(t, ctx, ls.Transactions.Add, model.Transaction{
		ID: -1, ClientRef: "C", CustomerID: 7, Type: model.TransactionDebt, TotalAmount: decimal.NewFromInt(50), Date: at,
		Items: []model.TransactionItem{{ItemID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(50)}},
	})

	txs := &fakeTransactions{fail: map[string]error{"B": &remote.RejectedError{StatusCode: 400}}}
	coord := newCoordinator(ls, customerResource(), itemResource(), txs)

	report, err := coord.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, txs.order)
	assert.Equal(t, 2, report.Entities["transaction"].Replayed)
	assert.Equal(t, 1, report.Entities["transaction"].Failed)

	for _, want := range []struct {
		id     int64
		synced bool
	}{{a.ID, true}, {b.ID, false}, {c.ID, true}} {
		got, err := ls.Transactions.Get(ctx, want.id)
		require.NoError(t, err)
		assert.Equal(t, want.synced, got.Synced, "transaction %d", want.id)
	}

	unchanged, err := ls.Transactions.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, unchanged.TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.Len(t, unchanged.Items, 1)

	t.Run("next run retries only the stuck row", func(t *testing.T) {
		txs.fail = nil
		txs.order = nil
		_, err := coord.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, txs.order)

		depth, err := coord.QueueDepth(ctx)
		require.NoError(t, err)
		assert.Zero(t, depth)
	})
}

func TestCoordinator_RemapsPlaceholderBeforeTransactions(t *testing.T) {
	ctx := context.Background()
	ls := setupLocal(t)

	_, err := ls.Customers.Add(ctx, model.Customer{ID: -10, Name: "Asha"}.Queued(model.PendingCreate))
	require.NoError(t, err)
	queueTx(t, ctx, ls.Transactions.Add, model.Transaction{
		ID: -9, ClientRef: "pay", CustomerID: -10, Type: model.TransactionPayment,
		TotalAmount: decimal.NewFromInt(40), Date: time.Now().UTC(),
	})

	customers := customerResource()
	txs := &fakeTransactions{}
	coord := newCoordinator(ls, customers, itemResource(), txs)

	report, err := coord.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Entities["customer"].Replayed)
	assert.Equal(t, 1, report.Entities["transaction"].Replayed)

	_, err = ls.Customers.Get(ctx, -10)
	assert.ErrorIs(t, err, localstore.ErrNotFound)
	asha, err := ls.Customers.Get(ctx, 101)
	require.NoError(t, err)
	assert.False(t, asha.IsPending())

	tx, err := ls.Transactions.Get(ctx, -9)
	require.NoError(t, err)
	assert.Equal(t, int64(101), tx.CustomerID)
	assert.True(t, tx.Synced)
}

// A payment written with Asha's placeholder after an earlier run already
// swapped it for her server id.
func TestCoordinator_RebindsTransactionsWrittenAfterRemap(t *testing.T) {
	ctx := context.Background()
	ls := setupLocal(t)

	_, err := ls.Customers.Add(ctx, model.Customer{ID: -10, Name: "Asha"}.Queued(model.PendingCreate))
	require.NoError(t, err)
	coord := newCoordinator(ls, customerResource(), itemResource(), &fakeTransactions{})
	_, err = coord.Run(ctx)
	require.NoError(t, err)

	// Put keeps the stale placeholder, as a write that raced the remap would
	require.NoError(t, ls.Transactions.Put(ctx, model.Transaction{
		ID: -9, ClientRef: "late", CustomerID: -10, Type: model.TransactionPayment,
		TotalAmount: decimal.NewFromInt(10), Date: time.Now().UTC(),
	}))

	txs := &fakeTransactions{}
	coord = newCoordinator(ls, customerResource(), itemResource(), txs)
	report, err := coord.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Skipped())
	assert.Equal(t, 1, report.Entities["transaction"].Replayed)
	assert.Equal(t, []string{"late"}, txs.order)

	tx, err := ls.Transactions.Get(ctx, -9)
	require.NoError(t, err)
	assert.Equal(t, int64(101), tx.CustomerID)
	assert.True(t, tx.Synced)
}

func TestCoordinator_TransactionWaitsForFailedCustomer(t *testing.T) {
	ctx := context.Background()
	ls := setupLocal(t)

	_, err := ls.Customers.Add(ctx, model.Customer{ID: -10, Name: "Asha"}.Queued(model.PendingCreate))
	require.NoError(t, err)
	queueTx(t, ctx, ls.Transactions.Add, model.Transaction{
		ID: -9, ClientRef: "pay", CustomerID: -10, Type: model.TransactionPayment,
		TotalAmount: decimal.NewFromInt(40), Date: time.Now().UTC(),
	})

	customers := customerResource()
	customers.fail["create"] = errOffline
	txs := &fakeTransactions{}
	coord := newCoordinator(ls, customers, itemResource(), txs)

	report, err := coord.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Entities["customer"].Failed)
	assert.Equal(t, 1, report.Entities["transaction"].Skipped)
	assert.Empty(t, txs.order)

	depth, err := coord.QueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), depth)
}

func TestCoordinator_UpdatesAndDeletes(t *testing.T) {
	ctx := context.Background()
	ls := setupLocal(t)

	require.NoError(t, ls.Items.Put(ctx, model.Item{ID: 4, Name: "Sugar", Price: decimal.NewFromInt(160), IsActive: true}.Queued(model.PendingUpdate)))
	require.NoError(t, ls.Customers.Put(ctx, model.Customer{ID: 12, Name: "Juma"}))
	require.NoError(t, ls.Customers.Discard(ctx, 12))
	require.NoError(t, ls.Customers.Put(ctx, model.Customer{ID: 13, Name: "Gone"}))
	require.NoError(t, ls.Customers.Discard(ctx, 13))

	customers := customerResource()
	items := itemResource()
	coord := newCoordinator(ls, customers, items, &fakeTransactions{})

	report, err := coord.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"delete", "delete"}, customers.calls)
	assert.Equal(t, []string{"update"}, items.calls)
	assert.Equal(t, 2, report.Entities["customer"].Replayed)
	assert.Equal(t, 1, report.Entities["item"].Replayed)

	tombstones, err := ls.Customers.Tombstones(ctx)
	require.NoError(t, err)
	assert.Empty(t, tombstones)

	sugar, err := ls.Items.Get(ctx, 4)
	require.NoError(t, err)
	assert.False(t, sugar.IsPending())
	assert.True(t, sugar.Price.Equal(decimal.NewFromInt(160)))
}

func TestCoordinator_DeleteNotFoundClearsTombstone(t *testing.T) {
	ctx := context.Background()
	ls := setupLocal(t)
	require.NoError(t, ls.Customers.Put(ctx, model.Customer{ID: 13, Name: "Gone"}))
	require.NoError(t, ls.Customers.Discard(ctx, 13))

	customers := customerResource()
	customers.fail["delete"] = &remote.RejectedError{StatusCode: 404}
	coord := newCoordinator(ls, customers, itemResource(), &fakeTransactions{})

	report, err := coord.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Entities["customer"].Replayed)

	tombstones, err := ls.Customers.Tombstones(ctx)
	require.NoError(t, err)
	assert.Empty(t, tombstones)
}

// blockingTransactions holds every create until release is closed.
type blockingTransactions struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingTransactions) Create(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return t, nil
}

func TestCoordinator_GuardsOverlappingRuns(t *testing.T) {
	ctx := context.Background()
	ls := setupLocal(t)
	queueTx(t, ctx, ls.Transactions.Add, model.Transaction{
		ID: -1, ClientRef: "A", CustomerID: 7, Type: model.TransactionPayment,
		TotalAmount: decimal.NewFromInt(5), Date: time.Now().UTC(),
	})

	txs := &blockingTransactions{entered: make(chan struct{}), release: make(chan struct{})}
	coord := NewCoordinator(Queues{
		Customers: ls.Customers, Items: ls.Items, Transactions: ls.Transactions,
	}, Remotes{
		Customers: customerResource(), Items: itemResource(), Transactions: txs,
	})

	done := make(chan error, 1)
	go func() {
		_, err := coord.Run(ctx)
		done <- err
	}()

	<-txs.entered
	assert.True(t, coord.Running())
	_, err := coord.Run(ctx)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(txs.release)
	require.NoError(t, <-done)
	assert.False(t, coord.Running())

	report, ok := coord.LastReport()
	require.True(t, ok)
	assert.Equal(t, 1, report.Replayed())
}

func TestCoordinator_AfterRunAndStats(t *testing.T) {
	ctx := context.Background()
	ls := setupLocal(t)
	coord := newCoordinator(ls, customerResource(), itemResource(), &fakeTransactions{})

	var calls int
	coord.AfterRun(func(ctx context.Context, r Report) { calls++ })

	_, err := coord.Run(ctx)
	require.NoError(t, err)
	_, err = coord.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(2), coord.Stats()["total_runs"])
}

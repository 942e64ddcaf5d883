package entitystore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransactions struct {
	mu      sync.Mutex
	err     error
	nextID  int64
	rows    []model.Transaction
	creates int
}

func (f *fakeTransactions) List(ctx context.Context) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Transaction(nil), f.rows...), nil
}

func (f *fakeTransactions) Create(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.err != nil {
		return model.Transaction{}, f.err
	}
	f.nextID++
	t.ID = 500 + f.nextID
	t.Synced = true
	f.rows = append(f.rows, t)
	return t, nil
}

type priceMap map[int64]decimal.Decimal

func (p priceMap) Item(ctx context.Context, id int64) (model.Item, error) {
	price, ok := p[id]
	if !ok {
		return model.Item{}, model.ErrUnknownItem
	}
	return model.Item{ID: id, Price: price, IsActive: true}, nil
}

type customerSet map[int64]bool

func (c customerSet) Customer(ctx context.Context, id int64) (model.Customer, error) {
	if !c[id] {
		return model.Customer{}, fmt.Errorf("%w: %d", model.ErrUnknownCustomer, id)
	}
	return model.Customer{ID: id}, nil
}

var knownCustomers = customerSet{1: true, 3: true, -1700000000000: true}

func newTxStore(t *testing.T, rem *fakeTransactions, prices ItemSource, write WritePolicy) (*TransactionStore, Collection[model.Transaction]) {
	t.Helper()
	ls := setupLocal(t)
	store := NewTransactionStore(ls.Transactions, rem, NewPlaceholderIDs(0), knownCustomers, prices, write)
	store.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return store, ls.Transactions
}

func TestTransactionStore_AddDebtSnapshotsPrice(t *testing.T) {
	prices := priceMap{4: decimal.NewFromInt(50)}
	store, _ := newTxStore(t, &fakeTransactions{}, prices, WriteRemote)
	ctx := context.Background()

	debt, err := store.AddDebt(ctx, 1, []model.DebtLine{{ItemID: 4, Quantity: 2}})
	require.NoError(t, err)
	assert.True(t, debt.Synced)
	assert.True(t, debt.TotalAmount.Equal(decimal.NewFromInt(100)))

	prices[4] = decimal.NewFromInt(80)
	got, ok := store.Find(debt.ID)
	require.True(t, ok)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.NewFromInt(50)), "later price changes do not touch history")

	_, err = store.AddDebt(ctx, 1, []model.DebtLine{{ItemID: 99, Quantity: 1}})
	assert.ErrorIs(t, err, model.ErrUnknownItem)
	_, err = store.AddDebt(ctx, 1, []model.DebtLine{{ItemID: 4, Quantity: 0}})
	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
}

func TestTransactionStore_PlaceholderCustomerIsDeferred(t *testing.T) {
	rem := &fakeTransactions{}
	store, _ := newTxStore(t, rem, priceMap{}, WriteRemote)

	p, err := store.AddPayment(context.Background(), -1700000000000, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.False(t, p.Synced)
	assert.Negative(t, p.ID)
	assert.Zero(t, rem.creates, "the server cannot resolve a placeholder customer")
}

func TestTransactionStore_WriteLocalPolicy(t *testing.T) {
	rem := &fakeTransactions{}
	store, local := newTxStore(t, rem, priceMap{}, WriteLocal)

	p, err := store.AddPayment(context.Background(), 3, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.False(t, p.Synced)
	assert.Zero(t, rem.creates)

	rows, err := local.ToArray(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rows, store.All())
}

func TestTransactionStore_LoadLocalFirstKeepsQueue(t *testing.T) {
	rem := &fakeTransactions{}
	store, local := newTxStore(t, rem, priceMap{}, WriteRemote)
	ctx := context.Background()

	_, err := store.AddPayment(ctx, 1, decimal.NewFromInt(5))
	require.NoError(t, err)

	rem.err = errOffline
	queued, err := store.AddPayment(ctx, 1, decimal.NewFromInt(7))
	require.NoError(t, err)
	assert.False(t, queued.Synced)

	require.NoError(t, store.Load(ctx), "offline load is not an error")
	assert.Len(t, store.All(), 2)

	rem.err = nil
	require.NoError(t, store.Load(ctx))
	assert.Len(t, store.All(), 2)
	_, ok := store.Find(queued.ID)
	assert.True(t, ok)

	require.NoError(t, store.Load(ctx))
	rows, err := local.ToArray(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, rows, store.All())
}

// Asha is created offline, runs up a debt and pays part of it, all before
// the device ever reaches the server.
func TestTransactionStore_OfflineBalanceScenario(t *testing.T) {
	ls := setupLocal(t)
	ids := NewPlaceholderIDs(0)
	ctx := context.Background()

	customerRemote := newFakeEndpoint[model.Customer, model.CustomerPatch]()
	customerRemote.fail(errOffline)
	itemRemote := newFakeEndpoint[model.Item, model.ItemPatch](model.Item{ID: 4, Name: "Maize flour", Price: decimal.NewFromInt(50), IsActive: true})
	txRemote := &fakeTransactions{err: errOffline}

	customers := NewCustomerStore(ls.Customers, customerRemote, ids)
	items := NewItemStore(ls.Items, itemRemote, ids)
	require.NoError(t, items.Load(ctx))
	txs := NewTransactionStore(ls.Transactions, txRemote, ids, customers, items, WriteRemote)

	asha, err := customers.Add(ctx, model.CustomerInput{Name: "Asha"})
	require.NoError(t, err)
	assert.Negative(t, asha.ID)
	assert.True(t, txs.Balance(asha.ID).IsZero())

	debt, err := txs.AddDebt(ctx, asha.ID, []model.DebtLine{{ItemID: 4, Quantity: 2}})
	require.NoError(t, err)
	assert.True(t, debt.TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, txs.Balance(asha.ID).Equal(decimal.NewFromInt(100)))

	_, err = txs.AddPayment(ctx, asha.ID, decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.True(t, txs.Balance(asha.ID).Equal(decimal.NewFromInt(60)))

	summary := txs.Summary(asha.ID)
	assert.True(t, summary.TotalDebt.Equal(decimal.NewFromInt(100)))
	assert.True(t, summary.TotalPayments.Equal(decimal.NewFromInt(40)))
	assert.Len(t, txs.ForCustomer(asha.ID), 2)
}

func TestTransactionStore_RejectsUnknownCustomer(t *testing.T) {
	rem := &fakeTransactions{err: errOffline}
	store, local := newTxStore(t, rem, priceMap{4: decimal.NewFromInt(50)}, WriteRemote)
	ctx := context.Background()

	_, err := store.AddPayment(ctx, 424242, decimal.NewFromInt(40))
	assert.ErrorIs(t, err, model.ErrUnknownCustomer)
	_, err = store.AddDebt(ctx, -42, []model.DebtLine{{ItemID: 4, Quantity: 1}})
	assert.ErrorIs(t, err, model.ErrUnknownCustomer)
	_, err = store.AddPayment(ctx, 0, decimal.NewFromInt(40))
	assert.ErrorIs(t, err, model.ErrCustomerRequired)

	assert.Empty(t, store.All())
	rows, err := local.ToArray(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows, "nothing is queued for a customer the device does not hold")
	assert.Zero(t, rem.creates)
}

// A sync run swaps Asha's placeholder for her server id while the UI still
// holds the placeholder.
func TestTransactionStore_StalePlaceholderResolvesToServerID(t *testing.T) {
	ls := setupLocal(t)
	ids := NewPlaceholderIDs(0)
	ctx := context.Background()

	customerRemote := newFakeEndpoint[model.Customer, model.CustomerPatch]()
	customerRemote.fail(errOffline)
	itemRemote := newFakeEndpoint[model.Item, model.ItemPatch]()
	itemRemote.fail(errOffline)
	txRemote := &fakeTransactions{}

	customers := NewCustomerStore(ls.Customers, customerRemote, ids)
	items := NewItemStore(ls.Items, itemRemote, ids)
	txs := NewTransactionStore(ls.Transactions, txRemote, ids, customers, items, WriteRemote)

	asha, err := customers.Add(ctx, model.CustomerInput{Name: "Asha"})
	require.NoError(t, err)
	salt, err := items.Add(ctx, model.ItemInput{Name: "Salt", Price: decimal.NewFromInt(30)})
	require.NoError(t, err)
	require.Negative(t, asha.ID)
	require.Negative(t, salt.ID)

	require.NoError(t, ls.Customers.Remap(ctx, asha.ID, model.Customer{ID: 31, Name: "Asha"}))
	require.NoError(t, ls.Items.Remap(ctx, salt.ID, model.Item{ID: 41, Name: "Salt", Price: decimal.NewFromInt(30), IsActive: true}))

	p, err := txs.AddPayment(ctx, asha.ID, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, int64(31), p.CustomerID)
	assert.True(t, p.Synced, "a resolved customer goes straight to the server")

	d, err := txs.AddDebt(ctx, asha.ID, []model.DebtLine{{ItemID: salt.ID, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(31), d.CustomerID)
	assert.Equal(t, int64(41), d.Items[0].ItemID)
	assert.True(t, d.TotalAmount.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, 2, txRemote.creates)
	assert.True(t, txs.Balance(31).Equal(decimal.NewFromInt(50)))
}

package entitystore

import (
	"context"
	"errors"
	"testing"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/internal/remote"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItemEnv(t *testing.T, server ...model.Item) (*ItemStore, *brokenCollection[model.Item], *fakeEndpoint[model.Item, model.ItemPatch]) {
	t.Helper()
	ls := setupLocal(t)
	local := &brokenCollection[model.Item]{MutableCollection: ls.Items}
	rem := newFakeEndpoint[model.Item, model.ItemPatch](server...)
	return NewItemStore(local, rem, NewPlaceholderIDs(0)), local, rem
}

func TestItemStore_UpdateRemoteOKLocalFails(t *testing.T) {
	store, local, rem := newItemEnv(t, model.Item{ID: 4, Name: "Sugar", Price: decimal.NewFromInt(150), IsActive: true})
	ctx := context.Background()
	require.NoError(t, store.Load(ctx))
	before := store.All()

	local.putErr = errors.New("database is locked")
	price := decimal.NewFromInt(160)
	_, err := store.Update(ctx, 4, model.ItemPatch{Price: &price})

	require.Error(t, err)
	assert.True(t, IsLocalStoreError(err), "a failed mirror write is a local-store failure")
	assert.False(t, remote.IsRejected(err), "and not a server rejection")
	assert.False(t, remote.IsUnreachable(err))
	var lse *LocalStoreError
	require.ErrorAs(t, err, &lse)
	assert.Equal(t, "update", lse.Op)

	assert.Equal(t, before, store.All(), "memory keeps matching the mirror")
	assert.True(t, rem.rows[4].Price.Equal(price), "the server did accept the change")
}

func TestItemStore_UpdateRejectedIsMirrored(t *testing.T) {
	store, _, rem := newItemEnv(t, model.Item{ID: 4, Name: "Sugar", Price: decimal.NewFromInt(150), IsActive: true})
	ctx := context.Background()
	require.NoError(t, store.Load(ctx))

	rem.fail(&remote.RejectedError{StatusCode: 400, Body: "bad price"})
	price := decimal.NewFromInt(155)
	got, err := store.Update(ctx, 4, model.ItemPatch{Price: &price})
	assert.True(t, remote.IsRejected(err))
	assert.False(t, IsLocalStoreError(err))
	assert.Equal(t, model.PendingUpdate, got.Pending)

	cur, ok := store.Find(4)
	require.True(t, ok)
	assert.True(t, cur.Price.Equal(price))
}

func TestItemStore_PriceAndDeactivate(t *testing.T) {
	store, _, _ := newItemEnv(t, model.Item{ID: 4, Name: "Sugar", Price: decimal.NewFromInt(150), IsActive: true})
	ctx := context.Background()
	require.NoError(t, store.Load(ctx))

	price, err := store.Price(ctx, 4)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(150)))

	_, err = store.Price(ctx, 99)
	assert.ErrorIs(t, err, model.ErrUnknownItem)

	it, err := store.Deactivate(ctx, 4)
	require.NoError(t, err)
	assert.False(t, it.IsActive)
	assert.Empty(t, store.Active())

	// deactivated items keep their price for lookups
	price, err = store.Price(ctx, 4)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(150)))
}

func TestItemStore_AddValidation(t *testing.T) {
	store, _, rem := newItemEnv(t)
	_, err := store.Add(context.Background(), model.ItemInput{Name: "Salt", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, model.ErrInvalidPrice)
	assert.Zero(t, rem.callCount("create"))

	it, err := store.Add(context.Background(), model.ItemInput{Name: "Salt", Price: decimal.Zero})
	require.NoError(t, err)
	assert.True(t, it.IsActive)
}

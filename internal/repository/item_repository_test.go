package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemRepository_ListActiveOrdered(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Sugar", "Bread", "Milk"} {
		_, err := repo.Create(ctx, model.Item{Name: name, Price: decimal.NewFromInt(10), IsActive: true})
		require.NoError(t, err)
	}
	old, err := repo.Create(ctx, model.Item{Name: "Candles", Price: decimal.NewFromInt(5), IsActive: true})
	require.NoError(t, err)
	require.NoError(t, repo.Deactivate(ctx, old.ID))

	items, err := repo.ListActive(ctx)
	require.NoError(t, err)
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	assert.Equal(t, []string{"Bread", "Milk", "Sugar"}, names)

	deactivated, err := repo.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	assert.ErrorIs(t, repo.Deactivate(ctx, 999), ErrItemNotFound)
}

func TestItemRepository_PriceHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	clock := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	sugar, err := repo.Create(ctx, model.Item{Name: "Sugar", Price: decimal.NewFromInt(150), IsActive: true})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	name := "Sugar 1kg"
	_, err = repo.Update(ctx, sugar.ID, model.ItemPatch{Name: &name})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	price := decimal.NewFromInt(160)
	updated, err := repo.Update(ctx, sugar.ID, model.ItemPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Sugar 1kg", updated.Name)
	assert.True(t, updated.Price.Equal(price))

	history, err := repo.PriceHistory(ctx, sugar.ID)
	require.NoError(t, err)
	require.Len(t, history, 2, "a rename does not add a price entry")
	assert.True(t, history[0].Price.Equal(decimal.NewFromInt(150)))
	assert.True(t, history[1].Price.Equal(price))
	assert.True(t, clock.Equal(history[1].ChangedAt))

	_, err = repo.Update(ctx, 999, model.ItemPatch{Price: &price})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

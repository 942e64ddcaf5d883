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

func TestTransactionRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	customers := NewCustomerRepository(db)
	items := NewItemRepository(db)
	repo := NewTransactionRepository(db)

	c, err := customers.Create(ctx, model.Customer{Name: "Asha"})
	require.NoError(t, err)
	sugar, err := items.Create(ctx, model.Item{Name: "Sugar", Price: decimal.NewFromInt(50), IsActive: true})
	require.NoError(t, err)

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	debt, err := model.NewDebt(c.ID, []model.TransactionItem{{ItemID: sugar.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(50)}}, at)
	require.NoError(t, err)

	t.Run("stores lines", func(t *testing.T) {
		saved, created, err := repo.Create(ctx, debt)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Positive(t, saved.ID)

		got, err := repo.GetByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, debt.ClientRef, got.ClientRef)
		assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(100)))
		assert.True(t, got.Date.Equal(at))
		require.Len(t, got.Items, 1)
		assert.Equal(t, sugar.ID, got.Items[0].ItemID)
		assert.True(t, got.Items[0].UnitPrice.Equal(decimal.NewFromInt(50)))
	})

	t.Run("repeated client_ref returns the original", func(t *testing.T) {
		again, created, err := repo.Create(ctx, debt)
		require.NoError(t, err)
		assert.False(t, created)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, all[0].ID, again.ID)
	})

	t.Run("unknown customer", func(t *testing.T) {
		p, err := model.NewPayment(999, decimal.NewFromInt(5), at)
		require.NoError(t, err)
		_, _, err = repo.Create(ctx, p)
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})

	t.Run("unknown item", func(t *testing.T) {
		d, err := model.NewDebt(c.ID, []model.TransactionItem{{ItemID: 999, Quantity: 1, UnitPrice: decimal.NewFromInt(5)}}, at)
		require.NoError(t, err)
		_, _, err = repo.Create(ctx, d)
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("by customer", func(t *testing.T) {
		list, err := repo.ListByCustomer(ctx, c.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		_, err = repo.GetByID(ctx, 12345)
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

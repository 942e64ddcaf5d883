package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/pkg/pg"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) withItems(ctx context.Context) *gorm.DB {
	return r.Read(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	})
}

func (r *TransactionRepository) List(ctx context.Context) ([]model.Transaction, error) {
	var entities []*TransactionEntity
	if err := r.withItems(ctx).Order("date, id").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

func (r *TransactionRepository) ListByCustomer(ctx context.Context, customerID int64) ([]model.Transaction, error) {
	var entities []*TransactionEntity
	if err := r.withItems(ctx).Where("customer_id = ?", customerID).Order("date, id").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (model.Transaction, error) {
	var entity TransactionEntity
	err := r.withItems(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Transaction{}, ErrTransactionNotFound
		}
		return model.Transaction{}, err
	}
	return toTransactionModel(&entity), nil
}

// GetByClientRef finds a transaction by the device-side reference it was
// created with.
func (r *TransactionRepository) GetByClientRef(ctx context.Context, ref string) (model.Transaction, error) {
	var entity TransactionEntity
	err := r.withItems(ctx).Where("client_ref = ?", ref).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Transaction{}, ErrTransactionNotFound
		}
		return model.Transaction{}, err
	}
	return toTransactionModel(&entity), nil
}

// Create stores the transaction with its lines. A client_ref seen before
// returns the stored transaction instead of a second copy.
func (r *TransactionRepository) Create(ctx context.Context, t model.Transaction) (model.Transaction, bool, error) {
	var out model.Transaction
	created := false
	err := withRetry(ctx, func() error {
		return r.WithinTransaction(ctx, func(ctx context.Context) error {
			if t.ClientRef != "" {
				existing, err := r.GetByClientRef(ctx, t.ClientRef)
				if err == nil {
					out, created = existing, false
					return nil
				}
				if !errors.Is(err, ErrTransactionNotFound) {
					return err
				}
			}

			var customers int64
			if err := r.Read(ctx).Model(&CustomerEntity{}).Where("id = ?", t.CustomerID).Count(&customers).Error; err != nil {
				return err
			}
			if customers == 0 {
				return ErrCustomerNotFound
			}
			if len(t.Items) > 0 {
				ids := make([]int64, 0, len(t.Items))
				seen := map[int64]struct{}{}
				for _, it := range t.Items {
					if _, ok := seen[it.ItemID]; !ok {
						seen[it.ItemID] = struct{}{}
						ids = append(ids, it.ItemID)
					}
				}
				var items int64
				if err := r.Read(ctx).Model(&ItemEntity{}).Where("id IN ?", ids).Count(&items).Error; err != nil {
					return err
				}
				if int(items) != len(ids) {
					return ErrItemNotFound
				}
			}

			t.ID = 0
			entity := toTransactionEntity(t)
			if err := r.Write(ctx).Create(entity).Error; err != nil {
				return err
			}
			out, created = toTransactionModel(entity), true
			return nil
		})
	})
	return out, created, err
}

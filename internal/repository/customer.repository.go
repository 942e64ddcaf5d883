package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerRepository struct {
	*pg.DB
}

func NewCustomerRepository(db *pg.DB) *CustomerRepository {
	return &CustomerRepository{
		db,
	}
}

func (r *CustomerRepository) List(ctx context.Context) ([]model.Customer, error) {
	var entities []*CustomerEntity
	if err := r.Read(ctx).Order("name, id").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toCustomerModels(entities), nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (model.Customer, error) {
	var entity CustomerEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Customer{}, ErrCustomerNotFound
		}
		return model.Customer{}, err
	}
	return toCustomerModel(&entity), nil
}

func (r *CustomerRepository) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	c.ID = 0
	entity := toCustomerEntity(c)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return model.Customer{}, err
	}
	return toCustomerModel(entity), nil
}

func (r *CustomerRepository) Update(ctx context.Context, id int64, patch model.CustomerPatch) (model.Customer, error) {
	var out model.Customer
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		cur, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		out = patch.Apply(cur)
		return r.Write(ctx).Model(&CustomerEntity{}).Where("id = ?", id).
			Updates(map[string]any{"name": out.Name, "phone": out.Phone}).Error
	})
	return out, err
}

// Delete removes a customer without history; one with transactions is
// refused so that no debt is orphaned.
func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		var used int64
		if err := r.Read(ctx).Model(&TransactionEntity{}).Where("customer_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return ErrCustomerInUse
		}
		res := r.Write(ctx).Where("id = ?", id).Delete(&CustomerEntity{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCustomerNotFound
		}
		return nil
	})
}

type Balance struct {
	CustomerID    int64           `json:"customer_id"`
	TotalDebt     decimal.Decimal `json:"total_debt"`
	TotalPayments decimal.Decimal `json:"total_payments"`
	Balance       decimal.Decimal `json:"balance"`
}

// GetBalance sums the customer's debts and payments.
func (r *CustomerRepository) GetBalance(ctx context.Context, customerID int64) (Balance, error) {
	if _, err := r.GetByID(ctx, customerID); err != nil {
		return Balance{}, err
	}

	var rows []struct {
		TransactionType string
		Total           decimal.Decimal
	}
	err := r.Read(ctx).Model(&TransactionEntity{}).
		Select("transaction_type, COALESCE(SUM(total_amount), 0) AS total").
		Where("customer_id = ?", customerID).
		Group("transaction_type").
		Scan(&rows).Error
	if err != nil {
		return Balance{}, err
	}

	b := Balance{CustomerID: customerID, TotalDebt: decimal.Zero, TotalPayments: decimal.Zero}
	for _, row := range rows {
		switch model.TransactionType(row.TransactionType) {
		case model.TransactionDebt:
			b.TotalDebt = row.Total
		case model.TransactionPayment:
			b.TotalPayments = row.Total
		}
	}
	b.Balance = b.TotalDebt.Sub(b.TotalPayments)
	return b, nil
}

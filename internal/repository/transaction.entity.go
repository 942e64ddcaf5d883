package repository

import (
	"time"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/shopspring/decimal"
)

type TransactionEntity struct {
	ID              int64           `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	ClientRef       *string         `db:"client_ref"       gorm:"column:client_ref;uniqueIndex"`
	CustomerID      int64           `db:"customer_id"      gorm:"column:customer_id;not null;index"`
	TransactionType string          `db:"transaction_type" gorm:"column:transaction_type;not null"`
	TotalAmount     decimal.Decimal `db:"total_amount"     gorm:"column:total_amount;type:numeric(12,2);not null"`
	Date            time.Time       `db:"date"             gorm:"column:date;not null;index"`

	Items []*TransactionItemEntity `gorm:"foreignKey:TransactionID"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

type TransactionItemEntity struct {
	ID            int64           `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	TransactionID int64           `db:"transaction_id" gorm:"column:transaction_id;not null;index"`
	ItemID        int64           `db:"item_id"        gorm:"column:item_id;not null;index"`
	Quantity      int64           `db:"quantity"       gorm:"column:quantity;not null"`
	UnitPrice     decimal.Decimal `db:"unit_price"     gorm:"column:unit_price;type:numeric(12,2);not null"`
}

func (TransactionItemEntity) TableName() string {
	return "transaction_items"
}

func toTransactionEntity(m model.Transaction) *TransactionEntity {
	e := &TransactionEntity{
		ID:              m.ID,
		CustomerID:      m.CustomerID,
		TransactionType: string(m.Type),
		TotalAmount:     m.TotalAmount,
		Date:            m.Date.UTC(),
	}
	if m.ClientRef != "" {
		ref := m.ClientRef
		e.ClientRef = &ref
	}
	for _, it := range m.Items {
		e.Items = append(e.Items, &TransactionItemEntity{
			ItemID:    it.ItemID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return e
}

func toTransactionModel(e *TransactionEntity) model.Transaction {
	m := model.Transaction{
		ID:          e.ID,
		CustomerID:  e.CustomerID,
		Type:        model.TransactionType(e.TransactionType),
		TotalAmount: e.TotalAmount,
		Date:        e.Date.UTC(),
		Synced:      true,
	}
	if e.ClientRef != nil {
		m.ClientRef = *e.ClientRef
	}
	for _, it := range e.Items {
		m.Items = append(m.Items, model.TransactionItem{
			ItemID:    it.ItemID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return m
}

func toTransactionModels(entities []*TransactionEntity) []model.Transaction {
	models := make([]model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}

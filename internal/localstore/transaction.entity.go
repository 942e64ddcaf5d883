package localstore

import (
	"time"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/shopspring/decimal"
)

type TransactionEntity struct {
	ID          int64           `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	ClientRef   string          `db:"client_ref"       gorm:"column:client_ref;not null"`
	CustomerID  int64           `db:"customer_id"      gorm:"column:customer_id;not null;index"`
	Type        string          `db:"transaction_type" gorm:"column:transaction_type;not null"`
	TotalAmount decimal.Decimal `db:"total_amount"     gorm:"column:total_amount;type:text;not null"`
	Date        time.Time       `db:"date"             gorm:"column:date;not null"`
	Synced      bool            `db:"synced"           gorm:"column:synced;not null"`
	Seq         int64           `db:"seq"              gorm:"column:seq;not null"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

type TransactionItemEntity struct {
	ID            int64           `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	TransactionID int64           `db:"transaction_id" gorm:"column:transaction_id;not null;index"`
	Position      int             `db:"position"       gorm:"column:position;not null"`
	ItemID        int64           `db:"item_id"        gorm:"column:item_id;not null"`
	Quantity      int64           `db:"quantity"       gorm:"column:quantity;not null"`
	UnitPrice     decimal.Decimal `db:"unit_price"     gorm:"column:unit_price;type:text;not null"`
}

func (TransactionItemEntity) TableName() string {
	return "transaction_items"
}

func toTransactionEntity(m model.Transaction) *TransactionEntity {
	return &TransactionEntity{
		ID:          m.ID,
		ClientRef:   m.ClientRef,
		CustomerID:  m.CustomerID,
		Type:        string(m.Type),
		TotalAmount: m.TotalAmount,
		Date:        m.Date.UTC(),
		Synced:      m.Synced,
	}
}

func toTransactionItemEntities(transactionID int64, items []model.TransactionItem) []*TransactionItemEntity {
	entities := make([]*TransactionItemEntity, len(items))
	for i, it := range items {
		entities[i] = &TransactionItemEntity{
			TransactionID: transactionID,
			Position:      i,
			ItemID:        it.ItemID,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
		}
	}
	return entities
}

func toTransactionModel(e *TransactionEntity, items []*TransactionItemEntity) model.Transaction {
	m := model.Transaction{
		ID:          e.ID,
		ClientRef:   e.ClientRef,
		CustomerID:  e.CustomerID,
		Type:        model.TransactionType(e.Type),
		TotalAmount: e.TotalAmount,
		Date:        e.Date.UTC(),
		Synced:      e.Synced,
	}
	for _, it := range items {
		m.Items = append(m.Items, model.TransactionItem{
			ItemID:    it.ItemID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return m
}

package localstore

import (
	"github.com/nimasrn/denitracker/internal/model"
	"github.com/shopspring/decimal"
)

type ItemEntity struct {
	ID       int64           `db:"id"        gorm:"primaryKey;autoIncrement;column:id"`
	Name     string          `db:"name"      gorm:"column:name;not null"`
	Price    decimal.Decimal `db:"price"     gorm:"column:price;type:text;not null"`
	IsActive bool            `db:"is_active" gorm:"column:is_active;not null"`
	Pending  string          `db:"pending"   gorm:"column:pending;not null"`
	Seq      int64           `db:"seq"       gorm:"column:seq;not null"`
}

func (ItemEntity) TableName() string {
	return "items"
}

func toItemEntity(m model.Item) *ItemEntity {
	return &ItemEntity{
		ID:       m.ID,
		Name:     m.Name,
		Price:    m.Price,
		IsActive: m.IsActive,
		Pending:  string(m.Pending),
	}
}

func toItemModel(e *ItemEntity) model.Item {
	return model.Item{
		ID:       e.ID,
		Name:     e.Name,
		Price:    e.Price,
		IsActive: e.IsActive,
		Pending:  model.PendingOp(e.Pending),
	}
}

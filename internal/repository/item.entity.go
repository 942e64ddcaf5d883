package repository

import (
	"time"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/shopspring/decimal"
)

type ItemEntity struct {
	ID        int64           `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	Name      string          `db:"name"       gorm:"column:name;not null"`
	Price     decimal.Decimal `db:"price"      gorm:"column:price;type:numeric(12,2);not null"`
	IsActive  bool            `db:"is_active"  gorm:"column:is_active;not null"`
	CreatedAt time.Time       `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (ItemEntity) TableName() string {
	return "items"
}

// ItemPriceHistoryEntity is one price an item had from ChangedAt on.
type ItemPriceHistoryEntity struct {
	ID        int64           `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	ItemID    int64           `db:"item_id"    gorm:"column:item_id;not null;index"`
	Price     decimal.Decimal `db:"price"      gorm:"column:price;type:numeric(12,2);not null"`
	ChangedAt time.Time       `db:"changed_at" gorm:"column:changed_at;not null"`
}

func (ItemPriceHistoryEntity) TableName() string {
	return "item_price_history"
}

type PriceChange struct {
	Price     decimal.Decimal `json:"price"`
	ChangedAt time.Time       `json:"changed_at"`
}

func toItemEntity(m model.Item) *ItemEntity {
	return &ItemEntity{
		ID:       m.ID,
		Name:     m.Name,
		Price:    m.Price,
		IsActive: m.IsActive,
	}
}

func toItemModel(e *ItemEntity) model.Item {
	return model.Item{
		ID:       e.ID,
		Name:     e.Name,
		Price:    e.Price,
		IsActive: e.IsActive,
	}
}

func toItemModels(entities []*ItemEntity) []model.Item {
	models := make([]model.Item, len(entities))
	for i, e := range entities {
		models[i] = toItemModel(e)
	}
	return models
}

package localstore

import (
	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/pkg/localdb"
)

type ItemCollection struct {
	*Table[ItemEntity, model.Item]
}

func NewItemCollection(db *localdb.DB) *ItemCollection {
	return &ItemCollection{&Table[ItemEntity, model.Item]{
		DB:         db,
		name:       "items",
		order:      "name, id",
		columns:    []string{"name", "price", "is_active", "pending"},
		fields:     map[string]string{"id": "id", "name": "name", "is_active": "is_active"},
		references: []reference{{table: "transaction_items", column: "item_id"}},
		toEntity:   toItemEntity,
		toModel:    toItemModel,
	}}
}

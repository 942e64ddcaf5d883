package localstore

import (
	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/pkg/localdb"
)

type CustomerCollection struct {
	*Table[CustomerEntity, model.Customer]
}

func NewCustomerCollection(db *localdb.DB) *CustomerCollection {
	return &CustomerCollection{&Table[CustomerEntity, model.Customer]{
		DB:         db,
		name:       "customers",
		order:      "name, id",
		columns:    []string{"name", "phone", "pending"},
		fields:     map[string]string{"id": "id", "name": "name", "phone": "phone"},
		references: []reference{{table: "transactions", column: "customer_id"}},
		toEntity:   toCustomerEntity,
		toModel:    toCustomerModel,
	}}
}

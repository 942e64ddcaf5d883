package repository

import (
	"time"

	"github.com/nimasrn/denitracker/internal/model"
)

type CustomerEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `db:"name"       gorm:"column:name;not null"`
	Phone     string    `db:"phone"      gorm:"column:phone;not null;default:''"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (CustomerEntity) TableName() string {
	return "customers"
}

func toCustomerEntity(m model.Customer) *CustomerEntity {
	return &CustomerEntity{
		ID:    m.ID,
		Name:  m.Name,
		Phone: m.Phone,
	}
}

func toCustomerModel(e *CustomerEntity) model.Customer {
	return model.Customer{
		ID:    e.ID,
		Name:  e.Name,
		Phone: e.Phone,
	}
}

func toCustomerModels(entities []*CustomerEntity) []model.Customer {
	models := make([]model.Customer, len(entities))
	for i, e := range entities {
		models[i] = toCustomerModel(e)
	}
	return models
}

package localstore

import (
	"github.com/nimasrn/denitracker/internal/model"
)

type CustomerEntity struct {
	ID      int64  `db:"id"      gorm:"primaryKey;autoIncrement;column:id"`
	Name    string `db:"name"    gorm:"column:name;not null"`
	Phone   string `db:"phone"   gorm:"column:phone;not null"`
	Pending string `db:"pending" gorm:"column:pending;not null"`
	Seq     int64  `db:"seq"     gorm:"column:seq;not null"`
}

func (CustomerEntity) TableName() string {
	return "customers"
}

func toCustomerEntity(m model.Customer) *CustomerEntity {
	return &CustomerEntity{
		ID:      m.ID,
		Name:    m.Name,
		Phone:   m.Phone,
		Pending: string(m.Pending),
	}
}

func toCustomerModel(e *CustomerEntity) model.Customer {
	return model.Customer{
		ID:      e.ID,
		Name:    e.Name,
		Phone:   e.Phone,
		Pending: model.PendingOp(e.Pending),
	}
}

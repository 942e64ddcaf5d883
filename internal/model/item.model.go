package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Item is a price-list entry. Items are soft-deleted through IsActive once
// they have been sold, so historical line items keep a valid reference.
type Item struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	IsActive bool            `json:"is_active"`
	Pending  PendingOp       `json:"pending,omitempty"`
}

func (i Item) Key() int64 { return i.ID }

func (i Item) WithKey(id int64) Item {
	i.ID = id
	return i
}

func (i Item) Queued(op PendingOp) Item {
	i.Pending = i.Pending.merge(op)
	return i
}

func (i Item) Confirmed() Item {
	i.Pending = PendingNone
	return i
}

func (i Item) IsPending() bool { return i.Pending != PendingNone }

type ItemInput struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func (in ItemInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if in.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

func (in ItemInput) Item() Item {
	return Item{Name: strings.TrimSpace(in.Name), Price: in.Price, IsActive: true}
}

type ItemPatch struct {
	Name     *string          `json:"name,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	IsActive *bool            `json:"is_active,omitempty"`
}

func (p ItemPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrNameRequired
	}
	if p.Price != nil && p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

func (p ItemPatch) Apply(i Item) Item {
	if p.Name != nil {
		i.Name = strings.TrimSpace(*p.Name)
	}
	if p.Price != nil {
		i.Price = *p.Price
	}
	if p.IsActive != nil {
		i.IsActive = *p.IsActive
	}
	return i
}

func (i Item) Patch() ItemPatch {
	name, price, active := i.Name, i.Price, i.IsActive
	return ItemPatch{Name: &name, Price: &price, IsActive: &active}
}

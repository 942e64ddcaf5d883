package model

import "strings"

type Customer struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone"`
	Pending PendingOp `json:"pending,omitempty"`
}

func (c Customer) Key() int64 { return c.ID }

func (c Customer) WithKey(id int64) Customer {
	c.ID = id
	return c
}

func (c Customer) Queued(op PendingOp) Customer {
	c.Pending = c.Pending.merge(op)
	return c
}

func (c Customer) Confirmed() Customer {
	c.Pending = PendingNone
	return c
}

func (c Customer) IsPending() bool { return c.Pending != PendingNone }

type CustomerInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (in CustomerInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

func (in CustomerInput) Customer() Customer {
	return Customer{Name: strings.TrimSpace(in.Name), Phone: strings.TrimSpace(in.Phone)}
}

// CustomerPatch is a partial update; nil fields are left untouched.
type CustomerPatch struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

func (p CustomerPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

func (p CustomerPatch) Apply(c Customer) Customer {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Phone != nil {
		c.Phone = strings.TrimSpace(*p.Phone)
	}
	return c
}

// Patch carries every editable field, used to replay a queued update.
func (c Customer) Patch() CustomerPatch {
	name, phone := c.Name, c.Phone
	return CustomerPatch{Name: &name, Phone: &phone}
}

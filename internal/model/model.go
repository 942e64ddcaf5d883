package model

import "errors"

var (
	ErrNameRequired     = errors.New("name is required")
	ErrCustomerRequired = errors.New("customer_id is required")
	ErrInvalidPrice     = errors.New("price must not be negative")
	ErrInvalidQuantity  = errors.New("quantity must be a positive integer")
	ErrInvalidAmount    = errors.New("payment amount must be positive")
	ErrInvalidType      = errors.New("transaction_type must be debt or payment")
	ErrNoLines          = errors.New("debt needs at least one line item")
	ErrTotalMismatch    = errors.New("total_amount does not match line items")
	ErrPaymentLines     = errors.New("payment must not carry line items")
	ErrUnknownItem      = errors.New("item does not exist")
	ErrUnknownCustomer  = errors.New("customer does not exist")
)

// PendingOp marks a locally applied write that the server has not accepted yet.
type PendingOp string

const (
	PendingNone   PendingOp = ""
	PendingCreate PendingOp = "create"
	PendingUpdate PendingOp = "update"
)

// merge keeps a create pending when a later offline edit lands on a row the
// server has never seen; the replayed create then carries the latest fields.
func (op PendingOp) merge(next PendingOp) PendingOp {
	if op == PendingCreate {
		return PendingCreate
	}
	return next
}

// IsPlaceholder reports whether id was assigned on the device rather than by
// the server. Server ids are always positive.
func IsPlaceholder(id int64) bool {
	return id < 0
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDebt    TransactionType = "debt"
	TransactionPayment TransactionType = "payment"
)

func (t TransactionType) Valid() bool {
	return t == TransactionDebt || t == TransactionPayment
}

// TransactionItem is one line of a debt. UnitPrice is the item price at the
// moment of sale and is never recomputed from the current Item.
type TransactionItem struct {
	ItemID    int64           `json:"item_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (ti TransactionItem) Subtotal() decimal.Decimal {
	return ti.UnitPrice.Mul(decimal.NewFromInt(ti.Quantity))
}

// Transaction is immutable after creation except for Synced, which flips
// false->true once the server has accepted the record.
type Transaction struct {
	ID          int64             `json:"id"`
	ClientRef   string            `json:"client_ref"`
	CustomerID  int64             `json:"customer_id"`
	Type        TransactionType   `json:"transaction_type"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Date        time.Time         `json:"date"`
	Synced      bool              `json:"synced"`
	Items       []TransactionItem `json:"items,omitempty"`
}

func (t Transaction) Key() int64 { return t.ID }

func (t Transaction) WithKey(id int64) Transaction {
	t.ID = id
	return t
}

// Queued marks the record as not yet accepted by the server. The op is
// irrelevant for transactions: they are only ever created.
func (t Transaction) Queued(PendingOp) Transaction {
	t.Synced = false
	return t
}

func (t Transaction) Confirmed() Transaction {
	t.Synced = true
	return t
}

func (t Transaction) IsPending() bool { return !t.Synced }

// DebtLine is what the caller supplies for a debt; the unit price is
// snapshotted from the item collection at write time.
type DebtLine struct {
	ItemID   int64 `json:"item_id"`
	Quantity int64 `json:"quantity"`
}

// LinesTotal sums quantity x unit_price over the lines.
func LinesTotal(items []TransactionItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func NewDebt(customerID int64, items []TransactionItem, at time.Time) (Transaction, error) {
	t := Transaction{
		ClientRef:   uuid.NewString(),
		CustomerID:  customerID,
		Type:        TransactionDebt,
		TotalAmount: LinesTotal(items),
		Date:        at.UTC(),
		Items:       append([]TransactionItem(nil), items...),
	}
	return t, t.Validate()
}

func NewPayment(customerID int64, amount decimal.Decimal, at time.Time) (Transaction, error) {
	t := Transaction{
		ClientRef:   uuid.NewString(),
		CustomerID:  customerID,
		Type:        TransactionPayment,
		TotalAmount: amount,
		Date:        at.UTC(),
	}
	return t, t.Validate()
}

func (t Transaction) Validate() error {
	if t.CustomerID == 0 {
		return ErrCustomerRequired
	}
	switch t.Type {
	case TransactionDebt:
		if len(t.Items) == 0 {
			return ErrNoLines
		}
		for _, it := range t.Items {
			if it.Quantity <= 0 {
				return ErrInvalidQuantity
			}
			if it.UnitPrice.IsNegative() {
				return ErrInvalidPrice
			}
		}
		if !LinesTotal(t.Items).Equal(t.TotalAmount) {
			return ErrTotalMismatch
		}
	case TransactionPayment:
		if len(t.Items) > 0 {
			return ErrPaymentLines
		}
		if !t.TotalAmount.IsPositive() {
			return ErrInvalidAmount
		}
	default:
		return ErrInvalidType
	}
	return nil
}

// ReferencesPlaceholder reports whether the transaction points at a customer
// or item the server has not assigned an id to yet.
func (t Transaction) ReferencesPlaceholder() bool {
	if IsPlaceholder(t.CustomerID) {
		return true
	}
	for _, it := range t.Items {
		if IsPlaceholder(it.ItemID) {
			return true
		}
	}
	return false
}

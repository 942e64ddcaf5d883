package remote

import (
	"time"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/shopspring/decimal"
)

// Wire records mirror the server's JSON field by field. Local-only state
// (pending markers, the synced flag) never goes over the wire.
type wire[M any] interface {
	model() M
}

type customerWire struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (w customerWire) model() model.Customer {
	return model.Customer{ID: w.ID, Name: w.Name, Phone: w.Phone}
}

func toCustomerWire(c model.Customer) customerWire {
	return customerWire{Name: c.Name, Phone: c.Phone}
}

type itemWire struct {
	ID       int64           `json:"id,omitempty"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	IsActive bool            `json:"is_active"`
}

func (w itemWire) model() model.Item {
	return model.Item{ID: w.ID, Name: w.Name, Price: w.Price, IsActive: w.IsActive}
}

func toItemWire(i model.Item) itemWire {
	return itemWire{Name: i.Name, Price: i.Price, IsActive: i.IsActive}
}

type transactionItemWire struct {
	ItemID    int64           `json:"item_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type transactionWire struct {
	ID          int64                 `json:"id"`
	ClientRef   string                `json:"client_ref"`
	CustomerID  int64                 `json:"customer_id"`
	Type        string                `json:"transaction_type"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	Date        time.Time             `json:"date"`
	Items       []transactionItemWire `json:"items"`
}

// model returns the server's copy, which is by definition synced.
func (w transactionWire) model() model.Transaction {
	t := model.Transaction{
		ID:          w.ID,
		ClientRef:   w.ClientRef,
		CustomerID:  w.CustomerID,
		Type:        model.TransactionType(w.Type),
		TotalAmount: w.TotalAmount,
		Date:        w.Date.UTC(),
		Synced:      true,
	}
	for _, it := range w.Items {
		t.Items = append(t.Items, model.TransactionItem{ItemID: it.ItemID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return t
}

type debtRequest struct {
	ClientRef  string                `json:"client_ref"`
	CustomerID int64                 `json:"customer_id"`
	Date       time.Time             `json:"date"`
	Items      []transactionItemWire `json:"items"`
}

type paymentRequest struct {
	ClientRef  string          `json:"client_ref"`
	CustomerID int64           `json:"customer_id"`
	Date       time.Time       `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
}

func toDebtRequest(t model.Transaction) debtRequest {
	req := debtRequest{ClientRef: t.ClientRef, CustomerID: t.CustomerID, Date: t.Date, Items: make([]transactionItemWire, len(t.Items))}
	for i, it := range t.Items {
		req.Items[i] = transactionItemWire{ItemID: it.ItemID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return req
}

func toPaymentRequest(t model.Transaction) paymentRequest {
	return paymentRequest{ClientRef: t.ClientRef, CustomerID: t.CustomerID, Date: t.Date, Amount: t.TotalAmount}
}

// Balance is the server-side per-customer summary.
type Balance struct {
	CustomerID    int64           `json:"customer_id"`
	TotalDebt     decimal.Decimal `json:"total_debt"`
	TotalPayments decimal.Decimal `json:"total_payments"`
	Balance       decimal.Decimal `json:"balance"`
}

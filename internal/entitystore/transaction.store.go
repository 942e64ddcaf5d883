package entitystore

import (
	"context"
	"time"

	"github.com/nimasrn/denitracker/internal/balance"
	"github.com/nimasrn/denitracker/internal/model"
	"github.com/shopspring/decimal"
)

type CustomerSource interface {
	Customer(ctx context.Context, id int64) (model.Customer, error)
}

type ItemSource interface {
	Item(ctx context.Context, id int64) (model.Item, error)
}

// TransactionStore is append-only: debts and payments are created, never
// edited or removed. The list is shown from the mirror first because the
// unsynced queue lives there.
type TransactionStore struct {
	*Store[model.Transaction]
	customers CustomerSource
	items     ItemSource
	now       func() time.Time
}

func NewTransactionStore(local Collection[model.Transaction], remote Endpoint[model.Transaction], ids *PlaceholderIDs, customers CustomerSource, items ItemSource, write WritePolicy) *TransactionStore {
	return &TransactionStore{
		Store: NewStore[model.Transaction](local, remote, ids, Options[model.Transaction]{
			Name:  "transaction",
			Load:  LocalFirst,
			Write: write,
			Defer: model.Transaction.ReferencesPlaceholder,
		}),
		customers: customers,
		items:     items,
		now:       time.Now,
	}
}

// customer maps the id the caller holds to the customer's current key. A
// zero id is left for the model to reject.
func (s *TransactionStore) customer(ctx context.Context, id int64) (int64, error) {
	if id == 0 {
		return 0, nil
	}
	c, err := s.customers.Customer(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

// AddDebt records a sale on credit. Each line's unit price is the item's
// price right now and is never recomputed.
func (s *TransactionStore) AddDebt(ctx context.Context, customerID int64, lines []model.DebtLine) (model.Transaction, error) {
	customerID, err := s.customer(ctx, customerID)
	if err != nil {
		return model.Transaction{}, err
	}
	items := make([]model.TransactionItem, 0, len(lines))
	for _, l := range lines {
		it, err := s.items.Item(ctx, l.ItemID)
		if err != nil {
			return model.Transaction{}, err
		}
		items = append(items, model.TransactionItem{ItemID: it.ID, Quantity: l.Quantity, UnitPrice: it.Price})
	}
	t, err := model.NewDebt(customerID, items, s.now())
	if err != nil {
		return model.Transaction{}, err
	}
	return s.Create(ctx, t)
}

func (s *TransactionStore) AddPayment(ctx context.Context, customerID int64, amount decimal.Decimal) (model.Transaction, error) {
	customerID, err := s.customer(ctx, customerID)
	if err != nil {
		return model.Transaction{}, err
	}
	t, err := model.NewPayment(customerID, amount, s.now())
	if err != nil {
		return model.Transaction{}, err
	}
	return s.Create(ctx, t)
}

func (s *TransactionStore) ForCustomer(customerID int64) []model.Transaction {
	var out []model.Transaction
	for _, t := range s.All() {
		if t.CustomerID == customerID {
			out = append(out, t)
		}
	}
	return out
}

// Balance counts every transaction the device holds, synced or not.
func (s *TransactionStore) Balance(customerID int64) decimal.Decimal {
	return balance.ForCustomer(customerID, s.All())
}

func (s *TransactionStore) Summary(customerID int64) balance.Summary {
	return balance.Summarize(customerID, s.All())
}

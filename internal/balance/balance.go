// Package balance derives what a customer owes from their transaction
// history. It does no I/O and ignores the synced flag.
package balance

import (
	"github.com/nimasrn/denitracker/internal/model"
	"github.com/shopspring/decimal"
)

type Summary struct {
	CustomerID    int64           `json:"customer_id"`
	TotalDebt     decimal.Decimal `json:"total_debt"`
	TotalPayments decimal.Decimal `json:"total_payments"`
	Balance       decimal.Decimal `json:"balance"`
}

// ForCustomer is the sum of the customer's debts minus the sum of their
// payments.
func ForCustomer(customerID int64, txs []model.Transaction) decimal.Decimal {
	return Summarize(customerID, txs).Balance
}

func Summarize(customerID int64, txs []model.Transaction) Summary {
	s := Summary{CustomerID: customerID, TotalDebt: decimal.Zero, TotalPayments: decimal.Zero}
	for _, t := range txs {
		if t.CustomerID != customerID {
			continue
		}
		switch t.Type {
		case model.TransactionDebt:
			s.TotalDebt = s.TotalDebt.Add(t.TotalAmount)
		case model.TransactionPayment:
			s.TotalPayments = s.TotalPayments.Add(t.TotalAmount)
		}
	}
	s.Balance = s.TotalDebt.Sub(s.TotalPayments)
	return s
}

// All summarizes every customer that appears in txs.
func All(txs []model.Transaction) map[int64]Summary {
	out := make(map[int64]Summary)
	for _, t := range txs {
		if _, ok := out[t.CustomerID]; ok {
			continue
		}
		out[t.CustomerID] = Summarize(t.CustomerID, txs)
	}
	return out
}

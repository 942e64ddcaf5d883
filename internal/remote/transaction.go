package remote

import (
	"context"
	"fmt"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/valyala/fasthttp"
)

// TransactionResource creates debts and payments through their dedicated
// endpoints and lists the server history. Transactions are never updated.
type TransactionResource struct {
	client *Client
	path   string
}

func (r *TransactionResource) List(ctx context.Context) ([]model.Transaction, error) {
	var ws []transactionWire
	if err := r.client.do(ctx, request{method: fasthttp.MethodGet, path: r.path, out: &ws}); err != nil {
		return nil, err
	}
	out := make([]model.Transaction, len(ws))
	for i, w := range ws {
		out[i] = w.model()
	}
	return out, nil
}

func (r *TransactionResource) Get(ctx context.Context, id int64) (model.Transaction, error) {
	var w transactionWire
	if err := r.client.do(ctx, request{method: fasthttp.MethodGet, path: fmt.Sprintf("%s/%d", r.path, id), out: &w}); err != nil {
		return model.Transaction{}, err
	}
	return w.model(), nil
}

// Create replays t with its original semantics: a debt with its lines, or a
// payment with its amount. client_ref travels as the idempotency key.
func (r *TransactionResource) Create(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	switch t.Type {
	case model.TransactionDebt:
		return r.post(ctx, "/debt", t.ClientRef, toDebtRequest(t))
	case model.TransactionPayment:
		return r.post(ctx, "/payment", t.ClientRef, toPaymentRequest(t))
	}
	return model.Transaction{}, fmt.Errorf("create transaction: %w", model.ErrInvalidType)
}

func (r *TransactionResource) post(ctx context.Context, suffix, key string, body any) (model.Transaction, error) {
	var w transactionWire
	err := r.client.do(ctx, request{
		method:         fasthttp.MethodPost,
		path:           r.path + suffix,
		body:           body,
		out:            &w,
		idempotencyKey: key,
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return w.model(), nil
}

// Balance fetches the server-side summary for a customer.
func (r *TransactionResource) Balance(ctx context.Context, customerID int64) (Balance, error) {
	var b Balance
	err := r.client.do(ctx, request{method: fasthttp.MethodGet, path: fmt.Sprintf("/customers/%d/balance", customerID), out: &b})
	return b, err
}

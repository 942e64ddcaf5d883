package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/nimasrn/denitracker/internal/balance"
	"github.com/nimasrn/denitracker/internal/model"
	xhttp "github.com/nimasrn/denitracker/pkg/http"
	"github.com/shopspring/decimal"
)

type TransactionService interface {
	All() []model.Transaction
	ForCustomer(customerID int64) []model.Transaction
	AddDebt(ctx context.Context, customerID int64, lines []model.DebtLine) (model.Transaction, error)
	AddPayment(ctx context.Context, customerID int64, amount decimal.Decimal) (model.Transaction, error)
	Summary(customerID int64) balance.Summary
}

type TransactionHandler struct {
	svc       TransactionService
	customers CustomerService
}

func RegisterTransactionRoutes(e *router.Group, h *TransactionHandler) {
	e.GET("/transactions", h.ListTransactions)
	e.POST("/transactions/debt", h.CreateDebt)
	e.POST("/transactions/payment", h.CreatePayment)
	e.GET("/customers/{id}/balance", h.CustomerBalance)
}

func NewTransactionHandler(svc TransactionService, customers CustomerService) *TransactionHandler {
	return &TransactionHandler{svc: svc, customers: customers}
}

type createDebtRequest struct {
	CustomerID int64            `json:"customer_id"`
	Items      []model.DebtLine `json:"items"`
}

type createPaymentRequest struct {
	CustomerID int64           `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// ListTransactions lists every transaction the device holds, optionally
// narrowed with ?customer_id=.
func (h *TransactionHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	v := query(ctx, "customer_id")
	if v == "" {
		xhttp.JSON(ctx, xhttp.StatusOK, h.svc.All())
		return
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		xhttp.Error(ctx, xhttp.StatusBadRequest, "invalid customer_id")
		return
	}
	txs := h.svc.ForCustomer(id)
	if txs == nil {
		txs = []model.Transaction{}
	}
	xhttp.JSON(ctx, xhttp.StatusOK, txs)
}

func (h *TransactionHandler) CreateDebt(ctx *xhttp.RequestCtx) {
	var req createDebtRequest
	if err := readJSON(ctx, &req); err != nil {
		xhttp.Error(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	t, err := h.svc.AddDebt(ctx, req.CustomerID, req.Items)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	xhttp.JSON(ctx, xhttp.StatusCreated, t)
}

func (h *TransactionHandler) CreatePayment(ctx *xhttp.RequestCtx) {
	var req createPaymentRequest
	if err := readJSON(ctx, &req); err != nil {
		xhttp.Error(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	t, err := h.svc.AddPayment(ctx, req.CustomerID, req.Amount)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	xhttp.JSON(ctx, xhttp.StatusCreated, t)
}

// CustomerBalance is computed from the device's transactions, synced or not.
func (h *TransactionHandler) CustomerBalance(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if _, found := h.customers.Find(id); !found {
		xhttp.Error(ctx, xhttp.StatusNotFound, "customer not found")
		return
	}
	xhttp.JSON(ctx, xhttp.StatusOK, h.svc.Summary(id))
}

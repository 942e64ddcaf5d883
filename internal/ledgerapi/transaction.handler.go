package ledgerapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/internal/repository"
	"github.com/shopspring/decimal"
)

const IdempotencyHeader = "Idempotency-Key"

type lineRequest struct {
	ItemID   int64 `json:"item_id" binding:"required"`
	Quantity int64 `json:"quantity"`
	// UnitPrice is the price the device charged; when absent the current
	// item price is used.
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type debtRequest struct {
	ClientRef  string        `json:"client_ref"`
	CustomerID int64         `json:"customer_id" binding:"required"`
	Date       time.Time     `json:"date"`
	Items      []lineRequest `json:"items"`
}

type paymentRequest struct {
	ClientRef  string          `json:"client_ref"`
	CustomerID int64           `json:"customer_id" binding:"required"`
	Date       time.Time       `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
}

func (h *Handler) ListTransactions(c *gin.Context) {
	txs, err := h.transactions.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	tx, err := h.transactions.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *Handler) CreateDebt(c *gin.Context) {
	var req debtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	items := make([]model.TransactionItem, 0, len(req.Items))
	for _, line := range req.Items {
		ti := model.TransactionItem{ItemID: line.ItemID, Quantity: line.Quantity}
		if line.UnitPrice != nil {
			ti.UnitPrice = *line.UnitPrice
		} else {
			item, err := h.items.GetByID(c.Request.Context(), line.ItemID)
			if err != nil {
				h.failCreate(c, err)
				return
			}
			ti.UnitPrice = item.Price
		}
		items = append(items, ti)
	}

	h.create(c, model.Transaction{
		ClientRef:   req.ClientRef,
		CustomerID:  req.CustomerID,
		Type:        model.TransactionDebt,
		TotalAmount: model.LinesTotal(items),
		Date:        req.Date,
		Items:       items,
	})
}

func (h *Handler) CreatePayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	h.create(c, model.Transaction{
		ClientRef:   req.ClientRef,
		CustomerID:  req.CustomerID,
		Type:        model.TransactionPayment,
		TotalAmount: req.Amount,
		Date:        req.Date,
	})
}

// create stores t once per idempotency key. A replay answers 200 with the
// stored transaction, a first write answers 201.
func (h *Handler) create(c *gin.Context, t model.Transaction) {
	ctx := c.Request.Context()

	key := c.GetHeader(IdempotencyHeader)
	if t.ClientRef == "" {
		t.ClientRef = key
	}
	if t.ClientRef == "" {
		t.ClientRef = uuid.NewString()
	}
	if key == "" {
		key = t.ClientRef
	}
	if t.Date.IsZero() {
		t.Date = time.Now()
	}
	t.Date = t.Date.UTC()

	if err := t.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	var pc *ProcessingContext
	if h.idempotency != nil {
		var (
			storedID int64
			err      error
		)
		pc, storedID, err = h.idempotency.AcquireProcessingLock(ctx, key)
		switch {
		case errors.Is(err, ErrAlreadyProcessed):
			stored, err := h.transactions.GetByID(ctx, storedID)
			if err == nil {
				c.JSON(http.StatusOK, stored)
				return
			}
			h.log.Warn().Err(err).Str("key", key).Msg("Stored idempotency result is gone, recreating")
		case errors.Is(err, ErrLockAcquireFailed):
			h.fail(c, err)
			return
		case err != nil:
			h.log.Warn().Err(err).Str("key", key).Msg("Idempotency store unavailable, relying on client_ref")
		}
	}

	saved, created, err := h.transactions.Create(ctx, t)
	if err != nil {
		if pc != nil {
			_ = h.idempotency.ReleaseLock(ctx, pc)
		}
		h.failCreate(c, err)
		return
	}
	if pc != nil {
		_ = h.idempotency.MarkSuccess(ctx, pc, saved.ID)
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	h.log.Info().
		Int64("transaction_id", saved.ID).
		Str("client_ref", saved.ClientRef).
		Str("type", string(saved.Type)).
		Str("total", saved.TotalAmount.String()).
		Bool("replay", !created).
		Msg("Transaction stored")
	c.JSON(status, saved)
}

// failCreate reports a missing referenced customer or item as a bad request
// rather than a missing resource.
func (h *Handler) failCreate(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrCustomerNotFound) || errors.Is(err, repository.ErrItemNotFound) {
		h.failWith(c, http.StatusBadRequest, err)
		return
	}
	h.fail(c, err)
}

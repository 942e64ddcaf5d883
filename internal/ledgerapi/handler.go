package ledgerapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/internal/repository"
	"github.com/rs/zerolog"
)

// Handler serves the ledger REST API the device client syncs against.
type Handler struct {
	customers    *repository.CustomerRepository
	items        *repository.ItemRepository
	transactions *repository.TransactionRepository
	idempotency  *IdempotencyService
	ping         func(ctx context.Context) error
	log          zerolog.Logger
}

type Dependencies struct {
	Customers    *repository.CustomerRepository
	Items        *repository.ItemRepository
	Transactions *repository.TransactionRepository
	// Idempotency is optional; without it duplicate creates are still
	// caught by the client_ref unique index.
	Idempotency *IdempotencyService
	Ping        func(ctx context.Context) error
	Log         zerolog.Logger
}

func NewHandler(d Dependencies) *Handler {
	return &Handler{
		customers:    d.Customers,
		items:        d.Items,
		transactions: d.Transactions,
		idempotency:  d.Idempotency,
		ping:         d.Ping,
		log:          d.Log,
	}
}

var validationErrors = []error{
	model.ErrNameRequired,
	model.ErrCustomerRequired,
	model.ErrInvalidPrice,
	model.ErrInvalidQuantity,
	model.ErrInvalidAmount,
	model.ErrInvalidType,
	model.ErrNoLines,
	model.ErrTotalMismatch,
	model.ErrPaymentLines,
	model.ErrUnknownItem,
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, repository.ErrCustomerNotFound),
		errors.Is(err, repository.ErrItemNotFound),
		errors.Is(err, repository.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrCustomerInUse),
		errors.Is(err, ErrLockAcquireFailed):
		return http.StatusConflict
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.failWith(c, statusOf(err), err)
}

func (h *Handler) failWith(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request",
		"details": err.Error(),
	})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

// HealthCheck answers the client's connectivity probe.
func (h *Handler) HealthCheck(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			h.log.Warn().Err(err).Msg("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  "database unavailable",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

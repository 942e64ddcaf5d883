package ledgerapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimasrn/denitracker/internal/model"
)

func (h *Handler) ListCustomers(c *gin.Context) {
	customers, err := h.customers.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	customer, err := h.customers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) CreateCustomer(c *gin.Context) {
	var req model.CustomerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	customer, err := h.customers.Create(c.Request.Context(), req.Customer())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info().Int64("customer_id", customer.ID).Str("name", customer.Name).Msg("Customer created")
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var patch model.CustomerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := patch.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	customer, err := h.customers.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.customers.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info().Int64("customer_id", id).Msg("Customer deleted")
	c.Status(http.StatusNoContent)
}

func (h *Handler) CustomerBalance(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	balance, err := h.customers.GetBalance(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *Handler) CustomerTransactions(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if _, err := h.customers.GetByID(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	txs, err := h.transactions.ListByCustomer(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

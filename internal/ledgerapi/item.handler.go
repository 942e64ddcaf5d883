package ledgerapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nimasrn/denitracker/internal/model"
	"github.com/shopspring/decimal"
)

type createItemRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	IsActive *bool           `json:"is_active"`
}

// ListItems serves active items; ?all=true adds deactivated ones.
func (h *Handler) ListItems(c *gin.Context) {
	list := h.items.ListActive
	if all, _ := strconv.ParseBool(c.Query("all")); all {
		list = h.items.ListAll
	}
	items, err := list(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := h.items.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) CreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	input := model.ItemInput{Name: req.Name, Price: req.Price}
	if err := input.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	item := input.Item()
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	item, err := h.items.Create(c.Request.Context(), item)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info().Int64("item_id", item.ID).Str("price", item.Price.String()).Msg("Item created")
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) UpdateItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var patch model.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := patch.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	item, err := h.items.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem deactivates the item; sold lines keep pointing at it.
func (h *Handler) DeleteItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.items.Deactivate(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ItemPriceHistory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if _, err := h.items.GetByID(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	history, err := h.items.PriceHistory(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

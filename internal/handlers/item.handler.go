package handlers

import (
	"context"
	"strings"

	"github.com/fasthttp/router"
	"github.com/nimasrn/denitracker/internal/model"
	xhttp "github.com/nimasrn/denitracker/pkg/http"
)

type ItemService interface {
	All() []model.Item
	Active() []model.Item
	Find(id int64) (model.Item, bool)
	Add(ctx context.Context, in model.ItemInput) (model.Item, error)
	Update(ctx context.Context, id int64, patch model.ItemPatch) (model.Item, error)
	Deactivate(ctx context.Context, id int64) (model.Item, error)
	Delete(ctx context.Context, id int64) error
}

type ItemHandler struct {
	svc ItemService
}

func RegisterItemRoutes(e *router.Group, h *ItemHandler) {
	e.GET("/items", h.ListItems)
	e.POST("/items", h.CreateItem)
	e.GET("/items/{id}", h.GetItem)
	e.PATCH("/items/{id}", h.UpdateItem)
	e.POST("/items/{id}/deactivate", h.DeactivateItem)
	e.DELETE("/items/{id}", h.DeleteItem)
}

func NewItemHandler(svc ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

// ListItems returns active items; ?all=true includes deactivated ones.
func (h *ItemHandler) ListItems(ctx *xhttp.RequestCtx) {
	if strings.EqualFold(query(ctx, "all"), "true") {
		xhttp.JSON(ctx, xhttp.StatusOK, h.svc.All())
		return
	}
	items := h.svc.Active()
	if items == nil {
		items = []model.Item{}
	}
	xhttp.JSON(ctx, xhttp.StatusOK, items)
}

func (h *ItemHandler) GetItem(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	it, found := h.svc.Find(id)
	if !found {
		xhttp.Error(ctx, xhttp.StatusNotFound, "item not found")
		return
	}
	xhttp.JSON(ctx, xhttp.StatusOK, it)
}

func (h *ItemHandler) CreateItem(ctx *xhttp.RequestCtx) {
	var req model.ItemInput
	if err := readJSON(ctx, &req); err != nil {
		xhttp.Error(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	it, err := h.svc.Add(ctx, req)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	xhttp.JSON(ctx, xhttp.StatusCreated, it)
}

func (h *ItemHandler) UpdateItem(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var patch model.ItemPatch
	if err := readJSON(ctx, &patch); err != nil {
		xhttp.Error(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	it, err := h.svc.Update(ctx, id, patch)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	xhttp.JSON(ctx, xhttp.StatusOK, it)
}

func (h *ItemHandler) DeactivateItem(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	it, err := h.svc.Deactivate(ctx, id)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	xhttp.JSON(ctx, xhttp.StatusOK, it)
}

func (h *ItemHandler) DeleteItem(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.svc.Delete(ctx, id); err != nil {
		writeFailure(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

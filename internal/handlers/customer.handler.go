package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/denitracker/internal/model"
	xhttp "github.com/nimasrn/denitracker/pkg/http"
)

type CustomerService interface {
	All() []model.Customer
	Find(id int64) (model.Customer, bool)
	Add(ctx context.Context, in model.CustomerInput) (model.Customer, error)
	Update(ctx context.Context, id int64, patch model.CustomerPatch) (model.Customer, error)
	Delete(ctx context.Context, id int64) error
}

type CustomerHandler struct {
	svc CustomerService
}

func RegisterCustomerRoutes(e *router.Group, h *CustomerHandler) {
	e.GET("/customers", h.ListCustomers)
	e.POST("/customers", h.CreateCustomer)
	e.GET("/customers/{id}", h.GetCustomer)
	e.PATCH("/customers/{id}", h.UpdateCustomer)
	e.DELETE("/customers/{id}", h.DeleteCustomer)
}

func NewCustomerHandler(svc CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

func (h *CustomerHandler) ListCustomers(ctx *xhttp.RequestCtx) {
	xhttp.JSON(ctx, xhttp.StatusOK, h.svc.All())
}

func (h *CustomerHandler) GetCustomer(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	c, found := h.svc.Find(id)
	if !found {
		xhttp.Error(ctx, xhttp.StatusNotFound, "customer not found")
		return
	}
	xhttp.JSON(ctx, xhttp.StatusOK, c)
}

func (h *CustomerHandler) CreateCustomer(ctx *xhttp.RequestCtx) {
	var req model.CustomerInput
	if err := readJSON(ctx, &req); err != nil {
		xhttp.Error(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	c, err := h.svc.Add(ctx, req)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	xhttp.JSON(ctx, xhttp.StatusCreated, c)
}

func (h *CustomerHandler) UpdateCustomer(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var patch model.CustomerPatch
	if err := readJSON(ctx, &patch); err != nil {
		xhttp.Error(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	c, err := h.svc.Update(ctx, id, patch)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	xhttp.JSON(ctx, xhttp.StatusOK, c)
}

func (h *CustomerHandler) DeleteCustomer(ctx *xhttp.RequestCtx) {
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

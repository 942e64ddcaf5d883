// Package handlers is the device's local HTTP API. The UI reads and writes
// through it; every write follows the entity stores' offline rules.
package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/nimasrn/denitracker/internal/entitystore"
	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/internal/remote"
	"github.com/nimasrn/denitracker/internal/syncer"
	xhttp "github.com/nimasrn/denitracker/pkg/http"
	"github.com/nimasrn/denitracker/pkg/logger"
)

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
	model.ErrUnknownCustomer,
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

// writeFailure maps store and sync errors onto status codes. A server
// rejection keeps its 4xx; anything else from the server is a bad gateway.
func writeFailure(ctx *xhttp.RequestCtx, err error) {
	var rejected *remote.RejectedError
	switch {
	case errors.As(err, &rejected):
		status := xhttp.StatusBadGateway
		if rejected.StatusCode >= 400 && rejected.StatusCode < 500 {
			status = rejected.StatusCode
		}
		xhttp.Error(ctx, status, "rejected by server: "+rejected.Body)
		return
	case entitystore.IsLocalStoreError(err):
		logger.Error("Local store failure", "path", string(ctx.Path()), "request_id", xhttp.RequestID(ctx), "error", err)
		xhttp.Error(ctx, xhttp.StatusInternalServerError, err.Error())
		return
	case errors.Is(err, entitystore.ErrNotFound):
		xhttp.Error(ctx, xhttp.StatusNotFound, err.Error())
		return
	case errors.Is(err, syncer.ErrSyncInProgress):
		xhttp.Error(ctx, xhttp.StatusConflict, err.Error())
		return
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			xhttp.Error(ctx, xhttp.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	logger.Error("Request failed", "path", string(ctx.Path()), "request_id", xhttp.RequestID(ctx), "error", err)
	xhttp.Error(ctx, xhttp.StatusInternalServerError, err.Error())
}

// pathID reads the {id} route parameter. Placeholder ids are negative, so
// any non-zero integer is accepted.
func pathID(ctx *xhttp.RequestCtx) (int64, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		xhttp.Error(ctx, xhttp.StatusBadRequest, "invalid id "+strconv.Quote(raw))
		return 0, false
	}
	return id, true
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

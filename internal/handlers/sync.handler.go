package handlers

import (
	"context"
	"strings"

	"github.com/fasthttp/router"
	"github.com/nimasrn/denitracker/internal/app"
	"github.com/nimasrn/denitracker/internal/syncer"
	xhttp "github.com/nimasrn/denitracker/pkg/http"
)

type SyncService interface {
	TriggerSync(reason string) bool
	SyncNow(ctx context.Context) (syncer.Report, error)
	SyncStatus(ctx context.Context) (app.SyncStatus, error)
}

type SyncHandler struct {
	svc SyncService
}

func RegisterSyncRoutes(e *router.Group, h *SyncHandler) {
	e.POST("/sync", h.StartSync)
	e.GET("/sync/status", h.GetStatus)
}

func NewSyncHandler(svc SyncService) *SyncHandler {
	return &SyncHandler{svc: svc}
}

// StartSync queues a background run, or with ?wait=true runs it inline and
// returns the report.
func (h *SyncHandler) StartSync(ctx *xhttp.RequestCtx) {
	if strings.EqualFold(query(ctx, "wait"), "true") {
		report, err := h.svc.SyncNow(ctx)
		if err != nil {
			writeFailure(ctx, err)
			return
		}
		xhttp.JSON(ctx, xhttp.StatusOK, report)
		return
	}
	queued := h.svc.TriggerSync("manual")
	xhttp.JSON(ctx, xhttp.StatusAccepted, map[string]bool{"queued": queued})
}

func (h *SyncHandler) GetStatus(ctx *xhttp.RequestCtx) {
	status, err := h.svc.SyncStatus(ctx)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	xhttp.JSON(ctx, xhttp.StatusOK, status)
}

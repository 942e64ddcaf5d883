package handlers

import (
	"github.com/fasthttp/router"
	xhttp "github.com/nimasrn/denitracker/pkg/http"
)

func RegisterHealthRoutes(e *router.Group) {
	e.GET("/health", GetHealth)
}

// GetHealth reports that the local API is up; it says nothing about the
// remote server, which /sync/status covers.
func GetHealth(ctx *xhttp.RequestCtx) {
	xhttp.JSON(ctx, xhttp.StatusOK, map[string]string{"status": "healthy"})
}

package handlers

import (
	"github.com/nimasrn/denitracker/internal/app"
	xhttp "github.com/nimasrn/denitracker/pkg/http"
)

// Register mounts the whole local API under /api on r.
func Register(r *xhttp.Router, a *app.App) {
	g := r.Group("/api")
	customers := NewCustomerHandler(a.Customers)
	RegisterCustomerRoutes(g, customers)
	RegisterItemRoutes(g, NewItemHandler(a.Items))
	RegisterTransactionRoutes(g, NewTransactionHandler(a.Transactions, a.Customers))
	RegisterSyncRoutes(g, NewSyncHandler(a))
	RegisterHealthRoutes(g)
}
